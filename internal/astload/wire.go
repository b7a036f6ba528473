package astload

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire format: a flat binary layout mirroring spec.md §3's "indexable pool
// of fixed-size records" description, generalized with the same
// offset+length convention spec.md already uses for identifiers into the
// string pool — applied here to three more flat pools (node-ref lists,
// parameter-name lists, and int64 immediates) so every node record stays
// a fixed 48 bytes regardless of how many children a particular node has.
//
//	header:      magic[4] nodeCount:u32 refPoolCount:u32 identPoolCount:u32
//	             immPoolCount:u32 stringPoolLen:u32 root:u16
//	records:     nodeCount * 48-byte Record
//	ref pool:    refPoolCount * u16        (raw NodeRef indices, 0xFFFF=none)
//	ident pool:  identPoolCount * (u32 offset, u32 length)
//	imm pool:    immPoolCount * i64
//	string pool: stringPoolLen raw bytes
const (
	wireMagic      = "BLZ1"
	wireHeaderSize = 4 + 4*5 + 2
	wireRecordSize = 48
)

// WireError reports a malformed wire-format input — truncated header, a
// node's flag/kind byte naming an unsupported value, or a pool-length
// field that does not match the bytes actually present. This is the
// decode half of spec.md §7 category 1 (input malformed).
type WireError struct {
	Msg string
}

func (e *WireError) Error() string { return "astload: wire: " + e.Msg }

// Save encodes pool and root into the wire format Load reads back.
func Save(pool *Pool, root NodeRef) ([]byte, error) {
	var refPool []uint16
	var identPool []Ident
	var immPool []int64

	records := make([]byte, len(pool.Nodes)*wireRecordSize)
	for i, n := range pool.Nodes {
		rec := records[i*wireRecordSize : (i+1)*wireRecordSize]
		if err := encodeRecord(rec, n, &refPool, &identPool, &immPool); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, wireHeaderSize+len(records)+len(refPool)*2+len(identPool)*8+len(immPool)*8+len(pool.Strings.bytes))
	out = append(out, []byte(wireMagic)...)
	out = appendU32(out, uint32(len(pool.Nodes)))
	out = appendU32(out, uint32(len(refPool)))
	out = appendU32(out, uint32(len(identPool)))
	out = appendU32(out, uint32(len(immPool)))
	out = appendU32(out, uint32(len(pool.Strings.bytes)))
	rootRaw := uint16(0xFFFF)
	if root.Valid() {
		rootRaw = root.idx
	}
	out = appendU16(out, rootRaw)

	out = append(out, records...)
	for _, r := range refPool {
		out = appendU16(out, r)
	}
	for _, id := range identPool {
		out = appendU32(out, id.Offset)
		out = appendU32(out, id.Length)
	}
	for _, v := range immPool {
		out = appendU64(out, uint64(v))
	}
	out = append(out, pool.Strings.bytes...)
	return out, nil
}

// Load decodes the wire form into a Pool and its root reference. This is
// the one decoding step astload performs (spec.md §1: it consumes an
// already-built AST; it never lexes or parses Blaze source text).
func Load(data []byte) (*Pool, NodeRef, error) {
	if len(data) < wireHeaderSize || string(data[:4]) != wireMagic {
		return nil, NoNode, &WireError{Msg: "missing or bad magic header"}
	}
	nodeCount := binary.LittleEndian.Uint32(data[4:8])
	refPoolCount := binary.LittleEndian.Uint32(data[8:12])
	identPoolCount := binary.LittleEndian.Uint32(data[12:16])
	immPoolCount := binary.LittleEndian.Uint32(data[16:20])
	stringPoolLen := binary.LittleEndian.Uint32(data[20:24])
	rootRaw := binary.LittleEndian.Uint16(data[24:26])

	off := wireHeaderSize
	recordsEnd := off + int(nodeCount)*wireRecordSize
	if recordsEnd > len(data) {
		return nil, NoNode, &WireError{Msg: "truncated record table"}
	}
	records := data[off:recordsEnd]
	off = recordsEnd

	refPoolEnd := off + int(refPoolCount)*2
	if refPoolEnd > len(data) {
		return nil, NoNode, &WireError{Msg: "truncated ref pool"}
	}
	refPool := make([]uint16, refPoolCount)
	for i := range refPool {
		refPool[i] = binary.LittleEndian.Uint16(data[off+i*2:])
	}
	off = refPoolEnd

	identPoolEnd := off + int(identPoolCount)*8
	if identPoolEnd > len(data) {
		return nil, NoNode, &WireError{Msg: "truncated ident pool"}
	}
	identPool := make([]Ident, identPoolCount)
	for i := range identPool {
		base := off + i*8
		identPool[i] = Ident{
			Offset: binary.LittleEndian.Uint32(data[base:]),
			Length: binary.LittleEndian.Uint32(data[base+4:]),
		}
	}
	off = identPoolEnd

	immPoolEnd := off + int(immPoolCount)*8
	if immPoolEnd > len(data) {
		return nil, NoNode, &WireError{Msg: "truncated imm pool"}
	}
	immPool := make([]int64, immPoolCount)
	for i := range immPool {
		immPool[i] = int64(binary.LittleEndian.Uint64(data[off+i*8:]))
	}
	off = immPoolEnd

	stringEnd := off + int(stringPoolLen)
	if stringEnd > len(data) {
		return nil, NoNode, &WireError{Msg: "truncated string pool"}
	}
	strPool := NewStringPool(append([]byte(nil), data[off:stringEnd]...))

	pool := &Pool{Nodes: make([]Node, nodeCount), Strings: strPool}
	for i := uint32(0); i < nodeCount; i++ {
		rec := records[i*wireRecordSize : (i+1)*wireRecordSize]
		n, err := decodeRecord(rec, refPool, identPool, immPool)
		if err != nil {
			return nil, NoNode, err
		}
		pool.Nodes[i] = n
	}

	root := NoNode
	if rootRaw != 0xFFFF {
		root = NodeRef{idx: rootRaw}
	}
	return pool, root, nil
}

func appendU16(b []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(b, buf[:]...)
}

func appendU32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func refRaw(r NodeRef) uint16 {
	if !r.Valid() {
		return 0xFFFF
	}
	return r.idx
}

func refFromRaw(v uint16) NodeRef {
	if v == 0xFFFF {
		return NoNode
	}
	return NodeRef{idx: v}
}

func putRec(rec []byte, kind Kind, flag uint8, a, b, c, d NodeRef, listOff uint32, listCount uint16, nameOff, nameLen uint32, immLo, immHi uint64) {
	rec[0] = byte(kind)
	rec[1] = flag
	binary.LittleEndian.PutUint16(rec[4:], refRaw(a))
	binary.LittleEndian.PutUint16(rec[6:], refRaw(b))
	binary.LittleEndian.PutUint16(rec[8:], refRaw(c))
	binary.LittleEndian.PutUint16(rec[10:], refRaw(d))
	binary.LittleEndian.PutUint32(rec[12:], listOff)
	binary.LittleEndian.PutUint16(rec[16:], listCount)
	binary.LittleEndian.PutUint32(rec[20:], nameOff)
	binary.LittleEndian.PutUint32(rec[24:], nameLen)
	binary.LittleEndian.PutUint64(rec[28:], immLo)
	binary.LittleEndian.PutUint64(rec[36:], immHi)
}

type recFields struct {
	kind               Kind
	flag               uint8
	a, b, c, d         NodeRef
	listOff            uint32
	listCount          uint16
	nameOff, nameLen   uint32
	immLo, immHi       uint64
}

func getRec(rec []byte) recFields {
	return recFields{
		kind:      Kind(rec[0]),
		flag:      rec[1],
		a:         refFromRaw(binary.LittleEndian.Uint16(rec[4:])),
		b:         refFromRaw(binary.LittleEndian.Uint16(rec[6:])),
		c:         refFromRaw(binary.LittleEndian.Uint16(rec[8:])),
		d:         refFromRaw(binary.LittleEndian.Uint16(rec[10:])),
		listOff:   binary.LittleEndian.Uint32(rec[12:]),
		listCount: binary.LittleEndian.Uint16(rec[16:]),
		nameOff:   binary.LittleEndian.Uint32(rec[20:]),
		nameLen:   binary.LittleEndian.Uint32(rec[24:]),
		immLo:     binary.LittleEndian.Uint64(rec[28:]),
		immHi:     binary.LittleEndian.Uint64(rec[36:]),
	}
}

func ident(off, length uint32) Ident { return Ident{Offset: off, Length: length} }

func encodeRecord(rec []byte, n Node, refPool *[]uint16, identPool *[]Ident, immPool *[]int64) error {
	switch n.Kind {
	case KindProgram:
		listOff := uint32(len(*refPool))
		for _, f := range n.Program.Functions {
			*refPool = append(*refPool, refRaw(f))
		}
		putRec(rec, n.Kind, 0, n.Program.Entry, NoNode, NoNode, NoNode, listOff, uint16(len(n.Program.Functions)), 0, 0, 0, 0)
	case KindVarDef:
		putRec(rec, n.Kind, 0, n.VarDef.Init, NoNode, NoNode, NoNode, 0, 0, n.VarDef.Name.Offset, n.VarDef.Name.Length, 0, 0)
	case KindFuncDef:
		listOff := uint32(len(*identPool))
		for _, p := range n.FuncDef.Params {
			*identPool = append(*identPool, p)
		}
		putRec(rec, n.Kind, 0, n.FuncDef.Body, NoNode, NoNode, NoNode, listOff, uint16(len(n.FuncDef.Params)), n.FuncDef.Name.Offset, n.FuncDef.Name.Length, 0, 0)
	case KindActionBlock:
		listOff := uint32(len(*refPool))
		for _, s := range n.ActionBlock.Statements {
			*refPool = append(*refPool, refRaw(s))
		}
		putRec(rec, n.Kind, 0, NoNode, NoNode, NoNode, NoNode, listOff, uint16(len(n.ActionBlock.Statements)), 0, 0, 0, 0)
	case KindBinaryOp:
		putRec(rec, n.Kind, uint8(n.BinaryOp.Op), n.BinaryOp.Left, n.BinaryOp.Right, NoNode, NoNode, 0, 0, 0, 0, 0, 0)
	case KindNumberLit:
		flag := uint8(0)
		var bits uint64
		if n.NumberLit.IsFloat {
			flag = 1
			bits = math.Float64bits(n.NumberLit.FltVal)
		} else {
			bits = uint64(n.NumberLit.IntVal)
		}
		putRec(rec, n.Kind, flag, NoNode, NoNode, NoNode, NoNode, 0, 0, 0, 0, bits, 0)
	case KindIdentifier:
		putRec(rec, n.Kind, 0, NoNode, NoNode, NoNode, NoNode, 0, 0, n.Identifier.Name.Offset, n.Identifier.Name.Length, 0, 0)
	case KindArray4DDef:
		listOff := uint32(len(*immPool))
		*immPool = append(*immPool, n.Array4DDef.Dims[:]...)
		putRec(rec, n.Kind, 0, NoNode, NoNode, NoNode, NoNode, listOff, 4, n.Array4DDef.Name.Offset, n.Array4DDef.Name.Length, uint64(n.Array4DDef.ElemSize), 0)
	case KindArray4DAccess:
		putRec(rec, n.Kind, uint8(n.Array4DAccess.TMode),
			n.Array4DAccess.Indices[0], n.Array4DAccess.Indices[1], n.Array4DAccess.Indices[2], n.Array4DAccess.Indices[3],
			0, 0, n.Array4DAccess.Array.Offset, n.Array4DAccess.Array.Length, 0, 0)
	case KindTimingOp:
		putRec(rec, n.Kind, 0, n.TimingOp.Body, NoNode, NoNode, NoNode, 0, 0, n.TimingOp.Flow.Offset, n.TimingOp.Flow.Length, 0, 0)
	case KindConditional:
		putRec(rec, n.Kind, 0, n.Conditional.Cond, n.Conditional.Then, n.Conditional.Else, NoNode, 0, 0, 0, 0, 0, 0)
	case KindJump:
		putRec(rec, n.Kind, 0, n.Jump.Cond, n.Jump.Body, NoNode, NoNode, 0, 0, 0, 0, 0, 0)
	case KindFixedPoint:
		putRec(rec, n.Kind, 0, n.FixedPoint.Data, NoNode, NoNode, NoNode, 0, 0, n.FixedPoint.Name.Offset, n.FixedPoint.Name.Length, uint64(n.FixedPoint.TimelineID), n.FixedPoint.Required)
	case KindPermanentTimeline:
		putRec(rec, n.Kind, 0, n.PermanentTimeline.Spec, n.PermanentTimeline.Body, NoNode, NoNode, 0, 0, n.PermanentTimeline.Name.Offset, n.PermanentTimeline.Name.Length, uint64(n.PermanentTimeline.TimelineID), 0)
	case KindFlowSpec:
		putRec(rec, n.Kind, uint8(n.FlowSpec.Kind), NoNode, NoNode, NoNode, NoNode, 0, 0, 0, 0, uint64(n.FlowSpec.RateHz), 0)
	case KindCall:
		listOff := uint32(len(*refPool))
		for _, a := range n.Call.Args {
			*refPool = append(*refPool, refRaw(a))
		}
		putRec(rec, n.Kind, 0, NoNode, NoNode, NoNode, NoNode, listOff, uint16(len(n.Call.Args)), n.Call.Callee.Offset, n.Call.Callee.Length, 0, 0)
	case KindPrint:
		putRec(rec, n.Kind, uint8(n.Print.PKind), n.Print.Value, NoNode, NoNode, NoNode, 0, 0, n.Print.Text.Offset, n.Print.Text.Length, 0, 0)
	default:
		return &WireError{Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
	}
	return nil
}

func decodeRecord(rec []byte, refPool []uint16, identPool []Ident, immPool []int64) (Node, error) {
	f := getRec(rec)
	refList := func() ([]NodeRef, error) {
		end := int(f.listOff) + int(f.listCount)
		if end > len(refPool) {
			return nil, &WireError{Msg: "ref list out of range"}
		}
		out := make([]NodeRef, f.listCount)
		for i := range out {
			out[i] = refFromRaw(refPool[int(f.listOff)+i])
		}
		return out, nil
	}
	identList := func() ([]Ident, error) {
		end := int(f.listOff) + int(f.listCount)
		if end > len(identPool) {
			return nil, &WireError{Msg: "ident list out of range"}
		}
		return append([]Ident(nil), identPool[f.listOff:end]...), nil
	}

	switch f.kind {
	case KindProgram:
		fns, err := refList()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: f.kind, Program: ProgramPayload{Functions: fns, Entry: f.a}}, nil
	case KindVarDef:
		return Node{Kind: f.kind, VarDef: VarDefPayload{Name: ident(f.nameOff, f.nameLen), Init: f.a}}, nil
	case KindFuncDef:
		params, err := identList()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: f.kind, FuncDef: FuncDefPayload{Name: ident(f.nameOff, f.nameLen), Params: params, Body: f.a}}, nil
	case KindActionBlock:
		stmts, err := refList()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: f.kind, ActionBlock: ActionBlockPayload{Statements: stmts}}, nil
	case KindBinaryOp:
		return Node{Kind: f.kind, BinaryOp: BinaryOpPayload{Op: BinOp(f.flag), Left: f.a, Right: f.b}}, nil
	case KindNumberLit:
		if f.flag == 1 {
			return Node{Kind: f.kind, NumberLit: NumberLitPayload{IsFloat: true, FltVal: math.Float64frombits(f.immLo)}}, nil
		}
		return Node{Kind: f.kind, NumberLit: NumberLitPayload{IntVal: int64(f.immLo)}}, nil
	case KindIdentifier:
		return Node{Kind: f.kind, Identifier: IdentifierPayload{Name: ident(f.nameOff, f.nameLen)}}, nil
	case KindArray4DDef:
		end := int(f.listOff) + int(f.listCount)
		if end > len(immPool) || f.listCount != 4 {
			return Node{}, &WireError{Msg: "array4d dims out of range"}
		}
		var dims [4]int64
		copy(dims[:], immPool[f.listOff:end])
		return Node{Kind: f.kind, Array4DDef: Array4DDefPayload{Name: ident(f.nameOff, f.nameLen), Dims: dims, ElemSize: int32(f.immLo)}}, nil
	case KindArray4DAccess:
		return Node{Kind: f.kind, Array4DAccess: Array4DAccessPayload{
			Array:   ident(f.nameOff, f.nameLen),
			Indices: [4]NodeRef{f.a, f.b, f.c, f.d},
			TMode:   TMode(f.flag),
		}}, nil
	case KindTimingOp:
		return Node{Kind: f.kind, TimingOp: TimingOpPayload{Flow: ident(f.nameOff, f.nameLen), Body: f.a}}, nil
	case KindConditional:
		return Node{Kind: f.kind, Conditional: ConditionalPayload{Cond: f.a, Then: f.b, Else: f.c}}, nil
	case KindJump:
		return Node{Kind: f.kind, Jump: JumpPayload{Cond: f.a, Body: f.b}}, nil
	case KindFixedPoint:
		return Node{Kind: f.kind, FixedPoint: FixedPointPayload{
			Name: ident(f.nameOff, f.nameLen), TimelineID: uint32(f.immLo), Required: f.immHi, Data: f.a,
		}}, nil
	case KindPermanentTimeline:
		return Node{Kind: f.kind, PermanentTimeline: PermanentTimelinePayload{
			Name: ident(f.nameOff, f.nameLen), TimelineID: uint32(f.immLo), Spec: f.a, Body: f.b,
		}}, nil
	case KindFlowSpec:
		return Node{Kind: f.kind, FlowSpec: FlowSpecPayload{Kind: FlowKind(f.flag), RateHz: int64(f.immLo)}}, nil
	case KindCall:
		args, err := refList()
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: f.kind, Call: CallPayload{Callee: ident(f.nameOff, f.nameLen), Args: args}}, nil
	case KindPrint:
		return Node{Kind: f.kind, Print: PrintPayload{PKind: PrintKind(f.flag), Value: f.a, Text: ident(f.nameOff, f.nameLen)}}, nil
	default:
		return Node{}, &WireError{Msg: fmt.Sprintf("unsupported node kind %d", f.kind)}
	}
}

package runtimeabi

import "testing"

func TestInsertAndDetectCollision(t *testing.T) {
	tab := NewCollisionTable()
	idx, err := tab.Insert(Timeline{ID: 1, Target: 0x1000, Strategy: StrategyBounce})
	if err != nil {
		t.Fatal(err)
	}

	found, ok := tab.DetectCollision(0x1000)
	if !ok || found != idx {
		t.Fatalf("want collision at slot %d, got %d (ok=%v)", idx, found, ok)
	}

	if _, ok := tab.DetectCollision(0x2000); ok {
		t.Fatal("unexpected collision at an unused target")
	}
}

func TestBounceRewritesTarget(t *testing.T) {
	tab := NewCollisionTable()
	idx, _ := tab.Insert(Timeline{ID: 1, Target: 0x1000, Strategy: StrategyBounce})

	if !tab.Bounce(idx, 0x9999) {
		t.Fatal("bounce reported failure")
	}
	if tab.slots[idx].Target != 0x9999 {
		t.Fatalf("want rewritten target 0x9999, got %#x", tab.slots[idx].Target)
	}
}

func TestMergeCopiesPayload(t *testing.T) {
	tab := NewCollisionTable()
	idx, _ := tab.Insert(Timeline{ID: 1, Target: 0x1000, Strategy: StrategyMerge})

	var incoming [256]byte
	incoming[0] = 0xAB
	incoming[255] = 0xCD
	tab.Merge(idx, incoming)

	if tab.slots[idx].Data[0] != 0xAB || tab.slots[idx].Data[255] != 0xCD {
		t.Fatal("merge did not copy the incoming payload")
	}
}

func TestQueueChainsBehindHead(t *testing.T) {
	tab := NewCollisionTable()
	head, _ := tab.Insert(Timeline{ID: 1, Target: 0x1000, Strategy: StrategyQueue})

	second, err := tab.Queue(head, Timeline{ID: 2, Target: 0x1000, Strategy: StrategyQueue})
	if err != nil {
		t.Fatal(err)
	}
	if tab.slots[head].Next != uint64(second)+1 {
		t.Fatalf("head.Next should point at slot %d, got chain value %d", second, tab.slots[head].Next)
	}

	third, err := tab.Queue(head, Timeline{ID: 3, Target: 0x1000, Strategy: StrategyQueue})
	if err != nil {
		t.Fatal(err)
	}
	if tab.slots[second].Next != uint64(third)+1 {
		t.Fatal("queue should append at the tail of the existing chain, not overwrite the head")
	}
}

func TestCollisionTableExhaustion(t *testing.T) {
	tab := NewCollisionTable()
	for i := 0; i < MaxTimelines; i++ {
		if _, err := tab.Insert(Timeline{ID: uint64(i), Target: uint64(i)}); err != nil {
			t.Fatalf("unexpected exhaustion at slot %d", i)
		}
	}
	if _, err := tab.Insert(Timeline{ID: 9999, Target: 9999}); err == nil {
		t.Fatal("want error inserting into a full collision table")
	}
}

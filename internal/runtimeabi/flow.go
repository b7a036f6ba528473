package runtimeabi

import "sync"

// MaxFlows is the fixed flow-table capacity of spec.md §3.
const MaxFlows = 128

// FlowKind distinguishes a permanent timeline from a rate-limited one.
type FlowKind uint8

const (
	FlowPermanent FlowKind = iota
	FlowRateLimited
)

// FlowControl is one recurring-flow slot.
type FlowControl struct {
	ID         uint32
	TimelineID uint32
	Kind       FlowKind
	RateHz     uint32
	LastCycle  uint64
	NextCycle  uint64
	Active     bool
	Paused     bool
}

// FlowTable is spec.md §3's flow-control table. should_execute_flow's
// NextCycle field is written only by the owning scheduler thread, per
// spec.md §5's single-writer invariant — FlowTable itself still takes a
// mutex around the table-wide slot scan in RegisterPermanentTimeline,
// but per-flow polling in ShouldExecuteFlow assumes single-writer use.
type FlowTable struct {
	mu    sync.Mutex
	slots [MaxFlows]FlowControl
}

// NewFlowTable returns an empty table.
func NewFlowTable() *FlowTable {
	return &FlowTable{}
}

func cyclesPerTick(clock Clock, rateHz uint32) uint64 {
	if rateHz == 0 {
		return 0
	}
	return clock.FrequencyHz() / uint64(rateHz)
}

// RegisterPermanentTimeline allocates a flow slot for timelineID. A
// rateHz of 0 means unlimited (FlowPermanent); otherwise the flow is
// rate-limited and its first NextCycle is now + cyclesPerTick (spec.md
// §4.7), using clock rather than a hardcoded TSC frequency (spec.md §9).
func (t *FlowTable) RegisterPermanentTimeline(timelineID uint32, rateHz uint32, clock Clock) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].Active {
			continue
		}
		fc := FlowControl{ID: uint32(i), TimelineID: timelineID, Active: true}
		if rateHz > 0 {
			now := clock.NowCycles()
			fc.Kind = FlowRateLimited
			fc.RateHz = rateHz
			fc.LastCycle = now
			fc.NextCycle = now + cyclesPerTick(clock, rateHz)
		} else {
			fc.Kind = FlowPermanent
		}
		t.slots[i] = fc
		return uint32(i)
	}
	return NoID
}

// ShouldExecuteFlow is the per-poll scheduling decision of spec.md §4.7.
// Permanent flows always fire (while active and unpaused); rate-limited
// flows fire once NowCycles reaches NextCycle, then re-arm it one tick
// after the current cycle count — the floor spec.md §5 documents ("never execute more than once
// per cycles_per_tick... no ceiling: a missed tick is not made up").
func (t *FlowTable) ShouldExecuteFlow(flowID uint32, clock Clock) (bool, error) {
	if flowID >= MaxFlows {
		return false, &Error{Op: "should_execute_flow", Msg: "flow id out of range"}
	}
	fc := &t.slots[flowID]
	if !fc.Active || fc.Paused {
		return false, nil
	}
	if fc.Kind == FlowPermanent {
		return true, nil
	}

	now := clock.NowCycles()
	if now < fc.NextCycle {
		return false, nil
	}
	fc.LastCycle = now
	// Re-anchor on now rather than incrementing the old NextCycle, so a
	// gap of several missed ticks collapses into a single catch-up fire
	// instead of several back-to-back fires on the next few polls.
	fc.NextCycle = now + cyclesPerTick(clock, fc.RateHz)
	return true, nil
}

// PauseFlow sets the sticky pause bit.
func (t *FlowTable) PauseFlow(flowID uint32) error {
	if flowID >= MaxFlows {
		return &Error{Op: "pause_flow", Msg: "flow id out of range"}
	}
	t.slots[flowID].Paused = true
	return nil
}

// ResumeFlow clears the pause bit and, when newRate is nonzero,
// re-derives the flow's rate and next tick from clock.
func (t *FlowTable) ResumeFlow(flowID uint32, newRate uint32, clock Clock) error {
	if flowID >= MaxFlows {
		return &Error{Op: "resume_flow", Msg: "flow id out of range"}
	}
	fc := &t.slots[flowID]
	fc.Paused = false
	if newRate > 0 {
		now := clock.NowCycles()
		fc.Kind = FlowRateLimited
		fc.RateHz = newRate
		fc.LastCycle = now
		fc.NextCycle = now + cyclesPerTick(clock, newRate)
	} else {
		fc.Kind = FlowPermanent
	}
	return nil
}

// TerminateFlow is an idempotent sticky bit that takes effect on the next
// ShouldExecuteFlow poll (spec.md §5).
func (t *FlowTable) TerminateFlow(flowID uint32) error {
	if flowID >= MaxFlows {
		return &Error{Op: "terminate_flow", Msg: "flow id out of range"}
	}
	t.slots[flowID].Active = false
	return nil
}

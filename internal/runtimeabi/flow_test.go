package runtimeabi

import "testing"

func TestPermanentFlowAlwaysExecutes(t *testing.T) {
	tab := NewFlowTable()
	clk := NewFakeClock(1_000_000_000)
	id := tab.RegisterPermanentTimeline(1, 0, clk)

	for i := 0; i < 3; i++ {
		ok, err := tab.ShouldExecuteFlow(id, clk)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("permanent flow should always fire, iteration %d", i)
		}
	}
}

func TestRateLimitedFlowRespectsFloor(t *testing.T) {
	tab := NewFlowTable()
	clk := NewFakeClock(1000)                        // 1000 Hz clock
	id := tab.RegisterPermanentTimeline(1, 100, clk) // 100 Hz -> 10 cycles/tick

	// Registration sets the first NextCycle to now+10; nothing should
	// fire before that boundary is reached.
	if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
		t.Fatal("flow fired before its first tick boundary")
	}

	clk.Advance(9)
	if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
		t.Fatal("flow fired one cycle before its tick boundary")
	}

	clk.Advance(1)
	ok, err := tab.ShouldExecuteFlow(id, clk)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("flow should fire once the full tick has elapsed")
	}

	// Immediately polling again, with no further cycles elapsed, must not fire.
	if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
		t.Fatal("flow fired twice within one tick")
	}
}

func TestRateLimitedFlowMissedTickIsNotMadeUp(t *testing.T) {
	tab := NewFlowTable()
	clk := NewFakeClock(1000)
	id := tab.RegisterPermanentTimeline(1, 100, clk)

	tab.ShouldExecuteFlow(id, clk) // poll before the first tick is due; does not fire

	clk.Advance(35) // 3.5 ticks elapse with no polling in between
	fired := 0
	for i := 0; i < 3; i++ {
		if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("a gap of several ticks should fire once across all polls, got %d fires", fired)
	}
}

func TestPauseResumeTerminateFlow(t *testing.T) {
	tab := NewFlowTable()
	clk := NewFakeClock(1000)
	id := tab.RegisterPermanentTimeline(1, 0, clk)

	if err := tab.PauseFlow(id); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
		t.Fatal("paused flow should not execute")
	}

	if err := tab.ResumeFlow(id, 0, clk); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tab.ShouldExecuteFlow(id, clk); !ok {
		t.Fatal("resumed permanent flow should execute")
	}

	if err := tab.TerminateFlow(id); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tab.ShouldExecuteFlow(id, clk); ok {
		t.Fatal("terminated flow should not execute")
	}
}

func TestFlowOutOfRange(t *testing.T) {
	tab := NewFlowTable()
	clk := NewFakeClock(1000)
	if _, err := tab.ShouldExecuteFlow(MaxFlows, clk); err == nil {
		t.Fatal("expected error for out-of-range flow id")
	}
}

package runtimeabi

import (
	"time"

	"golang.org/x/sys/unix"
)

// Clock abstracts the cycle-counter source should_execute_flow polls
// against. spec.md §9 flags the hardcoded "3 GHz TSC" assumption as an
// open question; Blaze's answer is to accept an injected Clock instead
// of guessing a frequency, per the decision recorded in SPEC_FULL.md §6.
type Clock interface {
	// NowCycles returns a monotonically increasing counter in the same
	// units FrequencyHz is denominated in.
	NowCycles() uint64
	// FrequencyHz is the number of NowCycles units per second.
	FrequencyHz() uint64
}

// FakeClock is a manually advanceable Clock for tests.
type FakeClock struct {
	cycles uint64
	hz     uint64
}

// NewFakeClock returns a FakeClock starting at cycle 0.
func NewFakeClock(hz uint64) *FakeClock {
	return &FakeClock{hz: hz}
}

func (c *FakeClock) NowCycles() uint64   { return c.cycles }
func (c *FakeClock) FrequencyHz() uint64 { return c.hz }

// Advance moves the clock forward by n cycles.
func (c *FakeClock) Advance(n uint64) { c.cycles += n }

// SystemClock derives a cycle counter from CLOCK_MONOTONIC, calibrated
// once at construction against a short busy-wait rather than assuming a
// fixed TSC frequency.
type SystemClock struct {
	start time.Time
	hz    uint64
}

// NewSystemClock returns a SystemClock. A zero hz triggers calibration.
func NewSystemClock(hz uint64) *SystemClock {
	if hz == 0 {
		hz = calibrateHz()
	}
	return &SystemClock{start: time.Now(), hz: hz}
}

func (c *SystemClock) NowCycles() uint64 {
	elapsed := time.Since(c.start)
	return uint64(elapsed.Seconds() * float64(c.hz))
}

func (c *SystemClock) FrequencyHz() uint64 { return c.hz }

// calibrateHz estimates a cycle rate by timing a fixed amount of busy
// work against CLOCK_MONOTONIC, rather than hardcoding spec.md §9's 3 GHz
// constant. This is an estimate, not a true TSC frequency read, but it
// is derived at startup instead of assumed.
func calibrateHz() uint64 {
	var start, end unix.Timespec
	const spins = 50_000_000

	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &start)
	x := uint64(1)
	for i := 0; i < spins; i++ {
		x = x*2862933555777941757 + 3037000493
	}
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &end)
	_ = x // defeat dead-code elimination of the calibration loop

	elapsedNs := (end.Sec-start.Sec)*1_000_000_000 + (end.Nsec - start.Nsec)
	if elapsedNs <= 0 {
		return 3_000_000_000
	}
	return uint64(float64(spins) / (float64(elapsedNs) / 1e9))
}

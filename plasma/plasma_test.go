package plasma

import (
	"sync"
	"testing"
)

// testConfig mirrors the hysteresis fixture: open at 0.8, hold above 0.5,
// latch at 0.95, tolerate 3 dry ticks.
func testConfig() ThyristorConfig {
	return ThyristorConfig{
		GateThresh:     0.8,
		HoldingThresh:  0.5,
		PerfectThresh:  0.95,
		EntropyDrought: 3,
	}
}

func mustGate(t *testing.T, cfg ThyristorConfig) *SDT {
	t.Helper()
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	return g
}

// TestConfigValidation checks construction-time rejection: out-of-range,
// NaN, thresholds above perfect, zero drought. Never silently clamped.
func TestConfigValidation(t *testing.T) {
	bad := []ThyristorConfig{
		{GateThresh: -0.1, HoldingThresh: 0.4, PerfectThresh: 0.9, EntropyDrought: 3},
		{GateThresh: 1.5, HoldingThresh: 0.4, PerfectThresh: 0.9, EntropyDrought: 3},
		{GateThresh: 0.7, HoldingThresh: 0.4, PerfectThresh: 1.2, EntropyDrought: 3},
		{GateThresh: 0.95, HoldingThresh: 0.4, PerfectThresh: 0.9, EntropyDrought: 3}, // gate above perfect
		{GateThresh: 0.7, HoldingThresh: 0.92, PerfectThresh: 0.9, EntropyDrought: 3}, // holding above perfect
		{GateThresh: 0.7, HoldingThresh: 0.4, PerfectThresh: 0.9, EntropyDrought: 0},
	}
	for _, cfg := range bad {
		if _, err := New(cfg); err != ErrBadThresholds {
			t.Errorf("New(%+v) = %v, want ErrBadThresholds", cfg, err)
		}
	}
	if _, err := New(DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

// TestInitialState confirms the zeroed Blocked start.
func TestInitialState(t *testing.T) {
	g := mustGate(t, testConfig())
	snap := g.Snapshot()
	if snap.State != Blocked || snap.Entropy != 0 || snap.TriggerCount != 0 ||
		snap.SupersessionCount != 0 || snap.LastRingStrength != 0 {
		t.Fatalf("fresh gate snapshot: %+v", snap)
	}
	if g.ShouldProceed() {
		t.Fatal("fresh gate must not proceed")
	}
}

// TestHysteresis walks the fixture sequence: two 0.9 signals plus Trigger
// reach Conducting; one 0.3 tick does NOT reset (entropy increments); only
// after EntropyDrought consecutive sub-holding ticks does the gate fall back
// to Blocked, preserving the trigger count.
func TestHysteresis(t *testing.T) {
	g := mustGate(t, testConfig())

	g.Resonate(0.9, 0) // Blocked → Priming (clears gate threshold)
	if st := g.State(); st != Priming {
		t.Fatalf("after first 0.9: %v, want priming", st)
	}
	g.Resonate(0.9, 0) // Priming → Conducting
	g.Trigger()        // already conducting: no-op
	if st := g.State(); st != Conducting {
		t.Fatalf("after second 0.9 + trigger: %v, want conducting", st)
	}
	trig := g.Snapshot().TriggerCount

	g.Resonate(0.3, 0) // below holding: entropy tick, no reset yet
	snap := g.Snapshot()
	if snap.State != Conducting {
		t.Fatalf("single sub-holding tick reset the gate: %v", snap.State)
	}
	if snap.Entropy != 1 {
		t.Fatalf("entropy = %d after one dry tick, want 1", snap.Entropy)
	}

	g.Resonate(0.3, 0)
	g.Resonate(0.3, 0) // third dry tick reaches the drought
	snap = g.Snapshot()
	if snap.State != Blocked {
		t.Fatalf("after drought: %v, want blocked", snap.State)
	}
	if snap.TriggerCount != trig {
		t.Fatalf("drought reset clobbered trigger count: %d → %d", trig, snap.TriggerCount)
	}
	if snap.Entropy == 0 {
		t.Fatal("drought reset must preserve entropy for audit")
	}
}

// TestRequalifyClearsEntropy confirms that a holding-level signal between
// dry ticks restarts the drought countdown.
func TestRequalifyClearsEntropy(t *testing.T) {
	g := mustGate(t, testConfig())
	g.Trigger()

	g.Resonate(0.3, 0)
	g.Resonate(0.3, 0)
	g.Resonate(0.6, 0) // requalifies: above holding
	if snap := g.Snapshot(); snap.State != Conducting || snap.Entropy != 0 {
		t.Fatalf("requalify: %+v", snap)
	}

	// The drought must now take three fresh ticks again.
	g.Resonate(0.3, 0)
	g.Resonate(0.3, 0)
	if st := g.State(); st != Conducting {
		t.Fatalf("two dry ticks after requalify reset the gate: %v", st)
	}
	g.Resonate(0.3, 0)
	if st := g.State(); st != Blocked {
		t.Fatalf("third dry tick should reset: %v", st)
	}
}

// TestPrimeTriggerPaths covers the explicit arming path: Prime arms only
// from Blocked, a qualifying Resonate conducts from Priming, Reset disarms.
func TestPrimeTriggerPaths(t *testing.T) {
	g := mustGate(t, testConfig())

	g.Prime()
	if st := g.State(); st != Priming {
		t.Fatalf("after prime: %v", st)
	}
	g.Reset()
	if st := g.State(); st != Blocked {
		t.Fatalf("reset from priming: %v", st)
	}

	g.Prime()
	g.Resonate(0.85, 0) // qualifies: Priming → Conducting
	snap := g.Snapshot()
	if snap.State != Conducting || snap.TriggerCount != 1 {
		t.Fatalf("prime+resonate: %+v", snap)
	}

	// Prime while conducting is a no-op.
	g.Prime()
	if st := g.State(); st != Conducting {
		t.Fatalf("prime while conducting moved to %v", st)
	}
}

// TestSubGateEntropyWhileBlocked confirms weak signals only tick entropy.
func TestSubGateEntropyWhileBlocked(t *testing.T) {
	g := mustGate(t, testConfig())
	for i := 0; i < 5; i++ {
		g.Resonate(0.2, 0)
	}
	snap := g.Snapshot()
	if snap.State != Blocked || snap.Entropy != 5 || snap.TriggerCount != 0 {
		t.Fatalf("blocked entropy accounting: %+v", snap)
	}
}

// TestLatchImmunity drives the gate to Latched and then feeds an arbitrary
// number of zero-strength ticks: the state must not move until Reset.
func TestLatchImmunity(t *testing.T) {
	g := mustGate(t, testConfig())
	g.Resonate(0.96, 0) // ≥ perfect from Blocked: latches
	if st := g.State(); st != Latched {
		t.Fatalf("after 0.96: %v, want latched", st)
	}
	if !g.ShouldProceed() {
		t.Fatal("latched gate must proceed")
	}

	for i := 0; i < 100; i++ {
		g.Resonate(0.0, 0)
	}
	if st := g.State(); st != Latched {
		t.Fatalf("zero-strength ticks broke the latch: %v", st)
	}

	g.Reset()
	if st := g.State(); st != Blocked {
		t.Fatalf("reset from latched: %v", st)
	}
	if g.ShouldProceed() {
		t.Fatal("reset gate must not proceed")
	}
	// Releasing the latch keeps the final baseline visible to telemetry.
	if s := g.Snapshot().LastRingStrength; s != 0.96 {
		t.Fatalf("post-reset strength = %f, want the 0.96 baseline", s)
	}
}

// TestConductingToLatched checks the in-conduction promotion on a perfect
// signal.
func TestConductingToLatched(t *testing.T) {
	g := mustGate(t, testConfig())
	g.Trigger()
	g.Resonate(0.95, 0)
	if st := g.State(); st != Latched {
		t.Fatalf("perfect signal while conducting: %v, want latched", st)
	}
}

// TestSupersessionCounting verifies the while-latched accounting: exactly
// one count per signal that exceeds the cached strength, none for weaker
// signals, state untouched throughout.
func TestSupersessionCounting(t *testing.T) {
	g := mustGate(t, testConfig())
	g.Resonate(0.95, 0) // latch with cached strength 0.95

	g.Resonate(0.97, 0) // supersedes
	snap := g.Snapshot()
	if snap.SupersessionCount != 1 {
		t.Fatalf("supersession count = %d, want 1", snap.SupersessionCount)
	}
	if snap.LastRingStrength != 0.97 {
		t.Fatalf("cached strength = %f, want 0.97", snap.LastRingStrength)
	}

	g.Resonate(0.96, 0) // weaker than cached: no count
	g.Resonate(0.97, 0) // equal: no count
	snap = g.Snapshot()
	if snap.SupersessionCount != 1 {
		t.Fatalf("non-superseding signals counted: %d", snap.SupersessionCount)
	}
	if snap.State != Latched {
		t.Fatalf("supersession moved state: %v", snap.State)
	}

	g.Resonate(0.99, 0)
	if snap := g.Snapshot(); snap.SupersessionCount != 2 {
		t.Fatalf("second supersession: count = %d, want 2", snap.SupersessionCount)
	}
}

// TestSnapshotAngleTracking checks the delta angle rides along on every
// call, including while latched.
func TestSnapshotAngleTracking(t *testing.T) {
	g := mustGate(t, testConfig())
	g.Resonate(0.2, 1234)
	if snap := g.Snapshot(); snap.DeltaAngle != 1234 {
		t.Fatalf("angle = %d, want 1234", snap.DeltaAngle)
	}
	g.Resonate(0.96, 42)
	g.Resonate(0.0, 777) // latched: angle still tracks
	if snap := g.Snapshot(); snap.DeltaAngle != 777 {
		t.Fatalf("latched angle = %d, want 777", snap.DeltaAngle)
	}
}

// TestStepTable pins the pure transition function against the documented
// rule table, independent of the atomic plumbing.
func TestStepTable(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		name     string
		st       State
		ent      uint32
		s        float32
		wantSt   State
		wantEnt  uint32
		wantCond bool
	}{
		{"blocked weak", Blocked, 0, 0.2, Blocked, 1, false},
		{"blocked gate", Blocked, 4, 0.8, Priming, 0, false},
		{"blocked perfect", Blocked, 4, 0.95, Latched, 0, true},
		{"priming weak", Priming, 1, 0.2, Priming, 2, false},
		{"priming gate", Priming, 7, 0.85, Conducting, 0, true},
		{"priming perfect", Priming, 7, 0.99, Latched, 0, true},
		{"conducting hold", Conducting, 2, 0.6, Conducting, 0, false},
		{"conducting dry", Conducting, 0, 0.3, Conducting, 1, false},
		{"conducting drought", Conducting, 2, 0.3, Blocked, 3, false},
		{"conducting perfect", Conducting, 1, 0.95, Latched, 0, false},
	}
	for _, tc := range cases {
		st, ent, cond := step(cfg, tc.st, tc.ent, tc.s)
		if st != tc.wantSt || ent != tc.wantEnt || cond != tc.wantCond {
			t.Errorf("%s: step → (%v,%d,%v), want (%v,%d,%v)",
				tc.name, st, ent, cond, tc.wantSt, tc.wantEnt, tc.wantCond)
		}
	}
}

// TestConcurrentResonate hammers one gate from many goroutines and checks
// the final state is internally consistent: serialized transitions, no
// torn packed word, counters within bounds.
func TestConcurrentResonate(t *testing.T) {
	g := mustGate(t, testConfig())

	const (
		workers = 8
		perW    = 5000
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				// Mixed strengths: weak, holding, gate, perfect.
				switch (w + i) & 3 {
				case 0:
					g.Resonate(0.2, uint16(i))
				case 1:
					g.Resonate(0.6, uint16(i))
				case 2:
					g.Resonate(0.85, uint16(i))
				default:
					g.Resonate(0.97, uint16(i))
				}
			}
		}(w)
	}
	wg.Wait()

	snap := g.Snapshot()
	// Perfect signals appeared, so the gate must have latched at some point
	// and can only still be latched (nothing resets it here). The baseline
	// commits atomically with the latch, so it is exactly the 0.97 that
	// latched, no matter which interleaving ran.
	if snap.State != Latched {
		t.Fatalf("final state %v, want latched", snap.State)
	}
	if snap.LastRingStrength != 0.97 {
		t.Fatalf("latched baseline %f, want 0.97", snap.LastRingStrength)
	}
	if snap.TriggerCount == 0 {
		t.Fatal("no conduction recorded despite qualifying signals")
	}
	// Every later 0.97 equals the baseline: never a supersession.
	if snap.SupersessionCount != 0 {
		t.Fatalf("equal-strength signals counted as supersessions: %d", snap.SupersessionCount)
	}
}

// TestLatchBaselineUnderContention races one latching signal against one weak
// signal on a fresh gate, many rounds. Whenever the pair ends Latched, the
// baseline must be the latching strength: no serialization of {0.95, 0.3}
// ever records 0.3 on a latched gate, and no later mediocre signal may count
// as a supersession against a corrupted baseline.
func TestLatchBaselineUnderContention(t *testing.T) {
	const rounds = 20000
	for i := 0; i < rounds; i++ {
		g := mustGate(t, testConfig())

		var start, done sync.WaitGroup
		start.Add(1)
		done.Add(2)
		go func() {
			defer done.Done()
			start.Wait()
			g.Resonate(0.95, 0)
		}()
		go func() {
			defer done.Done()
			start.Wait()
			g.Resonate(0.3, 0)
		}()
		start.Done()
		done.Wait()

		if g.State() != Latched {
			t.Fatalf("round %d: 0.95 did not latch: %v", i, g.State())
		}
		if s := g.Snapshot().LastRingStrength; s < 0.95 {
			t.Fatalf("round %d: latched with baseline %f", i, s)
		}
		g.Resonate(0.5, 0)
		if n := g.Snapshot().SupersessionCount; n != 0 {
			t.Fatalf("round %d: mediocre signal counted %d supersessions", i, n)
		}
	}
}

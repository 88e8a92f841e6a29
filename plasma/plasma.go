// ============================================================================
// SDT GATE - LOCK-FREE HYSTERESIS ADMISSION STATE MACHINE
// ============================================================================
//
// Software-Defined Thyristor: a Schmitt-trigger-style gate that tracks
// whether the system is currently conducting (admitting escalation) based on
// accumulated signal strength. Deliberately resistant to single-sample
// noise: opening requires clearing the gate threshold, staying open only
// requires the lower holding threshold, and a near-perfect signal latches
// the gate open until an explicit reset.
//
// Memory model (the crux of correctness):
//   - Everything a transition reads and writes together — state, entropy,
//     delta angle — lives in ONE 64-bit word:
//
//         bits  0..31  entropy      (ticks since last qualifying signal)
//         bits 32..47  delta angle  (raw uint16, 0–360° encoding)
//         bits 48..50  sdt state    (Blocked/Priming/Conducting/Latched)
//
//     Every transition is a single CompareAndSwap on this word, so any
//     number of concurrent Resonate callers serialize into a consistent,
//     totally ordered transition history with no lost updates.
//   - While Latched the drought timer is frozen, so bits 0..31 are
//     repurposed: they carry the float32 bits of the latched baseline
//     strength instead of entropy. Latching, supersession and the baseline
//     commit in the same CAS; no interleaving of concurrent Resonate calls
//     can publish a latch without its baseline, or lower the baseline once
//     latched.
//   - lastStrength caches the most recent score while NOT latched; trigger
//     and supersession counts are independent monotonic atomics. The cache
//     is written only after winning the transition CAS and never while the
//     gate is latched. Snapshot reads the counters first and the packed
//     word last so the (state, angle, entropy/baseline) trio is never torn.
//
// No locks anywhere; nothing here blocks or yields.

package plasma

import (
	"errors"
	"math"
	"sync/atomic"

	"atlas/constants"
)

// State enumerates the SDT conduction states.
type State uint8

const (
	Blocked    State = iota // initial: ignoring sub-gate signals
	Priming                 // armed by Prime(); next qualifying signal conducts
	Conducting              // admitting escalation while holding threshold clears
	Latched                 // locked open; immune to the drought timer
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case Blocked:
		return "blocked"
	case Priming:
		return "priming"
	case Conducting:
		return "conducting"
	case Latched:
		return "latched"
	}
	return "unknown"
}

// ErrBadThresholds reports a malformed ThyristorConfig at construction time.
var ErrBadThresholds = errors.New("plasma: malformed thyristor thresholds")

// ThyristorConfig is the immutable gate tuning. Thyristor discipline:
// HoldingThresh sits at or below GateThresh (the hysteresis band), and
// PerfectThresh caps both.
type ThyristorConfig struct {
	GateThresh     float32 // strength required to open
	HoldingThresh  float32 // strength required to stay open
	PerfectThresh  float32 // strength that latches
	EntropyDrought uint32  // sub-holding ticks tolerated before reset
}

// DefaultConfig returns the compiled-in tuning used by tests and bare
// startup when no configuration source is wired.
func DefaultConfig() ThyristorConfig {
	return ThyristorConfig{
		GateThresh:     constants.DefaultGateThresh,
		HoldingThresh:  constants.DefaultHoldingThresh,
		PerfectThresh:  constants.DefaultPerfectThresh,
		EntropyDrought: constants.DefaultEntropyDrought,
	}
}

// Validate rejects out-of-range or inverted thresholds. Never clamps.
func (c ThyristorConfig) Validate() error {
	for _, v := range [3]float32{c.GateThresh, c.HoldingThresh, c.PerfectThresh} {
		if v < 0 || v > 1 || v != v { // v != v: NaN
			return ErrBadThresholds
		}
	}
	if c.GateThresh > c.PerfectThresh || c.HoldingThresh > c.PerfectThresh {
		return ErrBadThresholds
	}
	if c.EntropyDrought == 0 {
		return ErrBadThresholds
	}
	return nil
}

// Packed-word layout.
const (
	entropyMask  = 0xffffffff
	angleShift   = 32
	angleMask    = 0xffff
	stateShift   = 48
	stateMask    = 0x7
	entropySatur = entropyMask // saturate rather than wrap into the angle bits
)

//go:inline
func pack(st State, angle uint16, entropy uint32) uint64 {
	return uint64(entropy) |
		uint64(angle)<<angleShift |
		uint64(st)<<stateShift
}

//go:inline
func unpack(w uint64) (State, uint16, uint32) {
	return State(w >> stateShift & stateMask),
		uint16(w >> angleShift & angleMask),
		uint32(w & entropyMask)
}

// SDT is the shared gate. One instance per bus; any thread may drive it.
type SDT struct {
	cfg ThyristorConfig

	_      [64]byte // isolate the hot word from the config bytes
	packed uint64   // state | delta angle | entropy-or-latched-baseline (atomic)
	//lint:ignore U1000 padding keeps the CAS word off the counter lines
	_pad         [56]byte
	lastStrength uint32 // float32 bits of the cached score while not latched (atomic)
	trigger      uint32 // times the gate entered conduction (atomic)
	supersession uint32 // stronger-than-latched signals observed (atomic)
}

// New validates cfg and returns a Blocked, zeroed gate.
func New(cfg ThyristorConfig) (*SDT, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SDT{cfg: cfg}, nil
}

// Config returns the immutable tuning.
func (g *SDT) Config() ThyristorConfig {
	return g.cfg
}

// ============================================================================
// TRANSITIONS
// ============================================================================

// Resonate feeds one scored signal tick into the gate. Safe from any number
// of concurrent callers; each call is exactly one serialized transition.
//
// Rules:
//   - Blocked:    ≥ perfect → Latched; ≥ gate → Priming; else entropy++
//   - Priming:    ≥ perfect → Latched; ≥ gate → Conducting; else entropy++
//   - Conducting: ≥ perfect → Latched; ≥ holding → hold (entropy=0);
//     below holding entropy++ and after EntropyDrought such
//     ticks the state falls back to Blocked (entropy and the
//     trigger count survive as audit history)
//   - Latched:    state frozen; a strength above the latched baseline counts
//     a supersession and ratchets the baseline; only Reset()
//     releases the latch
func (g *SDT) Resonate(strength float32, deltaAngle uint16) State {
	for {
		old := atomic.LoadUint64(&g.packed)
		st, _, ent := unpack(old)

		if st == Latched {
			// While latched, the entropy bits hold the baseline strength, so
			// a supersession is one CAS on the packed word: baseline, angle
			// and state move together and can never be observed apart.
			base := math.Float32frombits(ent)
			if strength > base {
				if atomic.CompareAndSwapUint64(&g.packed, old, pack(Latched, deltaAngle, math.Float32bits(strength))) {
					atomic.AddUint32(&g.supersession, 1)
					return Latched
				}
				continue
			}
			// Angle still tracks the latest observation.
			if atomic.CompareAndSwapUint64(&g.packed, old, pack(Latched, deltaAngle, ent)) {
				return Latched
			}
			continue
		}

		newSt, newEnt, conducted := step(g.cfg, st, ent, strength)
		word := pack(newSt, deltaAngle, newEnt)
		if newSt == Latched {
			// A latch commits with its baseline in the same word.
			word = pack(Latched, deltaAngle, math.Float32bits(strength))
		}
		if atomic.CompareAndSwapUint64(&g.packed, old, word) {
			if newSt != Latched {
				g.publishStrength(strength)
			}
			if conducted {
				atomic.AddUint32(&g.trigger, 1)
			}
			return newSt
		}
	}
}

// publishStrength installs the cached score after a won non-latching
// transition. A plain store would race a concurrent latch: a weak caller
// that loaded a pre-latch state could land its store after the latch and
// record a strength no serialization of the two calls permits. The loop
// rechecks the live state and abandons the write once the gate is latched
// (the baseline then lives in the packed word and only ratchets upward).
func (g *SDT) publishStrength(strength float32) {
	bits := math.Float32bits(strength)
	for {
		prev := atomic.LoadUint32(&g.lastStrength)
		if st, _, _ := unpack(atomic.LoadUint64(&g.packed)); st == Latched {
			return
		}
		if atomic.CompareAndSwapUint32(&g.lastStrength, prev, bits) {
			return
		}
	}
}

// step computes one hysteresis transition. Pure; shared by Resonate and the
// tests that pin the transition table.
func step(cfg ThyristorConfig, st State, ent uint32, s float32) (State, uint32, bool) {
	switch st {
	case Blocked:
		switch {
		case s >= cfg.PerfectThresh:
			return Latched, 0, true
		case s >= cfg.GateThresh:
			return Priming, 0, false
		}
		return Blocked, bump(ent), false

	case Priming:
		switch {
		case s >= cfg.PerfectThresh:
			return Latched, 0, true
		case s >= cfg.GateThresh:
			return Conducting, 0, true
		}
		return Priming, bump(ent), false

	case Conducting:
		switch {
		case s >= cfg.PerfectThresh:
			return Latched, 0, false
		case s >= cfg.HoldingThresh:
			return Conducting, 0, false
		}
		ent = bump(ent)
		if ent >= cfg.EntropyDrought {
			return Blocked, ent, false
		}
		return Conducting, ent, false
	}
	return st, ent, false
}

//go:inline
func bump(ent uint32) uint32 {
	if ent == entropySatur {
		return ent
	}
	return ent + 1
}

// Prime arms a Blocked gate: the next qualifying Resonate (or an explicit
// Trigger) conducts. No-op in any other state.
func (g *SDT) Prime() {
	for {
		old := atomic.LoadUint64(&g.packed)
		st, angle, ent := unpack(old)
		if st != Blocked {
			return
		}
		if atomic.CompareAndSwapUint64(&g.packed, old, pack(Priming, angle, ent)) {
			return
		}
	}
}

// Trigger is the operator-forced open: Blocked or Priming jumps straight to
// Conducting and counts a trigger. Used at startup and in tests. No-op once
// already conducting or latched.
func (g *SDT) Trigger() {
	for {
		old := atomic.LoadUint64(&g.packed)
		st, angle, _ := unpack(old)
		if st == Conducting || st == Latched {
			return
		}
		if atomic.CompareAndSwapUint64(&g.packed, old, pack(Conducting, angle, 0)) {
			atomic.AddUint32(&g.trigger, 1)
			return
		}
	}
}

// Reset forces the gate back to Blocked from any state — the only exit from
// Latched. Entropy restarts (a reset opens a new observation epoch); the
// trigger and supersession counters survive as audit history. Releasing a
// latch carries its baseline into the strength cache so telemetry keeps the
// final reading.
func (g *SDT) Reset() {
	for {
		old := atomic.LoadUint64(&g.packed)
		st, angle, ent := unpack(old)
		if atomic.CompareAndSwapUint64(&g.packed, old, pack(Blocked, angle, 0)) {
			if st == Latched {
				atomic.StoreUint32(&g.lastStrength, ent)
			}
			return
		}
	}
}

// ============================================================================
// OBSERVATION
// ============================================================================

// GateSnapshot is a consistent copy of the gate for telemetry. While latched
// the drought timer is frozen, so Entropy reads 0 and LastRingStrength is
// the latched baseline.
type GateSnapshot struct {
	State             State
	DeltaAngle        uint16
	Entropy           uint32
	TriggerCount      uint32
	SupersessionCount uint32
	LastRingStrength  float32
}

// Snapshot returns the gate fields without participating in the transition
// protocol. Wait-free. The (state, delta angle, entropy/baseline) trio comes
// from a single load of the packed word so it can never be torn; the
// counters are independent monotonic values read alongside it.
func (g *SDT) Snapshot() GateSnapshot {
	strength := math.Float32frombits(atomic.LoadUint32(&g.lastStrength))
	trig := atomic.LoadUint32(&g.trigger)
	sup := atomic.LoadUint32(&g.supersession)
	st, angle, ent := unpack(atomic.LoadUint64(&g.packed))
	snap := GateSnapshot{
		State:             st,
		DeltaAngle:        angle,
		Entropy:           ent,
		TriggerCount:      trig,
		SupersessionCount: sup,
		LastRingStrength:  strength,
	}
	if st == Latched {
		snap.Entropy = 0
		snap.LastRingStrength = math.Float32frombits(ent)
	}
	return snap
}

// State returns the current conduction state. Wait-free, any thread.
func (g *SDT) State() State {
	st, _, _ := unpack(atomic.LoadUint64(&g.packed))
	return st
}

// ShouldProceed reports whether downstream consumers may escalate popped
// commands: true iff Conducting or Latched.
//
//go:inline
func (g *SDT) ShouldProceed() bool {
	st, _, _ := unpack(atomic.LoadUint64(&g.packed))
	return st == Conducting || st == Latched
}

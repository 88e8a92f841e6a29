// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Signal-Bus Tunables & Resonance Bands
//
// Purpose:
//   - Defines bus-wide constants for lane sizing, crystal capacity, and the
//     per-family resonance bands consumed by the scoring layer.
//   - Defines the delta-class degree boundaries shared by scoring and tests.
//
// Notes:
//   - Lane capacities are power-of-2 so the ring mask arithmetic stays valid.
//   - Band centers/tolerances are normalized to the circular [0,1) digest axis.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ──────────────────────────────── Lane Sizing ────────────────────────────────

const (
	// CommandLaneBits sizes each priority lane: 2^10 = 1,024 slots.
	// A lane slot is one Command (under a cache line); three lanes plus the
	// result lane stay well inside L2 so the consumer's drain loop never
	// leaves warm cache.
	CommandLaneBits = 10

	// CommandLaneSize is the per-lane slot count derived from CommandLaneBits.
	CommandLaneSize = 1 << CommandLaneBits

	// ResultLaneBits sizes the single result lane: 2^10 = 1,024 slots.
	// Results are produced by exactly one consumer thread, so the lane never
	// needs more headroom than the combined command lanes feeding it.
	ResultLaneBits = 10

	// ResultLaneSize is the result-lane slot count.
	ResultLaneSize = 1 << ResultLaneBits
)

// ─────────────────────────────── Polycrystal ─────────────────────────────────

const (
	// MaxCrystals bounds a Polycrystal. Eight keeps the per-crystal result
	// array small and the voting loop trivially branch-predictable;
	// configurations wanting more should compose two polycrystals at the
	// consumer instead.
	MaxCrystals = 8
)

// ─────────────────────────── Resonance Band Geometry ─────────────────────────

// Family band centers on the circular [0,1) digest axis. Centers are spread
// so neighboring families never share a band even at Orbital width.
const (
	OrbitalCenter       = 0.125
	GroundStationCenter = 0.375
	TarPitCenter        = 0.625
	SilentCenter        = 0.875
	AdaptiveCenter      = 0.250
)

// Family tolerance widths (half-band, same axis). Orbital is deliberately
// wide (survives environmental entropy), GroundStation narrow (low-jitter
// expectation), Silent near zero (only near-perfect matches ring), Adaptive
// holds a baseline that the profile's drift mean rescales at score time.
const (
	OrbitalTolerance       = 0.4500
	GroundStationTolerance = 0.1200
	TarPitTolerance        = 0.2000
	SilentTolerance        = 0.0020
	AdaptiveTolerance      = 0.1800
)

// Per-family implicit pass thresholds used by Unanimous/Majority voting.
const (
	OrbitalPass       = 0.30
	GroundStationPass = 0.55
	TarPitPass        = 0.60
	SilentPass        = 0.90
	AdaptivePass      = 0.40
)

// ─────────────────────────── Delta-Class Boundaries ──────────────────────────

// Degree boundaries for the coarse angular-deviation buckets. A decoded
// delta angle d buckets as: d < 2 → None, 2–10 → Micro, 10–25 → Soft,
// 25–60 → Hard, ≥60 → Critical.
const (
	MicroDegrees    = 2.0
	SoftDegrees     = 10.0
	HardDegrees     = 25.0
	CriticalDegrees = 60.0
)

// AngleScale converts a raw uint16 delta angle to degrees (360 / 65536).
const AngleScale = 360.0 / 65536.0

// ──────────────────────────────── Gate Defaults ──────────────────────────────

// Default thyristor thresholds used when no configuration source is wired
// (tests, bare startup). Chosen so a single clean signal opens the gate but
// does not latch: latching requires near-perfect resonance.
const (
	DefaultGateThresh     = 0.70
	DefaultHoldingThresh  = 0.40
	DefaultPerfectThresh  = 0.90
	DefaultEntropyDrought = 16
)

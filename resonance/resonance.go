// ============================================================================
// RESONANCE SCORING - DETERMINISTIC PAYLOAD/PROFILE MATCHING
// ============================================================================
//
// Pure scoring layer: maps an arbitrary payload plus an angular deviation
// onto a 0.0–1.0 ring strength and a coarse delta class. Every function here
// is referentially transparent — identical (payload, deltaAngle, profile)
// always yields identical output — which is what makes gate admission
// decisions reproducible and auditable after the fact.
//
// Mechanism:
//   - keccak-256 digest of the payload, truncated to 32 bits
//   - digest projected onto a circular [0,1) axis and compared against the
//     crystal family's band center; distance wraps at 0.5
//   - base strength = 1 − distance/tolerance, clamped to [0,1]
//   - TarPit inverts the base (rates suspicious out-of-band patterns highly)
//   - a monotonic angular penalty attenuates the base: larger delta angle,
//     lower confidence
//
// No shared state, no allocation, no I/O.

package resonance

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"atlas/constants"
)

// CrystalFamily names a resonance profile shape.
type CrystalFamily uint8

const (
	Orbital       CrystalFamily = iota // wide tolerance, survives high entropy
	GroundStation                      // narrow tolerance, low-jitter expectation
	TarPit                             // inverted scoring, rates suspicious patterns highly
	Silent                             // near-zero tolerance, only near-perfect matches ring
	Adaptive                           // tolerance rescaled by observed drift mean
)

// String returns the family name for diagnostics.
func (f CrystalFamily) String() string {
	switch f {
	case Orbital:
		return "orbital"
	case GroundStation:
		return "ground-station"
	case TarPit:
		return "tar-pit"
	case Silent:
		return "silent"
	case Adaptive:
		return "adaptive"
	}
	return "unknown"
}

// PassThreshold is the family's implicit strength bar used by Unanimous and
// Majority polycrystal voting.
func (f CrystalFamily) PassThreshold() float32 {
	switch f {
	case Orbital:
		return constants.OrbitalPass
	case GroundStation:
		return constants.GroundStationPass
	case TarPit:
		return constants.TarPitPass
	case Silent:
		return constants.SilentPass
	case Adaptive:
		return constants.AdaptivePass
	}
	return 1.0
}

// ResonanceProfile positions a crystal's expected band on the digest axis.
type ResonanceProfile struct {
	Center    float64 // band center on the circular [0,1) axis
	Tolerance float64 // half-band width on the same axis
	Drift     float64 // recent observed mean strength; Adaptive only
	Weight    float64 // relative weight under WeightedAverage voting
}

// DefaultProfile returns the family's compiled-in band geometry.
func DefaultProfile(f CrystalFamily) ResonanceProfile {
	switch f {
	case Orbital:
		return ResonanceProfile{Center: constants.OrbitalCenter, Tolerance: constants.OrbitalTolerance, Weight: 1}
	case GroundStation:
		return ResonanceProfile{Center: constants.GroundStationCenter, Tolerance: constants.GroundStationTolerance, Weight: 1}
	case TarPit:
		return ResonanceProfile{Center: constants.TarPitCenter, Tolerance: constants.TarPitTolerance, Weight: 1}
	case Silent:
		return ResonanceProfile{Center: constants.SilentCenter, Tolerance: constants.SilentTolerance, Weight: 1}
	case Adaptive:
		return ResonanceProfile{Center: constants.AdaptiveCenter, Tolerance: constants.AdaptiveTolerance, Weight: 1}
	}
	return ResonanceProfile{Weight: 1}
}

// Crystal is an immutable (family, profile) pair. Cheap to copy, stateless;
// construct fresh per evaluation or share freely across threads.
type Crystal struct {
	Family  CrystalFamily
	Profile ResonanceProfile
}

// NewCrystal builds a crystal with the family's default profile.
func NewCrystal(f CrystalFamily) Crystal {
	return Crystal{Family: f, Profile: DefaultProfile(f)}
}

// ============================================================================
// DELTA ANGLE / DELTA CLASS
// ============================================================================

// DeltaClass is the coarse bucket of an angular deviation.
type DeltaClass uint8

const (
	DeltaNone DeltaClass = iota
	DeltaMicro
	DeltaSoft
	DeltaHard
	DeltaCritical
)

// String returns the class name for diagnostics.
func (d DeltaClass) String() string {
	switch d {
	case DeltaNone:
		return "none"
	case DeltaMicro:
		return "micro"
	case DeltaSoft:
		return "soft"
	case DeltaHard:
		return "hard"
	case DeltaCritical:
		return "critical"
	}
	return "unknown"
}

// DegreesFromAngle decodes a raw uint16 delta angle to degrees.
func DegreesFromAngle(raw uint16) float64 {
	return float64(raw) * constants.AngleScale
}

// AngleFromDegrees encodes degrees into the raw uint16 representation.
// Rounds up so that decoding never lands below the intended degree value;
// a caller encoding exactly 10.0° is guaranteed to classify as Soft, not
// fall a quantum short into Micro.
func AngleFromDegrees(deg float64) uint16 {
	if deg <= 0 {
		return 0
	}
	raw := deg / constants.AngleScale
	u := uint64(raw)
	if float64(u) < raw {
		u++ // ceil
	}
	if u > 65535 {
		u = 65535
	}
	return uint16(u)
}

// ClassifyDelta buckets a raw delta angle by its decoded degree value.
func ClassifyDelta(raw uint16) DeltaClass {
	deg := DegreesFromAngle(raw)
	switch {
	case deg < constants.MicroDegrees:
		return DeltaNone
	case deg < constants.SoftDegrees:
		return DeltaMicro
	case deg < constants.HardDegrees:
		return DeltaSoft
	case deg < constants.CriticalDegrees:
		return DeltaHard
	}
	return DeltaCritical
}

// ============================================================================
// SCORING
// ============================================================================

// ResonanceResult is the outcome of scoring one payload against one crystal.
type ResonanceResult struct {
	RingStrength float32 // 0.0–1.0 match confidence
	DeltaClass   DeltaClass
}

// Digest32 collapses a payload to its 32-bit keccak fingerprint. Exposed so
// multi-crystal evaluation hashes the payload exactly once.
func Digest32(payload []byte) uint32 {
	sum := sha3.Sum256(payload)
	return binary.BigEndian.Uint32(sum[:4])
}

// ResonatePayload scores payload against the crystal's band, attenuated by
// the angular deviation. Pure and deterministic.
func (c Crystal) ResonatePayload(payload []byte, deltaAngle uint16) ResonanceResult {
	return c.resonateDigest(Digest32(payload), deltaAngle)
}

// resonateDigest is the digest-level core shared with Polycrystal.
func (c Crystal) resonateDigest(digest uint32, deltaAngle uint16) ResonanceResult {
	pos := float64(digest) / 4294967296.0

	// Circular distance to the band center; the axis wraps at 1.0.
	dist := pos - c.Profile.Center
	if dist < 0 {
		dist = -dist
	}
	if dist > 0.5 {
		dist = 1.0 - dist
	}

	tol := c.effectiveTolerance()
	base := 1.0 - dist/tol
	if base < 0 {
		base = 0
	} else if base > 1 {
		base = 1
	}

	// TarPit rates out-of-band (suspicious) patterns highly.
	if c.Family == TarPit {
		base = 1.0 - base
	}

	// Monotonic angular penalty: confidence fades linearly, gone by 180°.
	deg := DegreesFromAngle(deltaAngle)
	atten := 1.0 - deg/180.0
	if atten < 0 {
		atten = 0
	}

	return ResonanceResult{
		RingStrength: float32(base * atten),
		DeltaClass:   ClassifyDelta(deltaAngle),
	}
}

// effectiveTolerance resolves the profile tolerance. Adaptive rescales its
// baseline by the recorded drift mean: a history of strong signals widens
// the band, a weak history narrows it. Floor keeps the division sane.
func (c Crystal) effectiveTolerance() float64 {
	tol := c.Profile.Tolerance
	if c.Family == Adaptive {
		tol *= 0.5 + c.Profile.Drift
	}
	if tol < 0.0005 {
		tol = 0.0005
	}
	return tol
}

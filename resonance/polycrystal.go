// polycrystal.go
//
// Bounded crystal aggregation under a voting policy. A Polycrystal scores a
// payload once (single digest) against every member crystal and folds the
// per-crystal strengths into one pass/fail decision.

package resonance

import (
	"errors"

	"atlas/constants"
)

// ErrCapacityExceeded reports an Add past the MaxCrystals bound. This is a
// configuration-time error, not a runtime fault.
var ErrCapacityExceeded = errors.New("resonance: polycrystal at capacity")

// VotingPolicy folds per-crystal outcomes into one decision.
type VotingPolicy uint8

const (
	// Unanimous passes only if every crystal clears its own family's
	// implicit pass threshold.
	Unanimous VotingPolicy = iota
	// Majority passes if more than half clear their family threshold.
	Majority
	// WeightedAverage passes if the weighted mean strength clears the
	// caller-supplied threshold. This is the policy used for load-based
	// gate driving.
	WeightedAverage
)

// Polycrystal is a bounded, ordered collection of crystals plus a policy.
// Value semantics; safe to copy once configured.
type Polycrystal struct {
	Policy   VotingPolicy
	crystals [constants.MaxCrystals]Crystal
	count    int
}

// NewPolycrystal returns an empty polycrystal with the given policy.
func NewPolycrystal(policy VotingPolicy) Polycrystal {
	return Polycrystal{Policy: policy}
}

// Add appends a crystal, failing once MaxCrystals is reached.
func (p *Polycrystal) Add(c Crystal) error {
	if p.count >= constants.MaxCrystals {
		return ErrCapacityExceeded
	}
	p.crystals[p.count] = c
	p.count++
	return nil
}

// Len reports the number of member crystals.
func (p *Polycrystal) Len() int {
	return p.count
}

// PolycrystalResult is the folded outcome of one evaluation.
type PolycrystalResult struct {
	Passed       bool
	RingStrength float32 // weighted mean strength across members
	PerCrystal   [constants.MaxCrystals]ResonanceResult
	Count        int // valid prefix of PerCrystal
}

// ResonatePayload scores payload against every member crystal and applies
// the voting policy. passThreshold is consulted only under WeightedAverage.
// Pure and deterministic; an empty polycrystal never passes.
func (p *Polycrystal) ResonatePayload(payload []byte, deltaAngle uint16, passThreshold float32) PolycrystalResult {
	var out PolycrystalResult
	if p.count == 0 {
		return out
	}

	digest := Digest32(payload)

	var (
		clearing  int
		weightSum float64
		weighted  float64
	)
	for i := 0; i < p.count; i++ {
		c := &p.crystals[i]
		res := c.resonateDigest(digest, deltaAngle)
		out.PerCrystal[i] = res

		if res.RingStrength >= c.Family.PassThreshold() {
			clearing++
		}
		w := c.Profile.Weight
		if w <= 0 {
			w = 1
		}
		weightSum += w
		weighted += w * float64(res.RingStrength)
	}
	out.Count = p.count
	out.RingStrength = float32(weighted / weightSum)

	switch p.Policy {
	case Unanimous:
		out.Passed = clearing == p.count
	case Majority:
		out.Passed = clearing*2 > p.count
	case WeightedAverage:
		out.Passed = out.RingStrength >= passThreshold
	}
	return out
}

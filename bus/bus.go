// ============================================================================
// SIGNAL BUS - PRIORITY LANES + RESULT LANE + ADMISSION GATE
// ============================================================================
//
// The Bus composes three command rings (one per priority), a single result
// ring, and the shared SDT gate. Dispatch routes by priority and never
// consults the gate — gate consultation is the consumer's responsibility,
// which keeps dispatch latency independent of gate logic.
//
// Pop order is strict priority: Critical, then Urgent, then Normal. Under
// sustained Critical load, lower lanes can starve indefinitely. That is an
// explicit trade-off favoring worst-case latency for urgent signals over
// fairness.
//
// Threading model:
//   • Dispatch / Respond-free producers: unbounded concurrent callers
//   • Pop / PopResult / Tick: exactly one consumer thread per Bus
//   • Resonate / ResonatePoly / Plasma / LaneDepths: any thread

package bus

import (
	"sync/atomic"

	"atlas/constants"
	"atlas/control"
	"atlas/plasma"
	"atlas/resonance"
	"atlas/ring"
	"atlas/types"
)

// DispatchResult reports the outcome of routing one command or result.
type DispatchResult uint8

const (
	Enqueued          DispatchResult = iota
	DroppedBufferFull                // lane at capacity; caller may retry, drop, or escalate
)

// Bus is the per-process signal bus. Construct once at startup and share by
// reference; all lanes are fixed-capacity for the bus's lifetime.
type Bus struct {
	normal   *ring.Ring[types.Command]
	urgent   *ring.Ring[types.Command]
	critical *ring.Ring[types.Command]
	results  *ring.Ring[types.AtlasResult]
	gate     *plasma.SDT

	nextID uint64 // bus-assigned id source (atomic)

	// Per-lane dispatch drops plus the result lane, indexed by Priority.
	// Observable degradation for telemetry; never logged on the hot path.
	drops       [3]uint64
	resultDrops uint64
}

// New builds a bus with default lane capacities and a gate tuned by cfg.
// Malformed thresholds are rejected here, never clamped.
func New(cfg plasma.ThyristorConfig) (*Bus, error) {
	gate, err := plasma.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Bus{
		normal:   ring.New[types.Command](constants.CommandLaneSize),
		urgent:   ring.New[types.Command](constants.CommandLaneSize),
		critical: ring.New[types.Command](constants.CommandLaneSize),
		results:  ring.New[types.AtlasResult](constants.ResultLaneSize),
		gate:     gate,
	}, nil
}

// lane maps a priority to its ring.
//
//go:inline
func (b *Bus) lane(p types.Priority) *ring.Ring[types.Command] {
	switch p {
	case types.PriorityCritical:
		return b.critical
	case types.PriorityUrgent:
		return b.urgent
	}
	return b.normal
}

// ============================================================================
// COMMAND PATH
// ============================================================================

// Dispatch routes cmd into the ring matching its priority. Never blocks,
// never consults the gate. A command dispatched with ID zero receives a
// bus-assigned monotonic id. Capacity exhaustion is reported, not hidden.
func (b *Bus) Dispatch(cmd types.Command) DispatchResult {
	if cmd.ID == 0 {
		cmd.ID = atomic.AddUint64(&b.nextID, 1)
	}
	control.SignalActivity()
	if b.lane(cmd.Priority).Push(cmd) {
		return Enqueued
	}
	atomic.AddUint64(&b.drops[cmd.Priority], 1)
	return DroppedBufferFull
}

// Pop returns the oldest command from the highest non-empty priority lane.
// Single-consumer contract.
func (b *Bus) Pop() (types.Command, bool) {
	if c, ok := b.critical.Pop(); ok {
		return c, true
	}
	if c, ok := b.urgent.Pop(); ok {
		return c, true
	}
	return b.normal.Pop()
}

// Tick drains the commands enqueued at call time, in strict priority order,
// invoking fn for each. fn returning false stops the drain early. The pass
// is finite (bounded by the lane depths sampled on entry) and
// non-restartable; commands dispatched mid-drain wait for the next tick.
// Returns the number of commands delivered. Single-consumer contract.
func (b *Bus) Tick(fn func(types.Command) bool) int {
	budgetC := b.critical.Depth()
	budgetU := b.urgent.Depth()
	budgetN := b.normal.Depth()

	delivered := 0
	drain := func(r *ring.Ring[types.Command], budget int) bool {
		for i := 0; i < budget; i++ {
			c, ok := r.Pop()
			if !ok {
				return true // lane ran dry early; keep going
			}
			delivered++
			if !fn(c) {
				return false
			}
		}
		return true
	}

	if !drain(b.critical, budgetC) {
		return delivered
	}
	if !drain(b.urgent, budgetU) {
		return delivered
	}
	drain(b.normal, budgetN)
	return delivered
}

// ============================================================================
// RESULT PATH
// ============================================================================

// Respond enqueues a processing result on the single result lane. Called by
// the consumer once processing completes; mirrors Dispatch's backpressure.
func (b *Bus) Respond(res types.AtlasResult) DispatchResult {
	if b.results.Push(res) {
		return Enqueued
	}
	atomic.AddUint64(&b.resultDrops, 1)
	return DroppedBufferFull
}

// PopResult returns the oldest pending result. One reader at a time.
func (b *Bus) PopResult() (types.AtlasResult, bool) {
	return b.results.Pop()
}

// ============================================================================
// GATE PATH
// ============================================================================

// Plasma exposes the shared gate for consumer-side admission checks
// (ShouldProceed) and telemetry (Snapshot).
func (b *Bus) Plasma() *plasma.SDT {
	return b.gate
}

// Resonate scores payload against one crystal and feeds the resulting
// strength into the gate as one tick. Safe from any thread. Returns the
// scoring result and the gate state after the transition.
func (b *Bus) Resonate(c resonance.Crystal, payload []byte, deltaAngle uint16) (resonance.ResonanceResult, plasma.State) {
	control.SignalActivity()
	res := c.ResonatePayload(payload, deltaAngle)
	st := b.gate.Resonate(res.RingStrength, deltaAngle)
	return res, st
}

// ResonatePoly scores payload against a polycrystal and feeds the folded
// mean strength into the gate as one tick. passThreshold applies under
// WeightedAverage voting (the policy used for load-based gating).
func (b *Bus) ResonatePoly(p *resonance.Polycrystal, payload []byte, deltaAngle uint16, passThreshold float32) (resonance.PolycrystalResult, plasma.State) {
	control.SignalActivity()
	res := p.ResonatePayload(payload, deltaAngle, passThreshold)
	st := b.gate.Resonate(res.RingStrength, deltaAngle)
	return res, st
}

// ConsumeResults starts the dedicated result drainer: an affinity-pinned OS
// thread popping the result lane until *stop is set, invoking fn per result.
// This claims the PopResult reader slot; do not mix with direct PopResult
// calls.
func (b *Bus) ConsumeResults(core int, stop, hot *uint32, fn func(types.AtlasResult), done chan<- struct{}) {
	ring.PinnedConsumer(core, b.results, stop, hot, fn, done)
}

// ============================================================================
// TELEMETRY BOUNDARY
// ============================================================================

// LaneDepths reports approximate occupancy of every lane. Any thread.
func (b *Bus) LaneDepths() (critical, urgent, normal, results int) {
	return b.critical.Depth(), b.urgent.Depth(), b.normal.Depth(), b.results.Depth()
}

// Drops reports dispatch drops per priority lane and on the result lane, in
// the same lane order as LaneDepths. Monotonic; the external telemetry
// poller diffs successive reads.
func (b *Bus) Drops() (critical, urgent, normal, results uint64) {
	return atomic.LoadUint64(&b.drops[types.PriorityCritical]),
		atomic.LoadUint64(&b.drops[types.PriorityUrgent]),
		atomic.LoadUint64(&b.drops[types.PriorityNormal]),
		atomic.LoadUint64(&b.resultDrops)
}

// ════════════════════════════════════════════════════════════════════════════════════════════════
// Atlas Signal Daemon - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Atlas Inter-Component Signal Bus
// Component: Main Entry Point & System Orchestration
//
// Description:
//   System orchestration with phased initialization and clean separation of concerns.
//   Configuration Load → Memory Optimization → Production Signal Processing
//
// Architecture:
//   - Phase 0: Profile loading from the SQLite store or JSON fallback
//   - Phase 1: Bus construction and result-lane consumer spin-up
//   - Phase 2: Memory cleanup and optimization for production
//   - Phase 3: Pinned command consumption with GC disabled
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"syscall"
	"time"

	"atlas/bus"
	"atlas/config"
	"atlas/control"
	"atlas/debug"
	"atlas/resonance"
	"atlas/types"
	"atlas/utils"
)

// Default configuration sources probed in order at startup.
const (
	profileStorePath = "atlas_profiles.db"
	jsonConfigPath   = "atlas_bus.json"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// main orchestrates the complete daemon lifecycle in distinct phases.
func main() {
	// PHASE 0: Configuration loading
	debug.DropMessage("INIT", "Loading signal-bus configuration")
	cfg := loadConfiguration()
	if blob, err := config.Dump(cfg); err == nil {
		debug.DropMessage("PROFILE", utils.B2s(blob))
	}

	poly, err := cfg.BuildPolycrystal()
	if err != nil {
		panic("Failed to build crystal set: " + err.Error())
	}
	debug.DropMessage("LOADED", utils.Itoa(poly.Len())+" crystals, policy "+cfg.Policy)

	// PHASE 1: Bus construction and result consumer
	b, err := bus.New(cfg.Thyristor())
	if err != nil {
		panic("Failed to construct bus: " + err.Error())
	}

	setupSignalHandling()

	stop, hot := control.Flags()
	resultsDone := make(chan struct{})
	b.ConsumeResults(1, stop, hot, onResult, resultsDone)

	// Startup self-probe: one critical ping through the full path proves the
	// lanes and the result ring before production traffic arrives.
	b.Dispatch(types.Ping(0, time.Now().UnixNano()).Critical())

	debug.DropMessage("READY", "Bus initialized, lanes armed")

	// PHASE 2: Memory optimization for deterministic runtime behavior
	runtime.GC()
	runtime.GC() // Double GC to ensure thorough cleanup
	rtdebug.FreeOSMemory()

	// PHASE 3: Production mode with optimized runtime characteristics
	rtdebug.SetGCPercent(-1) // Disable garbage collection
	runtime.LockOSThread()   // Consumer owns this thread
	control.ForceHot()       // Enter active mode through the first burst

	heartbeat := newHeartbeat()
	consumeCommands(b, &poly, cfg, heartbeat)

	<-resultsDone
	snap := b.Plasma().Snapshot()
	debug.DropMessage("SHUTDOWN", "Signal daemon stopped, gate "+snap.State.String()+
		", strength "+utils.Ftoa3(float64(snap.LastRingStrength)))
}

// loadConfiguration probes the profile store, then the JSON file, then
// falls back to compiled-in defaults. Malformed sources are fatal, never
// silently replaced — a bad store must be fixed, not ignored.
func loadConfiguration() *config.Config {
	if _, err := os.Stat(profileStorePath); err == nil {
		db, err := config.OpenStore(profileStorePath)
		if err != nil {
			panic("Failed to open profile store: " + err.Error())
		}
		defer db.Close()
		cfg, err := config.LoadStore(db)
		if err != nil {
			panic("Failed to load profile store: " + err.Error())
		}
		debug.DropMessage("CONFIG", "Profile store "+profileStorePath)
		return cfg
	}
	if _, err := os.Stat(jsonConfigPath); err == nil {
		cfg, err := config.LoadJSON(jsonConfigPath)
		if err != nil {
			panic("Failed to load config file: " + err.Error())
		}
		debug.DropMessage("CONFIG", "JSON config "+jsonConfigPath)
		return cfg
	}
	debug.DropMessage("CONFIG", "No source found, using defaults")
	return config.Default()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PRODUCTION SIGNAL PROCESSING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// consumeCommands is the single-consumer drain loop. Strict-priority ticks
// drain the lanes; between bursts the loop feeds the heartbeat signal into
// the gate and polls the cooldown ladder.
func consumeCommands(b *bus.Bus, poly *resonance.Polycrystal, cfg *config.Config, hb *heartbeat) {
	for control.Running() {
		n := b.Tick(func(c types.Command) bool {
			process(b, c)
			return true
		})
		if n > 0 {
			continue // stay hot while the lanes carry traffic
		}

		// Idle: one heartbeat signal per interval keeps the gate's entropy
		// accounting live, and the cooldown poller drops the hot flag after
		// the grace window.
		hb.maybeResonate(b, poly, cfg)
		control.PollCooldown()
	}

	// Drain what is already published before exiting.
	b.Tick(func(c types.Command) bool {
		process(b, c)
		return true
	})
}

// process handles one popped command and responds on the result lane.
// Escalation to heavier tiers is admission-gated; the baseline response
// path always answers so producers can correlate.
func process(b *bus.Bus, c types.Command) {
	escalate := b.Plasma().ShouldProceed()

	switch c.Kind {
	case types.KindPing:
		b.Respond(types.OK(types.ResultPong, c.ID))
	case types.KindDijkstra:
		if !escalate {
			b.Respond(types.Err("admission gate closed", c.ID))
			return
		}
		// Graph tier is an external collaborator; without one attached the
		// query cannot be served.
		b.Respond(types.Err("graph tier not attached", c.ID))
	default:
		b.Respond(types.Err("unknown command kind", c.ID))
	}
}

// onResult is the result-lane consumer. Correlation tracking belongs to
// producers; the daemon only surfaces failures on the cold path.
func onResult(r types.AtlasResult) {
	if r.Status == types.StatusErr {
		debug.DropMessage("RESULT_ERR", r.Message+" (cmd "+utils.Itoa(int(r.CorrelatesTo))+")")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// HEARTBEAT SIGNAL SOURCE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// heartbeat feeds a deterministic self-signal into the gate while the bus
// is idle, so entropy accounting (and therefore drought resets) keeps
// moving even with no external producers attached.
type heartbeat struct {
	interval time.Duration
	last     time.Time
	seq      uint64
	seed     uint64
	payload  [16]byte
}

func newHeartbeat() *heartbeat {
	hb := &heartbeat{interval: time.Second}
	copy(hb.payload[:8], "atlas-hb")
	hb.seed = utils.Load64(hb.payload[:8]) // fold the tag into the mix
	return hb
}

// maybeResonate emits at most one gate tick per interval.
func (hb *heartbeat) maybeResonate(b *bus.Bus, poly *resonance.Polycrystal, cfg *config.Config) {
	now := time.Now()
	if now.Sub(hb.last) < hb.interval {
		return
	}
	hb.last = now
	hb.seq++

	x := utils.Mix64(hb.seed ^ hb.seq)
	for i := 0; i < 8; i++ {
		hb.payload[8+i] = byte(x >> (8 * i))
	}
	b.ResonatePoly(poly, hb.payload[:], 0, cfg.PassThreshold)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SIGNAL HANDLING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// setupSignalHandling wires SIGINT/SIGTERM to the graceful shutdown flag.
func setupSignalHandling() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		debug.DropMessage("SIGNAL", "Shutdown requested")
		control.Shutdown()
	}()
}

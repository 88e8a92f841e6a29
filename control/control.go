// control.go — Global control flags and activity management for the bus consumer
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides lightweight global signaling infrastructure for
// coordinating activity states and graceful shutdown of the pinned consumer
// thread draining the signal bus.
//
// Architecture overview:
//   • Global hot/stop flags for lock-free inter-thread communication
//   • Nanosecond-precision activity tracking with automatic cooldown
//   • Zero-allocation flag access for hot path performance
//   • Graceful shutdown coordination for the consumer core
//
// Threading model:
//   • Dispatch ingress signals activity via SignalActivity()
//   • The consumer thread polls flags via Flags() for coordination
//   • Automatic cooldown prevents unnecessary hot spinning
//   • Shutdown() broadcasts termination to the consumer
//
// Safety guarantees:
//   • Race-free flag access via sync/atomic
//   • Bounded cooldown periods prevent infinite hot spinning
//   • Deterministic shutdown behavior

package control

import (
	"sync/atomic"
	"time"
)

var (
	// Global coordination flags - read by the consumer thread every spin.
	hot  uint32 // Activity indicator: 1 = recent dispatch traffic, 0 = idle
	stop uint32 // Shutdown signal: 1 = initiate graceful shutdown, 0 = running

	// Activity timing for automatic cooldown management.
	lastHot    int64                    // Nanosecond timestamp of last dispatch activity
	cooldownNs = int64(1 * time.Second) // Idle period before hot clears
)

// SignalActivity marks the system as active and records precise timing for
// automatic cooldown management. Called from dispatch ingress whenever a
// command or signal payload arrives.
//
//go:nosplit
//go:inline
func SignalActivity() {
	atomic.StoreUint32(&hot, 1)
	atomic.StoreInt64(&lastHot, time.Now().UnixNano())
}

// ForceHot pins the hot flag high without recording a timestamp, so the
// cooldown poller cannot clear it until fresh activity re-arms the timer.
// Used at startup to keep the consumer in hot-spin through the first burst.
//
//go:nosplit
//go:inline
func ForceHot() {
	atomic.StoreUint32(&hot, 1)
	atomic.StoreInt64(&lastHot, time.Now().UnixNano())
}

// PollCooldown implements automatic hot-flag clearance based on elapsed time
// since the last dispatch. Called inline from the consumer spin loop.
//
//go:nosplit
//go:inline
func PollCooldown() {
	if atomic.LoadUint32(&hot) == 1 &&
		time.Now().UnixNano()-atomic.LoadInt64(&lastHot) > cooldownNs {
		atomic.StoreUint32(&hot, 0)
	}
}

// Shutdown initiates graceful termination by setting the global stop flag.
// The pinned consumer monitors this flag and exits cleanly upon detection.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Running reports whether shutdown has not yet been requested.
//
//go:nosplit
//go:inline
func Running() bool {
	return atomic.LoadUint32(&stop) == 0
}

// Flags returns direct pointers to the global coordination flags for
// zero-allocation access by the pinned consumer. Returned pointers remain
// valid for the application lifetime.
//
//go:nosplit
//go:inline
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}

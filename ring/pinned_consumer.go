// pinned_consumer.go
//
// Low-latency lane consumer.
//
//   • Dedicated OS thread pinned to `core`.
//   • Stays in **hot-spin** (tight loop, no cpuRelax) while
//       – new work has arrived within hotTimeout, OR
//       – producers keep the global hot flag == 1.
//   • After the grace window *and* once hot == 0 it drops to the
//     **cold-spin** path: cpuRelax every iteration.
//   • Exits only when *stop == 1 and closes `done` exactly once.
//
// Rationale: keep nanosecond latency during signal bursts yet avoid burning
// a core when the bus is quiet.
//
// All cross-goroutine variables are accessed atomically; no other
// synchronisation primitives appear in the hot path.
//
// hot flag contract:
//     Producer             Consumer
//     --------             ------------------------------
//     Store 1  ─────────▶  read (wake / stay hot-spin)
//     ...dispatch items…
//     (optionally) Store 0  ◀─ consumer never writes

package ring

import (
	"runtime"
	"sync/atomic"
	"time"
)

const (
	hotTimeout = 15 * time.Second // hot-spin grace
)

// PinnedConsumer drains r until *stop is set, invoking fn for every item.
// fn runs on the pinned thread; it must not block.
func PinnedConsumer[T any](
	core int,
	r *Ring[T],
	stop, hot *uint32,
	fn func(T),
	done chan<- struct{},
) {
	go func() {
		// ── thread & affinity ─────────────────────────────
		runtime.LockOSThread()
		setAffinity(core) // stub on non-Linux
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		last := time.Now() // last time Pop delivered

		for {
			if atomic.LoadUint32(stop) == 1 {
				// Drain what is already published, then exit.
				for {
					v, ok := r.Pop()
					if !ok {
						return
					}
					fn(v)
				}
			}

			if v, ok := r.Pop(); ok {
				fn(v)
				last = time.Now()
				continue
			}

			// Empty: choose spin temperature.
			if atomic.LoadUint32(hot) == 1 || time.Since(last) < hotTimeout {
				continue // hot-spin: burst expected imminently
			}
			cpuRelax() // cold-spin: polite backoff
		}
	}()
}

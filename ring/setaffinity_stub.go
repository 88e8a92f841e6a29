//go:build !linux || tinygo

// setaffinity_stub.go
//
// Portable fall-back: on targets without sched_setaffinity the pin is simply
// skipped. The consumer still runs on a locked OS thread.

package ring

// setAffinity is a no-op on unsupported targets.
func setAffinity(cpu int) {}

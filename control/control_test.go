package control

import (
	"sync"
	"sync/atomic"
	"testing"
)

// resetFlags restores the package globals between tests.
func resetFlags() {
	stopP, hotP := Flags()
	atomic.StoreUint32(stopP, 0)
	atomic.StoreUint32(hotP, 0)
	atomic.StoreInt64(&lastHot, 0)
}

// TestSignalActivitySetsHot confirms the ingress signal raises the hot flag
// and stamps the activity clock.
func TestSignalActivitySetsHot(t *testing.T) {
	resetFlags()
	_, hotP := Flags()
	if atomic.LoadUint32(hotP) != 0 {
		t.Fatal("hot flag set before activity")
	}
	SignalActivity()
	if atomic.LoadUint32(hotP) != 1 {
		t.Fatal("hot flag not set after activity")
	}
	if atomic.LoadInt64(&lastHot) == 0 {
		t.Fatal("activity timestamp not recorded")
	}
}

// TestPollCooldownClearsStaleHot backdates the activity stamp past the
// cooldown window and checks the poller clears the flag — and leaves a
// fresh flag alone.
func TestPollCooldownClearsStaleHot(t *testing.T) {
	resetFlags()
	_, hotP := Flags()

	SignalActivity()
	atomic.StoreInt64(&lastHot, atomic.LoadInt64(&lastHot)-cooldownNs-1)
	PollCooldown()
	if atomic.LoadUint32(hotP) != 0 {
		t.Fatal("stale hot flag not cleared")
	}

	SignalActivity() // fresh activity must survive the poller
	PollCooldown()
	if atomic.LoadUint32(hotP) != 1 {
		t.Fatal("fresh hot flag cleared")
	}
}

// TestShutdownFlag checks Shutdown flips Running and the exposed pointer.
func TestShutdownFlag(t *testing.T) {
	resetFlags()
	stopP, _ := Flags()
	if !Running() {
		t.Fatal("not running before shutdown")
	}
	Shutdown()
	if Running() || atomic.LoadUint32(stopP) != 1 {
		t.Fatal("shutdown flag not observed")
	}
	resetFlags()
}

// TestConcurrentSignaling hammers SignalActivity and PollCooldown from many
// goroutines; the race detector is the real assertion here.
func TestConcurrentSignaling(t *testing.T) {
	resetFlags()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				SignalActivity()
				PollCooldown()
			}
		}()
	}
	wg.Wait()
	_, hotP := Flags()
	if atomic.LoadUint32(hotP) != 1 {
		t.Fatal("hot flag lost after concurrent signaling burst")
	}
	resetFlags()
}

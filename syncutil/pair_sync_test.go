//go:build !deadlock

package syncutil

import (
	"testing"
	"time"
)

// TestLockBoth_HoldsBothOrNeither verifies a blocked pair acquisition does
// not sit on one of the locks while waiting for the other. This is a
// property of the try-and-swap protocol, so it only holds in the default
// build; the detector build blocks in address order instead.
func TestLockBoth_HoldsBothOrNeither(t *testing.T) {
	var a, b Mutex

	b.Lock() // park any pair acquisition

	started := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		close(started)
		LockBoth(&a, &b)
		close(acquired)
		UnlockBoth(&a, &b)
	}()

	<-started
	time.Sleep(20 * time.Millisecond)

	select {
	case <-acquired:
		t.Fatal("pair acquired while b was held elsewhere")
	default:
	}

	// The waiter must not be camping on a.
	if !a.TryLock() {
		t.Error("blocked LockBoth retained lock a")
	} else {
		a.Unlock()
	}

	b.Unlock()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("pair never acquired after b was released")
	}
}

// TestUnlockBoth releases the whole pair.
func TestUnlockBoth(t *testing.T) {
	var a, b Mutex

	LockBoth(&a, &b)
	UnlockBoth(&a, &b)

	if !a.TryLock() {
		t.Error("lock a still held after UnlockBoth")
	}
	if !b.TryLock() {
		t.Error("lock b still held after UnlockBoth")
	}
}

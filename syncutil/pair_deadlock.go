//go:build deadlock

package syncutil

import "unsafe"

// LockBoth acquires both mutexes as one all-or-nothing step. The detector
// mutex has no TryLock, so this build takes the pair in a fixed address
// order instead of the try-and-swap protocol. Every caller then blocks in
// the same global order, which cannot produce a circular wait however the
// call site names the pair, and keeps the detector's lock-order graph
// consistent.
//
// Release the pair with UnlockBoth.
func LockBoth(a, b *Mutex) {
	if uintptr(unsafe.Pointer(b)) < uintptr(unsafe.Pointer(a)) {
		a, b = b, a
	}
	a.Lock()
	b.Lock()
}

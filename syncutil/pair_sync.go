//go:build !deadlock

package syncutil

// LockBoth acquires both mutexes as one all-or-nothing step. The caller
// never proceeds while holding exactly one of the pair, and two goroutines
// may name the locks in opposite order without risking a circular wait:
// whenever the second lock cannot be taken immediately, the first is given
// back and the roles reverse, so neither goroutine ever blocks while
// keeping a lock the other needs.
//
// Release the pair with UnlockBoth.
func LockBoth(a, b *Mutex) {
	for {
		a.Lock()
		if b.TryLock() {
			return
		}
		a.Unlock()

		b.Lock()
		if a.TryLock() {
			return
		}
		b.Unlock()
	}
}

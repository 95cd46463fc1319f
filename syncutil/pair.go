package syncutil

// UnlockBoth releases a pair previously acquired with LockBoth.
func UnlockBoth(a, b *Mutex) {
	b.Unlock()
	a.Unlock()
}

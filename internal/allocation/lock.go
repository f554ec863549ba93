package allocation

import "sync"

// lockStripes is the number of mutexes each lock table is striped over.
// Two distinct ids may share a stripe; that only costs some unnecessary
// serialization, never correctness.
const lockStripes = 64

// stripedLocks serializes mutating operations per id.  The engine keeps
// one table keyed by timeslot id and one keyed by student id; striping
// keeps both bounded regardless of how many rows exist.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for a single id and returns its unlock
// function.
func (l *stripedLocks) lock(id uint64) func() {
	m := &l.stripes[id%lockStripes]
	m.Lock()
	return m.Unlock
}

// lockPair acquires the stripes for two ids, in ascending stripe order
// so that concurrent transfers between the same pair of slots cannot
// deadlock.  When both ids map to the same stripe only one lock is
// taken.
func (l *stripedLocks) lockPair(a, b uint64) func() {
	ia, ib := a%lockStripes, b%lockStripes
	if ia == ib {
		m := &l.stripes[ia]
		m.Lock()
		return m.Unlock
	}
	if ia > ib {
		ia, ib = ib, ia
	}
	first, second := &l.stripes[ia], &l.stripes[ib]
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

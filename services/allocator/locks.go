package allocator

import "sync"

// slotLocks hands out one mutex per slot id. The exclusive hold scope is a
// single slot: read-modify-write sequences on one slot are serialized, while
// different slots proceed independently.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *slotLocks) get(slotID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[slotID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[slotID] = l
	}
	return l
}

// lockBoth acquires the holds for two distinct slots in a fixed global order
// so two concurrent reschedules can never deadlock against each other.
func (s *slotLocks) lockBoth(a, b string) (unlock func()) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	l1 := s.get(first)
	l2 := s.get(second)
	l1.Lock()
	l2.Lock()
	return func() {
		l2.Unlock()
		l1.Unlock()
	}
}

package flow

import (
	"sync"

	"receptionist/models"
)

// PendingStore holds per-call booking state for the lifetime of the call.
// Entries are removed when the call ends or the caller aborts.
type PendingStore struct {
	mu      sync.RWMutex
	pending map[string]*models.PendingBooking
}

func NewPendingStore() *PendingStore {
	return &PendingStore{pending: make(map[string]*models.PendingBooking)}
}

func (s *PendingStore) Get(callID string) *models.PendingBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[callID]
}

func (s *PendingStore) GetOrCreate(callID string) *models.PendingBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[callID]; ok {
		return p
	}
	p := &models.PendingBooking{CallID: callID}
	s.pending[callID] = p
	return p
}

func (s *PendingStore) Clear(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, callID)
}

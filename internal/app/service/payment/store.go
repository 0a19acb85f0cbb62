package payment

import (
	"sync"

	"github.com/barberpro/mpmock/internal/models"
)

// Store is the process-lifetime collection of payment records. The original
// runtime was single-threaded; Go handlers run concurrently, so the store
// serializes itself behind a RWMutex and only ever hands out clones.
type Store struct {
	mu       sync.RWMutex
	payments map[int64]*models.Payment
	order    []int64
}

func NewStore() *Store {
	return &Store{payments: make(map[int64]*models.Payment)}
}

func (s *Store) Insert(p *models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.payments[p.ID] = p.Clone()
}

func (s *Store) Get(id int64) (*models.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Mutate applies fn to the stored record under the write lock. If fn returns
// an error the record keeps whatever state fn left it in, so fn must validate
// before mutating. The updated clone is returned on success.
func (s *Store) Mutate(id int64, fn func(*models.Payment) error) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// List returns all payments in insertion order.
func (s *Store) List() []*models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Payment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.payments[id].Clone())
	}
	return out
}

// Clear drops every record and reports how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.payments)
	s.payments = make(map[int64]*models.Payment)
	s.order = nil
	return n
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

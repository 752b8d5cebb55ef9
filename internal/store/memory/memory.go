// Package memory is an in-process TransactionStore used as the default
// backend and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/store"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

var _ store.TransactionStore = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	t.CreatedAt = time.Now().UTC()
	s.nextID++
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// All returns a snapshot sorted ascending by date; same-date records keep
// insertion order.
func (s *Store) All(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// BatchInsert validates every transaction before touching state, so a bad
// record leaves the store unchanged.
func (s *Store) BatchInsert(_ context.Context, txs []core.Transaction) ([]int64, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(txs))
	now := time.Now().UTC()
	for _, t := range txs {
		t.ID = s.nextID
		t.CreatedAt = now
		s.nextID++
		s.items = append(s.items, t)
		ids = append(ids, t.ID)
	}
	return ids, nil
}

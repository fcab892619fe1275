// Package memstore keeps the transaction log in memory.
package memstore

import (
	"context"
	"sync"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Store is a mutex-guarded in-memory log.
type Store struct {
	mu   sync.Mutex
	rows []model.Transaction
}

// New returns an empty Store, optionally pre-loaded with rows.
func New(rows ...model.Transaction) *Store {
	return &Store{rows: append([]model.Transaction(nil), rows...)}
}

// Load returns a copy of all rows.
func (s *Store) Load(_ context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Transaction, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// Append adds a row to the end of the log.
func (s *Store) Append(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, tx)
	return nil
}

// DeleteLast drops the newest row.
func (s *Store) DeleteLast(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rows) == 0 {
		return false, nil
	}
	s.rows = s.rows[:len(s.rows)-1]
	return true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Package memstore keeps the latest snapshot in memory for the HTTP API.
package memstore

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

// Store holds the most recently published snapshot. Readers never block
// writers; a published snapshot must not be modified afterwards.
type Store struct {
	latest atomic.Pointer[domain.Snapshot]
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Publish replaces the current snapshot.
func (s *Store) Publish(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return errors.New("memstore: nil snapshot")
	}
	s.latest.Store(snap)
	return nil
}

// Latest returns the current snapshot, or domain.ErrNoSnapshot before the
// first publish.
func (s *Store) Latest() (*domain.Snapshot, error) {
	snap := s.latest.Load()
	if snap == nil {
		return nil, domain.ErrNoSnapshot
	}
	return snap, nil
}

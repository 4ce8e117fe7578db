package testkit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
)

// MemoryStateStore is an in-process repositories.StateStore with the same
// version-guard semantics as the GORM implementation.
type MemoryStateStore struct {
	mu      sync.Mutex
	records map[string]repositories.EntityState // tenant|kind|key
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: map[string]repositories.EntityState{}}
}

func stateKey(tenant, kind, key string) string {
	return tenant + "|" + kind + "|" + key
}

func (s *MemoryStateStore) Get(tenant, kind, key string) (repositories.EntityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.records[stateKey(tenant, kind, key)]
	if !ok {
		return repositories.EntityState{}, apperr.NotFound(kind, key)
	}
	return state, nil
}

func (s *MemoryStateStore) Put(tenant, kind, key string, public, private []byte, expectedVersion string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := stateKey(tenant, kind, key)
	next := uuid.NewString()
	now := time.Now()

	current, exists := s.records[k]
	if expectedVersion == "" {
		if exists {
			return "", apperr.Conflict("%s %q already exists", kind, key)
		}
		s.records[k] = repositories.EntityState{
			Tenant: tenant, Kind: kind, RecordKey: key,
			Public: string(public), Private: string(private),
			Version: next, CreatedAt: now, UpdatedAt: now,
		}
		return next, nil
	}

	if !exists || current.Version != expectedVersion {
		return "", &apperr.StaleTokenError{Resource: kind + " " + key}
	}

	current.Public = string(public)
	current.Private = string(private)
	current.Version = next
	current.UpdatedAt = now
	s.records[k] = current
	return next, nil
}

func (s *MemoryStateStore) Delete(tenant, kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, stateKey(tenant, kind, key))
	return nil
}

func (s *MemoryStateStore) List(tenant, kind string) ([]repositories.EntityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []repositories.EntityState
	for _, state := range s.records {
		if state.Tenant == tenant && state.Kind == kind {
			out = append(out, state)
		}
	}
	return out, nil
}

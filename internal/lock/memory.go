package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory lock store for scaffolding and tests.
type MemoryRepository struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*Lock
}

// NewMemoryRepository creates an empty in-memory lock repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{locks: make(map[uuid.UUID]*Lock)}
}

// Acquire takes the lock when free or already held by the actor.
func (m *MemoryRepository) Acquire(_ context.Context, rootID, actor uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.locks[rootID]
	if ok && record.Held && record.LockedBy != actor {
		return false, nil
	}
	m.locks[rootID] = &Lock{
		UnificRootID: rootID,
		Held:         true,
		LockedBy:     actor,
		LockedAt:     at,
	}
	return true, nil
}

// Release frees the lock when held by the actor.
func (m *MemoryRepository) Release(_ context.Context, rootID, actor uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.locks[rootID]
	if !ok || !record.Held {
		return nil
	}
	if record.LockedBy != actor {
		return &ConflictError{RootID: rootID, HeldBy: record.LockedBy}
	}
	record.Held = false
	record.LockedBy = uuid.Nil
	return nil
}

// Get returns the current lock row.
func (m *MemoryRepository) Get(_ context.Context, rootID uuid.UUID) (*Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.locks[rootID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Lock is the exclusive edit lock row keyed by root identity.
type Lock struct {
	bun.BaseModel `bun:"table:locks,alias:lk"`

	UnificRootID uuid.UUID `bun:",pk,type:uuid"                json:"unific_root_id"`
	Held         bool      `bun:"held,notnull,default:false"   json:"held"`
	LockedBy     uuid.UUID `bun:"locked_by,type:uuid"          json:"locked_by"`
	LockedAt     time.Time `bun:"locked_at,nullzero"           json:"locked_at"`
}

var (
	ErrRootIDRequired = errors.New("lock: root id required")
	ErrActorRequired  = errors.New("lock: actor required")
)

// ConflictError reports a lock held by a different actor.
type ConflictError struct {
	RootID uuid.UUID
	HeldBy uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("lock: root %s held by %s", e.RootID, e.HeldBy)
}

// Repository abstracts lock row storage. Implementations must make
// Acquire atomic with respect to concurrent callers.
type Repository interface {
	// Acquire stores the lock when free or already held by the actor,
	// reporting false when a different actor holds it.
	Acquire(ctx context.Context, rootID, actor uuid.UUID, at time.Time) (bool, error)
	// Release frees the lock when held by the actor.
	Release(ctx context.Context, rootID, actor uuid.UUID) error
	// Get returns the current lock row, or nil when the root was never locked.
	Get(ctx context.Context, rootID uuid.UUID) (*Lock, error)
}

// Manager enforces exclusive edit locks per root identity.
type Manager struct {
	locks Repository
	now   func() time.Time
}

// Option configures the manager.
type Option func(*Manager)

// WithClock overrides the clock used to stamp lock acquisition.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewManager constructs a lock manager on the supplied repository.
func NewManager(locks Repository, opts ...Option) *Manager {
	m := &Manager{
		locks: locks,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryLock attempts to acquire the exclusive lock for the actor. Re-acquiring
// a lock the actor already holds succeeds.
func (m *Manager) TryLock(ctx context.Context, rootID, actor uuid.UUID) (bool, error) {
	if rootID == uuid.Nil {
		return false, ErrRootIDRequired
	}
	if actor == uuid.Nil {
		return false, ErrActorRequired
	}
	return m.locks.Acquire(ctx, rootID, actor, m.now())
}

// Unlock releases the lock held by the actor. Releasing a lock held by a
// different actor fails with ConflictError.
func (m *Manager) Unlock(ctx context.Context, rootID, actor uuid.UUID) error {
	if rootID == uuid.Nil {
		return ErrRootIDRequired
	}
	if actor == uuid.Nil {
		return ErrActorRequired
	}
	return m.locks.Release(ctx, rootID, actor)
}

// Holder reports the actor currently holding the lock, or uuid.Nil when free.
func (m *Manager) Holder(ctx context.Context, rootID uuid.UUID) (uuid.UUID, error) {
	if rootID == uuid.Nil {
		return uuid.Nil, ErrRootIDRequired
	}
	record, err := m.locks.Get(ctx, rootID)
	if err != nil {
		return uuid.Nil, err
	}
	if record == nil || !record.Held {
		return uuid.Nil, nil
	}
	return record.LockedBy, nil
}

// HeldByOther reports whether a different actor currently holds the lock.
func (m *Manager) HeldByOther(ctx context.Context, rootID, actor uuid.UUID) (bool, error) {
	holder, err := m.Holder(ctx, rootID)
	if err != nil {
		return false, err
	}
	return holder != uuid.Nil && holder != actor, nil
}

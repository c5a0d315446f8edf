package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager() (*Manager, time.Time) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	return NewManager(NewMemoryRepository(), WithClock(func() time.Time { return now })), now
}

func TestTryLockExclusivity(t *testing.T) {
	manager, _ := newTestManager()
	rootID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	ok, err := manager.TryLock(context.Background(), rootID, first)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = manager.TryLock(context.Background(), rootID, second)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second actor must not acquire a held lock")
	}

	// Re-acquiring an owned lock succeeds.
	ok, err = manager.TryLock(context.Background(), rootID, first)
	if err != nil || !ok {
		t.Fatalf("re-acquire: ok=%v err=%v", ok, err)
	}
}

func TestUnlockReleasesForNextActor(t *testing.T) {
	manager, _ := newTestManager()
	rootID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	if ok, err := manager.TryLock(context.Background(), rootID, first); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if err := manager.Unlock(context.Background(), rootID, first); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, err := manager.TryLock(context.Background(), rootID, second); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestUnlockByNonHolderFails(t *testing.T) {
	manager, _ := newTestManager()
	rootID := uuid.New()
	holder := uuid.New()

	if ok, err := manager.TryLock(context.Background(), rootID, holder); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	err := manager.Unlock(context.Background(), rootID, uuid.New())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.HeldBy != holder {
		t.Fatalf("held_by = %s, want %s", conflict.HeldBy, holder)
	}

	// The holder still owns the lock afterwards.
	got, err := manager.Holder(context.Background(), rootID)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if got != holder {
		t.Fatalf("holder = %s, want %s", got, holder)
	}
}

func TestUnlockNeverHeldIsNoOp(t *testing.T) {
	manager, _ := newTestManager()

	if err := manager.Unlock(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("unlock free root: %v", err)
	}
}

func TestHolderReportsNilWhenFree(t *testing.T) {
	manager, _ := newTestManager()
	rootID := uuid.New()
	actor := uuid.New()

	got, err := manager.Holder(context.Background(), rootID)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if got != uuid.Nil {
		t.Fatalf("holder = %s, want nil for an unlocked root", got)
	}

	if ok, err := manager.TryLock(context.Background(), rootID, actor); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if err := manager.Unlock(context.Background(), rootID, actor); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	got, err = manager.Holder(context.Background(), rootID)
	if err != nil {
		t.Fatalf("holder after release: %v", err)
	}
	if got != uuid.Nil {
		t.Fatalf("holder = %s, want nil after release", got)
	}
}

func TestHeldByOther(t *testing.T) {
	manager, _ := newTestManager()
	rootID := uuid.New()
	holder := uuid.New()

	held, err := manager.HeldByOther(context.Background(), rootID, holder)
	if err != nil {
		t.Fatalf("held by other: %v", err)
	}
	if held {
		t.Fatal("free root must not report a foreign holder")
	}

	if ok, err := manager.TryLock(context.Background(), rootID, holder); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	held, err = manager.HeldByOther(context.Background(), rootID, holder)
	if err != nil {
		t.Fatalf("held by other: %v", err)
	}
	if held {
		t.Fatal("own lock must not count as foreign")
	}
	held, err = manager.HeldByOther(context.Background(), rootID, uuid.New())
	if err != nil {
		t.Fatalf("held by other: %v", err)
	}
	if !held {
		t.Fatal("foreign actor must see the lock as held")
	}
}

func TestLockInputValidation(t *testing.T) {
	manager, _ := newTestManager()

	if _, err := manager.TryLock(context.Background(), uuid.Nil, uuid.New()); !errors.Is(err, ErrRootIDRequired) {
		t.Fatalf("expected ErrRootIDRequired, got %v", err)
	}
	if _, err := manager.TryLock(context.Background(), uuid.New(), uuid.Nil); !errors.Is(err, ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired, got %v", err)
	}
	if err := manager.Unlock(context.Background(), uuid.Nil, uuid.New()); !errors.Is(err, ErrRootIDRequired) {
		t.Fatalf("expected ErrRootIDRequired, got %v", err)
	}
}

func TestLockStampsAcquisitionTime(t *testing.T) {
	repo := NewMemoryRepository()
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	manager := NewManager(repo, WithClock(func() time.Time { return now }))
	rootID := uuid.New()
	actor := uuid.New()

	if ok, err := manager.TryLock(context.Background(), rootID, actor); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	record, err := repo.Get(context.Background(), rootID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record == nil || !record.LockedAt.Equal(now) {
		t.Fatalf("locked_at = %+v, want %v", record, now)
	}
}

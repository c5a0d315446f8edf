package history

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is an append-only audit record created on every lifecycle transition.
// Entries are never mutated, only appended.
type Entry struct {
	bun.BaseModel `bun:"table:history_entries,alias:he"`

	ID           uuid.UUID         `bun:",pk,type:uuid"                     json:"id"`
	EntityKind   domain.EntityKind `bun:"entity_kind,notnull"               json:"entity_kind"`
	VersionID    uuid.UUID         `bun:"entity_version_id,notnull,type:uuid" json:"entity_version_id"`
	UnificRootID uuid.UUID         `bun:"unific_root_id,notnull,type:uuid"  json:"unific_root_id"`
	Action       domain.ActionKind `bun:"action,notnull"                    json:"action"`
	Actor        uuid.UUID         `bun:"actor,type:uuid"                   json:"actor"`
	OccurredAt   time.Time         `bun:"occurred_at,notnull"               json:"occurred_at"`
	Languages    []string          `bun:"languages,type:jsonb"              json:"languages,omitempty"`
	Metadata     map[string]any    `bun:"metadata,type:jsonb"               json:"metadata,omitempty"`
}

// Recorder persists history entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]Entry, error)
}

// InMemoryRecorder accumulates history entries in-memory for tests.
type InMemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewInMemoryRecorder constructs an empty recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Record stores the supplied entry.
func (r *InMemoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := entry
	if copied.Metadata != nil {
		metadata := make(map[string]any, len(copied.Metadata))
		for k, v := range copied.Metadata {
			metadata[k] = v
		}
		copied.Metadata = metadata
	}
	if copied.Languages != nil {
		copied.Languages = append([]string(nil), copied.Languages...)
	}
	r.entries = append(r.entries, copied)
	return nil
}

// ListByRoot returns every entry recorded for the root, oldest first.
func (r *InMemoryRecorder) ListByRoot(_ context.Context, rootID uuid.UUID) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.UnificRootID == rootID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Entries returns a snapshot of every recorded entry.
func (r *InMemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// BunRecorder persists history entries through bun.
type BunRecorder struct {
	db *bun.DB
}

func NewBunRecorder(db *bun.DB) *BunRecorder {
	return &BunRecorder{db: db}
}

func (r *BunRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := r.db.NewInsert().Model(&entry).Exec(ctx)
	return err
}

func (r *BunRecorder) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]Entry, error) {
	entries := []Entry{}
	err := r.db.NewSelect().
		Model(&entries).
		Where("he.unific_root_id = ?", rootID).
		Order("he.occurred_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

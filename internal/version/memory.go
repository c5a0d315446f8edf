package version

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
)

// MemoryRootRepository is an in-memory implementation for scaffolding and tests.
type MemoryRootRepository struct {
	mu    sync.RWMutex
	roots map[uuid.UUID]*Root
}

// NewMemoryRootRepository creates an empty in-memory root repository.
func NewMemoryRootRepository() *MemoryRootRepository {
	return &MemoryRootRepository{roots: make(map[uuid.UUID]*Root)}
}

// Create inserts the supplied root.
func (m *MemoryRootRepository) Create(_ context.Context, record *Root) (*Root, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.roots[copied.ID] = &copied
	cloned := copied
	return &cloned, nil
}

// GetByID retrieves a root by identifier.
func (m *MemoryRootRepository) GetByID(_ context.Context, id uuid.UUID) (*Root, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.roots[id]
	if !ok {
		return nil, &NotFoundError{Resource: "unific_root", Key: id.String()}
	}
	copied := *rec
	return &copied, nil
}

// ListByOrganization returns roots owned by the supplied organization root.
func (m *MemoryRootRepository) ListByOrganization(_ context.Context, orgRootID uuid.UUID) ([]*Root, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Root, 0)
	for _, rec := range m.roots {
		if rec.OrganizationRootID != nil && *rec.OrganizationRootID == orgRootID {
			copied := *rec
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryVersionRepository stores version aggregates in-memory.
type MemoryVersionRepository struct {
	mu       sync.RWMutex
	versions map[uuid.UUID]*Version
}

// NewMemoryVersionRepository creates an empty in-memory version repository.
func NewMemoryVersionRepository() *MemoryVersionRepository {
	return &MemoryVersionRepository{versions: make(map[uuid.UUID]*Version)}
}

// Create inserts the supplied version with its child rows.
func (m *MemoryVersionRepository) Create(_ context.Context, record *Version) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneVersion(record)
	m.versions[copied.ID] = copied
	return cloneVersion(copied), nil
}

// GetByID retrieves a version by identifier.
func (m *MemoryVersionRepository) GetByID(_ context.Context, id uuid.UUID) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.versions[id]
	if !ok {
		return nil, &NotFoundError{Resource: "versioned_entity", Key: id.String()}
	}
	return cloneVersion(rec), nil
}

// ListByRoot returns every version belonging to the root, oldest first.
func (m *MemoryVersionRepository) ListByRoot(_ context.Context, rootID uuid.UUID) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Version, 0)
	for _, rec := range m.versions {
		if rec.UnificRootID == rootID {
			out = append(out, cloneVersion(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces the stored version aggregate.
func (m *MemoryVersionRepository) Update(_ context.Context, record *Version) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.versions[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "versioned_entity", Key: record.ID.String()}
	}
	copied := cloneVersion(record)
	m.versions[copied.ID] = copied
	return cloneVersion(copied), nil
}

// SaveAll replaces the stored aggregates in one critical section so callers
// can move a published pointer and demote its predecessor together.
func (m *MemoryVersionRepository) SaveAll(_ context.Context, records []*Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		if record == nil {
			continue
		}
		m.versions[record.ID] = cloneVersion(record)
	}
	return nil
}

// ListDuePublish scans for versions with a pending scheduled publish at or before asOf.
func (m *MemoryVersionRepository) ListDuePublish(_ context.Context, asOf time.Time, limit int) ([]*Version, error) {
	return m.listDue(asOf, limit, func(lang *LanguageAvailability) bool {
		return lang.ValidFrom != nil && !lang.ValidFrom.After(asOf) &&
			lang.Status != domain.StatusPublished && !lang.Status.IsArchived()
	})
}

// ListDueArchive scans for versions with a scheduled archive at or before asOf.
func (m *MemoryVersionRepository) ListDueArchive(_ context.Context, asOf time.Time, limit int) ([]*Version, error) {
	return m.listDue(asOf, limit, func(lang *LanguageAvailability) bool {
		return lang.ValidTo != nil && !lang.ValidTo.After(asOf) && !lang.Status.IsArchived()
	})
}

func (m *MemoryVersionRepository) listDue(asOf time.Time, limit int, due func(*LanguageAvailability) bool) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Version, 0)
	for _, rec := range m.versions {
		if rec.Status.IsArchived() {
			continue
		}
		for _, lang := range rec.Languages {
			if lang != nil && due(lang) {
				out = append(out, cloneVersion(rec))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneVersion(src *Version) *Version {
	if src == nil {
		return nil
	}

	copied := *src
	if len(src.Languages) > 0 {
		copied.Languages = make([]*LanguageAvailability, 0, len(src.Languages))
		for _, lang := range src.Languages {
			if lang == nil {
				continue
			}
			local := *lang
			local.ValidFrom = cloneTimePtr(lang.ValidFrom)
			local.ValidTo = cloneTimePtr(lang.ValidTo)
			local.Reviewed = cloneTimePtr(lang.Reviewed)
			local.SetForArchived = cloneTimePtr(lang.SetForArchived)
			local.ReviewedBy = cloneUUIDPtr(lang.ReviewedBy)
			local.SetForArchivedBy = cloneUUIDPtr(lang.SetForArchivedBy)
			copied.Languages = append(copied.Languages, &local)
		}
	}
	if len(src.Texts) > 0 {
		copied.Texts = make([]*LocalizedText, 0, len(src.Texts))
		for _, text := range src.Texts {
			if text == nil {
				continue
			}
			local := *text
			local.Content = cloneMap(text.Content)
			copied.Texts = append(copied.Texts, &local)
		}
	}
	if len(src.Producers) > 0 {
		copied.Producers = make([]*Producer, 0, len(src.Producers))
		for _, producer := range src.Producers {
			if producer == nil {
				continue
			}
			local := *producer
			copied.Producers = append(copied.Producers, &local)
		}
	}
	copied.OrganizationID = cloneUUIDPtr(src.OrganizationID)
	return &copied
}

// MemoryConnectionRepository stores root relations in-memory.
type MemoryConnectionRepository struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*Connection
}

// NewMemoryConnectionRepository creates an empty in-memory connection repository.
func NewMemoryConnectionRepository() *MemoryConnectionRepository {
	return &MemoryConnectionRepository{links: make(map[uuid.UUID]*Connection)}
}

// Create inserts the supplied connection.
func (m *MemoryConnectionRepository) Create(_ context.Context, record *Connection) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.links[copied.ID] = &copied
	cloned := copied
	return &cloned, nil
}

// ListFrom returns connections originating at the root.
func (m *MemoryConnectionRepository) ListFrom(_ context.Context, rootID uuid.UUID) ([]*Connection, error) {
	return m.list(func(c *Connection) bool { return c.FromRootID == rootID })
}

// ListTo returns connections pointing at the root.
func (m *MemoryConnectionRepository) ListTo(_ context.Context, rootID uuid.UUID) ([]*Connection, error) {
	return m.list(func(c *Connection) bool { return c.ToRootID == rootID })
}

func (m *MemoryConnectionRepository) list(match func(*Connection) bool) ([]*Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Connection, 0)
	for _, rec := range m.links {
		if match(rec) {
			copied := *rec
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a connection by identifier.
func (m *MemoryConnectionRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[id]; !ok {
		return &NotFoundError{Resource: "connection", Key: id.String()}
	}
	delete(m.links, id)
	return nil
}

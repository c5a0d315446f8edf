package version

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

// Registry resolves a root identity to its current versions and creates
// copy-on-write snapshots.
type Registry interface {
	Resolve(ctx context.Context, rootID uuid.UUID) (*RootVersions, error)
	CreateCopy(ctx context.Context, req CopyRequest) (*Version, error)
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*Version, error)
}

// RootVersions is the resolution result for a root. Each slot holds at most
// one version; slots are mutually exclusive by publishing status.
type RootVersions struct {
	Root      *Root
	Draft     *Version
	Modified  *Version
	Published *Version
}

// Editable returns the version new edits should target: the modified branch
// when one exists, otherwise the draft.
func (rv *RootVersions) Editable() *Version {
	if rv == nil {
		return nil
	}
	if rv.Modified != nil {
		return rv.Modified
	}
	return rv.Draft
}

// Latest returns the most relevant version for read access.
func (rv *RootVersions) Latest() *Version {
	if rv == nil {
		return nil
	}
	if editable := rv.Editable(); editable != nil {
		return editable
	}
	return rv.Published
}

// CopyRequest captures the inputs for a copy-on-write duplication.
type CopyRequest struct {
	SourceVersionID uuid.UUID
	TargetStatus    domain.PublishingStatus
	// TargetOrganizationID re-homes the copy under a different organization.
	// Self-produced service producers pointing at the template organization are
	// rewritten to this value.
	TargetOrganizationID *uuid.UUID
	// NewRoot creates a fresh root identity for the copy instead of keeping the
	// source root (cross-organization template copies).
	NewRoot  bool
	CopiedBy uuid.UUID
}

// CreateDraftRequest captures the inputs for a first draft of a new root.
type CreateDraftRequest struct {
	Kind           domain.EntityKind
	OrganizationID *uuid.UUID
	Languages      []string
	Texts          []*LocalizedText
	CreatedBy      uuid.UUID
}

var (
	ErrVersionIDRequired = errors.New("version: version id required")
	ErrRootIDRequired    = errors.New("version: root id required")
	ErrKindRequired      = errors.New("version: entity kind required")
	ErrNoLanguages       = errors.New("version: at least one language is required")
	ErrTargetStatus      = errors.New("version: copy target status must be editable")
)

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// RootRepository abstracts storage for root identities.
type RootRepository interface {
	Create(ctx context.Context, record *Root) (*Root, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Root, error)
	// ListByOrganization returns roots owned by an organization root, used
	// for dependency checks and cascade archival.
	ListByOrganization(ctx context.Context, orgRootID uuid.UUID) ([]*Root, error)
}

// VersionRepository abstracts storage for versioned entities with their
// language availabilities and child rows attached.
type VersionRepository interface {
	Create(ctx context.Context, record *Version) (*Version, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Version, error)
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*Version, error)
	Update(ctx context.Context, record *Version) (*Version, error)
	// SaveAll persists a batch of version aggregates atomically.
	SaveAll(ctx context.Context, records []*Version) error
	// ListDuePublish returns versions owning at least one language whose
	// scheduled publish instant is at or before asOf and is still pending.
	ListDuePublish(ctx context.Context, asOf time.Time, limit int) ([]*Version, error)
	// ListDueArchive is the symmetric query for scheduled archival.
	ListDueArchive(ctx context.Context, asOf time.Time, limit int) ([]*Version, error)
}

// ConnectionRepository abstracts storage for root-to-root relations.
type ConnectionRepository interface {
	Create(ctx context.Context, record *Connection) (*Connection, error)
	ListFrom(ctx context.Context, rootID uuid.UUID) ([]*Connection, error)
	ListTo(ctx context.Context, rootID uuid.UUID) ([]*Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistryOption configures the registry at construction time.
type RegistryOption func(*registry)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// IDGenerator produces identifiers for new records.
type IDGenerator func() uuid.UUID

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(generator IDGenerator) RegistryOption {
	return func(r *registry) {
		if generator != nil {
			r.id = generator
		}
	}
}

// WithLogger attaches a module logger.
func WithLogger(logger interfaces.Logger) RegistryOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type registry struct {
	roots       RootRepository
	versions    VersionRepository
	connections ConnectionRepository
	now         func() time.Time
	id          IDGenerator
	logger      interfaces.Logger
}

// NewRegistry constructs the version registry with the required repositories.
func NewRegistry(roots RootRepository, versions VersionRepository, connections ConnectionRepository, opts ...RegistryOption) Registry {
	r := &registry{
		roots:       roots,
		versions:    versions,
		connections: connections,
		now:         time.Now,
		id:          uuid.New,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a root to its current draft/modified/published versions.
func (r *registry) Resolve(ctx context.Context, rootID uuid.UUID) (*RootVersions, error) {
	if rootID == uuid.Nil {
		return nil, ErrRootIDRequired
	}

	root, err := r.roots.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}

	records, err := r.versions.ListByRoot(ctx, rootID)
	if err != nil {
		return nil, err
	}

	resolved := &RootVersions{Root: root}
	for _, record := range records {
		switch record.Status {
		case domain.StatusDraft:
			resolved.Draft = record
		case domain.StatusModified:
			resolved.Modified = record
		case domain.StatusPublished:
			resolved.Published = record
		}
	}
	return resolved, nil
}

// CreateDraft creates a fresh root with its first draft version.
func (r *registry) CreateDraft(ctx context.Context, req CreateDraftRequest) (*Version, error) {
	if req.Kind == "" {
		return nil, ErrKindRequired
	}
	if len(req.Languages) == 0 {
		return nil, ErrNoLanguages
	}

	now := r.now()
	root := &Root{
		ID:        r.id(),
		Kind:      req.Kind,
		CreatedAt: now,
	}
	if req.Kind != domain.KindOrganization {
		root.OrganizationRootID = req.OrganizationID
	}
	created, err := r.roots.Create(ctx, root)
	if err != nil {
		return nil, err
	}

	record := &Version{
		ID:             r.id(),
		UnificRootID:   created.ID,
		Kind:           req.Kind,
		Status:         domain.StatusDraft,
		OrganizationID: req.OrganizationID,
		CreatedBy:      req.CreatedBy,
		ModifiedBy:     req.CreatedBy,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	for _, code := range req.Languages {
		record.Languages = append(record.Languages, &LanguageAvailability{
			ID:              r.id(),
			EntityVersionID: record.ID,
			Language:        code,
			Status:          domain.StatusDraft,
		})
	}
	for _, text := range req.Texts {
		if text == nil {
			continue
		}
		row := *text
		row.ID = r.id()
		row.EntityVersionID = record.ID
		row.Content = cloneMap(text.Content)
		record.Texts = append(record.Texts, &row)
	}

	return r.versions.Create(ctx, record)
}

// CreateCopy duplicates a version and every language-scoped child row under a
// fresh version identity. The source snapshot is never mutated.
func (r *registry) CreateCopy(ctx context.Context, req CopyRequest) (*Version, error) {
	if req.SourceVersionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}
	targetStatus := req.TargetStatus
	if targetStatus == "" {
		targetStatus = domain.StatusDraft
	}
	if !targetStatus.IsEditable() {
		return nil, ErrTargetStatus
	}

	source, err := r.versions.GetByID(ctx, req.SourceVersionID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	rootID := source.UnificRootID
	if req.NewRoot {
		root := &Root{
			ID:        r.id(),
			Kind:      source.Kind,
			CreatedAt: now,
		}
		if source.Kind != domain.KindOrganization {
			root.OrganizationRootID = req.TargetOrganizationID
		}
		created, err := r.roots.Create(ctx, root)
		if err != nil {
			return nil, err
		}
		rootID = created.ID
	}

	copied := &Version{
		ID:             r.id(),
		UnificRootID:   rootID,
		Kind:           source.Kind,
		Status:         targetStatus,
		OrganizationID: cloneUUIDPtr(source.OrganizationID),
		CreatedBy:      req.CopiedBy,
		ModifiedBy:     req.CopiedBy,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	if req.TargetOrganizationID != nil {
		copied.OrganizationID = cloneUUIDPtr(req.TargetOrganizationID)
	}

	for _, lang := range source.Languages {
		if lang == nil {
			continue
		}
		status := lang.Status
		if status == domain.StatusPublished || status == domain.StatusOldPublished {
			status = domain.StatusModified
		}
		copied.Languages = append(copied.Languages, &LanguageAvailability{
			ID:              r.id(),
			EntityVersionID: copied.ID,
			Language:        lang.Language,
			Status:          status,
			ValidFrom:       cloneTimePtr(lang.ValidFrom),
			ValidTo:         cloneTimePtr(lang.ValidTo),
		})
	}

	for _, text := range source.Texts {
		if text == nil {
			continue
		}
		copied.Texts = append(copied.Texts, &LocalizedText{
			ID:              r.id(),
			EntityVersionID: copied.ID,
			Language:        text.Language,
			Kind:            text.Kind,
			Content:         cloneMap(text.Content),
		})
	}

	templateOrg := source.OrganizationID
	for _, producer := range source.Producers {
		if producer == nil {
			continue
		}
		organizationID := producer.OrganizationID
		if req.TargetOrganizationID != nil && producer.Kind == ProducerKindSelfProduced &&
			templateOrg != nil && producer.OrganizationID == *templateOrg {
			organizationID = *req.TargetOrganizationID
		}
		copied.Producers = append(copied.Producers, &Producer{
			ID:              r.id(),
			EntityVersionID: copied.ID,
			OrganizationID:  organizationID,
			Kind:            producer.Kind,
		})
	}

	created, err := r.versions.Create(ctx, copied)
	if err != nil {
		return nil, err
	}

	if req.NewRoot && r.connections != nil {
		if err := r.reparentConnections(ctx, source.UnificRootID, rootID); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("version.copy.created",
		"source_version_id", source.ID,
		"version_id", created.ID,
		"root_id", created.UnificRootID,
	)

	return created, nil
}

// reparentConnections duplicates collection/service links onto the copy's root
// so template and copy never share mutable rows.
func (r *registry) reparentConnections(ctx context.Context, sourceRootID, targetRootID uuid.UUID) error {
	links, err := r.connections.ListFrom(ctx, sourceRootID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if link == nil {
			continue
		}
		if _, err := r.connections.Create(ctx, &Connection{
			ID:         r.id(),
			FromRootID: targetRootID,
			ToRootID:   link.ToRootID,
			Kind:       link.Kind,
			CreatedAt:  r.now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneUUIDPtr(value *uuid.UUID) *uuid.UUID {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

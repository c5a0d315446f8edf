package publish

import (
	"context"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/internal/schedule"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

// Coordinator validates and atomically transitions versions between publishing
// states, keeping the per-root single-published invariant and cascading
// cleanup of stale relations.
type Coordinator interface {
	Publish(ctx context.Context, req PublishRequest) (*Result, error)
	Withdraw(ctx context.Context, versionID, actor uuid.UUID) (*Result, error)
	Restore(ctx context.Context, versionID, actor uuid.UUID) (*Result, error)
	Archive(ctx context.Context, req ArchiveRequest) (*Result, error)
	ArchiveLanguage(ctx context.Context, versionID uuid.UUID, language string, actor uuid.UUID) (*Result, error)
	RestoreLanguage(ctx context.Context, versionID uuid.UUID, language string, actor uuid.UUID) (*Result, error)
}

// PublishRequest targets a subset of a version's languages for publication,
// immediately or at a future instant.
type PublishRequest struct {
	VersionID   uuid.UUID
	Languages   []string
	ScheduledAt *time.Time
	PublishedBy uuid.UUID
}

// ArchiveRequest moves a version (and optionally its dependents) to the
// archived state, immediately or at a future instant.
type ArchiveRequest struct {
	VersionID   uuid.UUID
	Actor       uuid.UUID
	Cascade     bool
	ScheduledAt *time.Time
}

// Result summarizes an executed or scheduled transition.
type Result struct {
	VersionID uuid.UUID
	RootID    uuid.UUID
	Status    domain.PublishingStatus
	Languages []string
	Scheduled bool
}

// VersionRepository is the storage surface the coordinator mutates through.
type VersionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*version.Version, error)
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*version.Version, error)
	Update(ctx context.Context, record *version.Version) (*version.Version, error)
	SaveAll(ctx context.Context, records []*version.Version) error
}

// RootRepository resolves roots and organization ownership for cascades.
type RootRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*version.Root, error)
	ListByOrganization(ctx context.Context, orgRootID uuid.UUID) ([]*version.Root, error)
}

// ConnectionRepository exposes the relation rows pruned on archive.
type ConnectionRepository interface {
	ListFrom(ctx context.Context, rootID uuid.UUID) ([]*version.Connection, error)
	ListTo(ctx context.Context, rootID uuid.UUID) ([]*version.Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LockGuard reports whether a different actor holds the edit lock for a root.
type LockGuard interface {
	HeldByOther(ctx context.Context, rootID, actor uuid.UUID) (bool, error)
}

// Option configures the coordinator at construction time.
type Option func(*coordinator)

// WithClock overrides the clock used for transition stamps.
func WithClock(clock func() time.Time) Option {
	return func(c *coordinator) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithValidator installs the mandatory-field validator collaborator.
func WithValidator(validator interfaces.EntityValidator) Option {
	return func(c *coordinator) {
		if validator != nil {
			c.validator = validator
		}
	}
}

// WithScheduler installs the keyed job scheduler used for future-dated transitions.
func WithScheduler(scheduler interfaces.Scheduler) Option {
	return func(c *coordinator) {
		if scheduler != nil {
			c.scheduler = scheduler
		}
	}
}

// WithHistory installs the history recorder.
func WithHistory(recorder history.Recorder) Option {
	return func(c *coordinator) {
		if recorder != nil {
			c.history = recorder
		}
	}
}

// WithLogger attaches a module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type coordinator struct {
	versions    VersionRepository
	roots       RootRepository
	connections ConnectionRepository
	locks       LockGuard
	validator   interfaces.EntityValidator
	scheduler   interfaces.Scheduler
	history     history.Recorder
	logger      interfaces.Logger
	now         func() time.Time
}

// NewCoordinator constructs the publishing coordinator.
func NewCoordinator(versions VersionRepository, roots RootRepository, connections ConnectionRepository, locks LockGuard, opts ...Option) Coordinator {
	c := &coordinator{
		versions:    versions,
		roots:       roots,
		connections: connections,
		locks:       locks,
		history:     history.NewInMemoryRecorder(),
		logger:      logging.NoOp(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish transitions the targeted languages to published, or records a
// future-dated schedule when ScheduledAt lies ahead of the clock.
func (c *coordinator) Publish(ctx context.Context, req PublishRequest) (*Result, error) {
	if req.VersionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}
	if len(req.Languages) == 0 {
		return nil, ErrNoLanguages
	}

	record, err := c.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if err := c.guardLock(ctx, record.UnificRootID, req.PublishedBy); err != nil {
		return nil, err
	}

	targets := make([]*version.LanguageAvailability, 0, len(req.Languages))
	for _, code := range req.Languages {
		lang := record.LanguageByCode(code)
		if lang == nil {
			return nil, ErrUnknownLanguage
		}
		targets = append(targets, lang)
	}

	// Mandatory fields are checked up front even for future-dated requests,
	// so a bad schedule fails here instead of inside the sweep.
	if c.validator != nil {
		issues, err := c.validator.Validate(ctx, record.ID, req.Languages)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			return nil, &ValidationError{VersionID: record.ID, Issues: issues}
		}
	}

	now := c.now()
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		return c.schedulePublish(ctx, record, targets, req, now)
	}

	// Demote the previously published version's overlapping languages before
	// promoting the new one; both sides persist in one write.
	writes := []*version.Version{record}
	previous, err := c.currentPublished(ctx, record.UnificRootID, record.ID)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		for _, lang := range previous.Languages {
			if lang != nil && lang.Status == domain.StatusPublished {
				lang.Status = domain.StatusOldPublished
			}
		}
		previous.Status = domain.StatusOldPublished
		previous.ModifiedAt = now
		writes = append(writes, previous)
	}

	for _, lang := range targets {
		lang.Status = domain.StatusPublished
		lang.ValidFrom = nil
	}
	record.Status = domain.AggregateStatus(record.LanguageStatuses())
	record.ModifiedAt = now
	if req.PublishedBy != uuid.Nil {
		record.ModifiedBy = req.PublishedBy
	}

	if err := c.versions.SaveAll(ctx, writes); err != nil {
		return nil, err
	}

	c.record(ctx, record, domain.ActionPublished, req.PublishedBy, req.Languages, nil)
	c.logger.Info("version.published",
		"version_id", record.ID,
		"root_id", record.UnificRootID,
		"languages", req.Languages,
	)

	return c.result(record, req.Languages, false), nil
}

func (c *coordinator) schedulePublish(ctx context.Context, record *version.Version, targets []*version.LanguageAvailability, req PublishRequest, now time.Time) (*Result, error) {
	for _, lang := range targets {
		if lang.ValidTo != nil && req.ScheduledAt.After(*lang.ValidTo) {
			return nil, &ValidationError{VersionID: record.ID, Issues: []interfaces.FieldIssue{{
				Language: lang.Language,
				Field:    "valid_from",
				Message:  "scheduled publish must not fall after scheduled archive",
			}}}
		}
	}

	for _, lang := range targets {
		scheduled := *req.ScheduledAt
		lang.ValidFrom = &scheduled
	}
	record.ModifiedAt = now
	if req.PublishedBy != uuid.Nil {
		record.ModifiedBy = req.PublishedBy
	}

	if _, err := c.versions.Update(ctx, record); err != nil {
		return nil, err
	}

	if c.scheduler != nil {
		payload := map[string]any{"version_id": record.ID.String()}
		if req.PublishedBy != uuid.Nil {
			payload["scheduled_by"] = req.PublishedBy.String()
		}
		if _, err := c.scheduler.Enqueue(ctx, interfaces.JobSpec{
			Key:     schedule.PublishJobKey(record.ID),
			Type:    schedule.JobTypePublish,
			RunAt:   *req.ScheduledAt,
			Payload: payload,
		}); err != nil {
			return nil, err
		}
	}

	c.record(ctx, record, domain.ActionScheduledPublish, req.PublishedBy, req.Languages, map[string]any{
		"scheduled_at": req.ScheduledAt,
	})

	return c.result(record, req.Languages, true), nil
}

// Withdraw demotes a published version to a modified branch, preserving content.
func (c *coordinator) Withdraw(ctx context.Context, versionID, actor uuid.UUID) (*Result, error) {
	if versionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}

	record, err := c.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.StatusPublished {
		return nil, ErrNotPublished
	}
	if err := c.guardLock(ctx, record.UnificRootID, actor); err != nil {
		return nil, err
	}
	if err := c.guardDependents(ctx, record); err != nil {
		return nil, err
	}

	languages := make([]string, 0)
	for _, lang := range record.Languages {
		if lang == nil {
			continue
		}
		if lang.Status == domain.StatusPublished {
			lang.Status = domain.StatusModified
			languages = append(languages, lang.Language)
		}
	}
	record.Status = domain.StatusModified
	record.ModifiedAt = c.now()
	if actor != uuid.Nil {
		record.ModifiedBy = actor
	}

	if _, err := c.versions.Update(ctx, record); err != nil {
		return nil, err
	}

	c.record(ctx, record, domain.ActionWithdrawn, actor, languages, nil)
	return c.result(record, languages, false), nil
}

// Restore reverses a withdraw or an archive, returning the version to the
// editable branch (or straight back to published for a withdrawn version).
func (c *coordinator) Restore(ctx context.Context, versionID, actor uuid.UUID) (*Result, error) {
	if versionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}

	record, err := c.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if err := c.guardLock(ctx, record.UnificRootID, actor); err != nil {
		return nil, err
	}

	now := c.now()
	languages := make([]string, 0)
	writes := []*version.Version{record}
	switch {
	case record.Status.IsArchived():
		for _, lang := range record.Languages {
			if lang == nil {
				continue
			}
			if lang.Status.IsArchived() {
				lang.Status = domain.StatusDraft
				lang.SetForArchivedBy = nil
				lang.SetForArchived = nil
				languages = append(languages, lang.Language)
			}
		}
		record.Status = domain.AggregateStatus(record.LanguageStatuses())
	case record.Status == domain.StatusModified:
		// Restoring a modified branch re-takes the published slot, so the
		// sibling currently holding it is demoted in the same write.
		previous, err := c.currentPublished(ctx, record.UnificRootID, record.ID)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			for _, lang := range previous.Languages {
				if lang != nil && lang.Status == domain.StatusPublished {
					lang.Status = domain.StatusOldPublished
				}
			}
			previous.Status = domain.StatusOldPublished
			previous.ModifiedAt = now
			writes = append(writes, previous)
		}
		for _, lang := range record.Languages {
			if lang == nil {
				continue
			}
			if lang.Status == domain.StatusModified {
				lang.Status = domain.StatusPublished
				languages = append(languages, lang.Language)
			}
		}
		record.Status = domain.AggregateStatus(record.LanguageStatuses())
	default:
		return nil, ErrNotWithdrawn
	}

	record.ModifiedAt = now
	if actor != uuid.Nil {
		record.ModifiedBy = actor
	}

	if err := c.versions.SaveAll(ctx, writes); err != nil {
		return nil, err
	}

	c.record(ctx, record, domain.ActionRestored, actor, languages, nil)
	return c.result(record, languages, false), nil
}

// Archive moves the version to the terminal removed state. Archiving an
// already archived version is an idempotent no-op.
func (c *coordinator) Archive(ctx context.Context, req ArchiveRequest) (*Result, error) {
	if req.VersionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}

	record, err := c.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsArchived() {
		return c.result(record, nil, false), nil
	}
	if err := c.guardLock(ctx, record.UnificRootID, req.Actor); err != nil {
		return nil, err
	}

	now := c.now()
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		return c.scheduleArchive(ctx, record, req, now)
	}

	languages := make([]string, 0, len(record.Languages))
	for _, lang := range record.Languages {
		if lang == nil {
			continue
		}
		if !lang.Status.IsArchived() {
			lang.Status = domain.StatusRemoved
			lang.ValidTo = nil
			archivedBy := req.Actor
			lang.SetForArchivedBy = &archivedBy
			archivedAt := now
			lang.SetForArchived = &archivedAt
			languages = append(languages, lang.Language)
		}
	}
	record.Status = domain.StatusRemoved
	record.ModifiedAt = now
	if req.Actor != uuid.Nil {
		record.ModifiedBy = req.Actor
	}

	if _, err := c.versions.Update(ctx, record); err != nil {
		return nil, err
	}

	c.record(ctx, record, domain.ActionArchived, req.Actor, languages, nil)

	if err := c.pruneConnections(ctx, record.UnificRootID); err != nil {
		return nil, err
	}
	if req.Cascade && record.Kind == domain.KindOrganization {
		if err := c.cascadeArchive(ctx, record.UnificRootID, req.Actor); err != nil {
			return nil, err
		}
	}

	c.logger.Info("version.archived",
		"version_id", record.ID,
		"root_id", record.UnificRootID,
		"cascade", req.Cascade,
	)

	return c.result(record, languages, false), nil
}

func (c *coordinator) scheduleArchive(ctx context.Context, record *version.Version, req ArchiveRequest, now time.Time) (*Result, error) {
	languages := make([]string, 0, len(record.Languages))
	for _, lang := range record.Languages {
		if lang == nil {
			continue
		}
		if lang.ValidFrom != nil && lang.ValidFrom.After(*req.ScheduledAt) {
			return nil, &ValidationError{VersionID: record.ID, Issues: []interfaces.FieldIssue{{
				Language: lang.Language,
				Field:    "valid_to",
				Message:  "scheduled archive must not fall before scheduled publish",
			}}}
		}
		scheduled := *req.ScheduledAt
		lang.ValidTo = &scheduled
		archivedBy := req.Actor
		lang.SetForArchivedBy = &archivedBy
		languages = append(languages, lang.Language)
	}
	record.ModifiedAt = now
	if req.Actor != uuid.Nil {
		record.ModifiedBy = req.Actor
	}

	if _, err := c.versions.Update(ctx, record); err != nil {
		return nil, err
	}

	if c.scheduler != nil {
		payload := map[string]any{"version_id": record.ID.String()}
		if req.Actor != uuid.Nil {
			payload["scheduled_by"] = req.Actor.String()
		}
		if _, err := c.scheduler.Enqueue(ctx, interfaces.JobSpec{
			Key:     schedule.ArchiveJobKey(record.ID),
			Type:    schedule.JobTypeArchive,
			RunAt:   *req.ScheduledAt,
			Payload: payload,
		}); err != nil {
			return nil, err
		}
	}

	c.record(ctx, record, domain.ActionScheduledArchive, req.Actor, languages, map[string]any{
		"scheduled_at": req.ScheduledAt,
	})

	return c.result(record, languages, true), nil
}

// ArchiveLanguage archives a single language availability. Unlocking the
// entity afterwards is the caller's responsibility.
func (c *coordinator) ArchiveLanguage(ctx context.Context, versionID uuid.UUID, language string, actor uuid.UUID) (*Result, error) {
	return c.transitionLanguage(ctx, versionID, language, actor, true)
}

// RestoreLanguage restores a single archived language availability.
func (c *coordinator) RestoreLanguage(ctx context.Context, versionID uuid.UUID, language string, actor uuid.UUID) (*Result, error) {
	return c.transitionLanguage(ctx, versionID, language, actor, false)
}

func (c *coordinator) transitionLanguage(ctx context.Context, versionID uuid.UUID, language string, actor uuid.UUID, archive bool) (*Result, error) {
	if versionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}

	record, err := c.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	lang := record.LanguageByCode(language)
	if lang == nil {
		return nil, ErrUnknownLanguage
	}
	if err := c.guardLock(ctx, record.UnificRootID, actor); err != nil {
		return nil, err
	}

	now := c.now()
	action := domain.ActionArchived
	if archive {
		if lang.Status.IsArchived() {
			return c.result(record, []string{language}, false), nil
		}
		lang.Status = domain.StatusRemoved
		archivedBy := actor
		lang.SetForArchivedBy = &archivedBy
		archivedAt := now
		lang.SetForArchived = &archivedAt
	} else {
		if !lang.Status.IsArchived() {
			return nil, ErrNotWithdrawn
		}
		lang.Status = domain.StatusDraft
		lang.SetForArchivedBy = nil
		lang.SetForArchived = nil
		action = domain.ActionRestored
	}

	record.Status = domain.AggregateStatus(record.LanguageStatuses())
	record.ModifiedAt = now
	if actor != uuid.Nil {
		record.ModifiedBy = actor
	}

	if _, err := c.versions.Update(ctx, record); err != nil {
		return nil, err
	}

	c.record(ctx, record, action, actor, []string{language}, nil)
	return c.result(record, []string{language}, false), nil
}

func (c *coordinator) guardLock(ctx context.Context, rootID, actor uuid.UUID) error {
	if c.locks == nil {
		return nil
	}
	held, err := c.locks.HeldByOther(ctx, rootID, actor)
	if err != nil {
		return err
	}
	if held {
		return &LockConflictError{RootID: rootID}
	}
	return nil
}

// guardDependents blocks withdrawing an organization that still owns live
// services or channels. The check happens at call time and never cascades.
func (c *coordinator) guardDependents(ctx context.Context, record *version.Version) error {
	if record.Kind != domain.KindOrganization || c.roots == nil {
		return nil
	}
	owned, err := c.roots.ListByOrganization(ctx, record.UnificRootID)
	if err != nil {
		return err
	}
	dependents := make([]uuid.UUID, 0)
	for _, root := range owned {
		if root == nil {
			continue
		}
		active, err := c.rootActive(ctx, root.ID)
		if err != nil {
			return err
		}
		if active {
			dependents = append(dependents, root.ID)
		}
	}
	if len(dependents) > 0 {
		return &ConnectedEntitiesError{RootID: record.UnificRootID, Dependents: dependents}
	}
	return nil
}

func (c *coordinator) rootActive(ctx context.Context, rootID uuid.UUID) (bool, error) {
	records, err := c.versions.ListByRoot(ctx, rootID)
	if err != nil {
		return false, err
	}
	for _, record := range records {
		if record != nil && !record.Status.IsArchived() {
			return true, nil
		}
	}
	return false, nil
}

// cascadeArchive archives every live entity owned by the organization root.
func (c *coordinator) cascadeArchive(ctx context.Context, orgRootID, actor uuid.UUID) error {
	owned, err := c.roots.ListByOrganization(ctx, orgRootID)
	if err != nil {
		return err
	}
	for _, root := range owned {
		if root == nil {
			continue
		}
		records, err := c.versions.ListByRoot(ctx, root.ID)
		if err != nil {
			return err
		}
		for _, record := range records {
			if record == nil || record.Status.IsArchived() {
				continue
			}
			if _, err := c.Archive(ctx, ArchiveRequest{
				VersionID: record.ID,
				Actor:     actor,
				Cascade:   true,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// pruneConnections drops relations pointing at or leaving the archived root.
func (c *coordinator) pruneConnections(ctx context.Context, rootID uuid.UUID) error {
	if c.connections == nil {
		return nil
	}
	inbound, err := c.connections.ListTo(ctx, rootID)
	if err != nil {
		return err
	}
	outbound, err := c.connections.ListFrom(ctx, rootID)
	if err != nil {
		return err
	}
	for _, link := range append(inbound, outbound...) {
		if link == nil {
			continue
		}
		if err := c.connections.Delete(ctx, link.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *coordinator) currentPublished(ctx context.Context, rootID, excludeID uuid.UUID) (*version.Version, error) {
	records, err := c.versions.ListByRoot(ctx, rootID)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record == nil || record.ID == excludeID {
			continue
		}
		if record.Status == domain.StatusPublished {
			return record, nil
		}
	}
	return nil, nil
}

func (c *coordinator) record(ctx context.Context, record *version.Version, action domain.ActionKind, actor uuid.UUID, languages []string, metadata map[string]any) {
	if c.history == nil {
		return
	}
	_ = c.history.Record(ctx, history.Entry{
		ID:           uuid.New(),
		EntityKind:   record.Kind,
		VersionID:    record.ID,
		UnificRootID: record.UnificRootID,
		Action:       action,
		Actor:        actor,
		OccurredAt:   c.now(),
		Languages:    languages,
		Metadata:     metadata,
	})
}

func (c *coordinator) result(record *version.Version, languages []string, scheduled bool) *Result {
	return &Result{
		VersionID: record.ID,
		RootID:    record.UnificRootID,
		Status:    record.Status,
		Languages: languages,
		Scheduled: scheduled,
	}
}

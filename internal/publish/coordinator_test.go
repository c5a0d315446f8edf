package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/lock"
	"github.com/goliatone/go-lifecycle/internal/schedule"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

type coordinatorFixture struct {
	versions    *version.MemoryVersionRepository
	roots       *version.MemoryRootRepository
	connections *version.MemoryConnectionRepository
	locks       *lock.Manager
	scheduler   interfaces.Scheduler
	history     *history.InMemoryRecorder
	now         time.Time
	coordinator Coordinator
}

func newCoordinatorFixture(t *testing.T, opts ...Option) *coordinatorFixture {
	t.Helper()

	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	f := &coordinatorFixture{
		versions:    version.NewMemoryVersionRepository(),
		roots:       version.NewMemoryRootRepository(),
		connections: version.NewMemoryConnectionRepository(),
		history:     history.NewInMemoryRecorder(),
		now:         now,
	}
	f.locks = lock.NewManager(lock.NewMemoryRepository(), lock.WithClock(func() time.Time { return now }))
	f.scheduler = schedule.NewInMemory(schedule.WithClock(func() time.Time { return now }))

	base := []Option{
		WithClock(func() time.Time { return f.now }),
		WithScheduler(f.scheduler),
		WithHistory(f.history),
	}
	f.coordinator = NewCoordinator(f.versions, f.roots, f.connections, f.locks, append(base, opts...)...)
	return f
}

func (f *coordinatorFixture) seedVersion(t *testing.T, kind domain.EntityKind, status domain.PublishingStatus, languages ...string) *version.Version {
	t.Helper()

	ctx := context.Background()
	root, err := f.roots.Create(ctx, &version.Root{ID: uuid.New(), Kind: kind, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	record := &version.Version{
		ID:           uuid.New(),
		UnificRootID: root.ID,
		Kind:         kind,
		Status:       status,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    f.now,
		ModifiedAt:   f.now,
	}
	for _, code := range languages {
		record.Languages = append(record.Languages, &version.LanguageAvailability{
			ID:              uuid.New(),
			EntityVersionID: record.ID,
			Language:        code,
			Status:          status,
		})
	}
	created, err := f.versions.Create(ctx, record)
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	return created
}

func (f *coordinatorFixture) reload(t *testing.T, id uuid.UUID) *version.Version {
	t.Helper()
	record, err := f.versions.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload version %s: %v", id, err)
	}
	return record
}

func TestPublishPromotesLanguages(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi", "sv")
	actor := uuid.New()

	result, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		PublishedBy: actor,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Scheduled {
		t.Fatal("expected immediate publish, got scheduled result")
	}

	stored := f.reload(t, draft.ID)
	if got := stored.LanguageByCode("fi").Status; got != domain.StatusPublished {
		t.Fatalf("fi status = %s, want published", got)
	}
	if got := stored.LanguageByCode("sv").Status; got != domain.StatusDraft {
		t.Fatalf("sv status = %s, want draft untouched", got)
	}
	if stored.Status != domain.StatusPublished {
		t.Fatalf("aggregate status = %s, want published", stored.Status)
	}
	if stored.ModifiedBy != actor {
		t.Fatalf("modified_by = %s, want actor %s", stored.ModifiedBy, actor)
	}
}

func TestPublishDemotesPreviousPublished(t *testing.T) {
	f := newCoordinatorFixture(t)
	previous := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi", "sv")

	next := &version.Version{
		ID:           uuid.New(),
		UnificRootID: previous.UnificRootID,
		Kind:         domain.KindService,
		Status:       domain.StatusModified,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    f.now.Add(time.Hour),
		ModifiedAt:   f.now.Add(time.Hour),
		Languages: []*version.LanguageAvailability{
			{ID: uuid.New(), Language: "fi", Status: domain.StatusModified},
		},
	}
	if _, err := f.versions.Create(context.Background(), next); err != nil {
		t.Fatalf("create successor: %v", err)
	}

	if _, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   next.ID,
		Languages:   []string{"fi"},
		PublishedBy: uuid.New(),
	}); err != nil {
		t.Fatalf("publish successor: %v", err)
	}

	demoted := f.reload(t, previous.ID)
	if demoted.Status != domain.StatusOldPublished {
		t.Fatalf("previous status = %s, want old_published", demoted.Status)
	}
	for _, lang := range demoted.Languages {
		if lang.Status != domain.StatusOldPublished {
			t.Fatalf("previous %s status = %s, want old_published", lang.Language, lang.Status)
		}
	}
	promoted := f.reload(t, next.ID)
	if promoted.Status != domain.StatusPublished {
		t.Fatalf("successor status = %s, want published", promoted.Status)
	}
}

func TestPublishValidationFailureBlocksAllLanguages(t *testing.T) {
	validator := interfaces.EntityValidatorFunc(func(_ context.Context, _ uuid.UUID, _ []string) ([]interfaces.FieldIssue, error) {
		return []interfaces.FieldIssue{{Language: "sv", Field: "summary", Message: "required"}}, nil
	})
	f := newCoordinatorFixture(t, WithValidator(validator))
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi", "sv")

	_, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi", "sv"},
		PublishedBy: uuid.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 1 || verr.Issues[0].Field != "summary" {
		t.Fatalf("unexpected issues: %+v", verr.Issues)
	}

	stored := f.reload(t, draft.ID)
	if got := stored.LanguageByCode("fi").Status; got != domain.StatusDraft {
		t.Fatalf("fi status = %s, want draft after failed publish", got)
	}
}

func TestPublishUnknownLanguage(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")

	if _, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"en"},
		PublishedBy: uuid.New(),
	}); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestPublishRefusedWhileLockedByOther(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")

	editor := uuid.New()
	if ok, err := f.locks.TryLock(context.Background(), draft.UnificRootID, editor); err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}

	_, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		PublishedBy: uuid.New(),
	})
	var conflict *LockConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected LockConflictError, got %v", err)
	}

	// The lock holder still gets through.
	if _, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		PublishedBy: editor,
	}); err != nil {
		t.Fatalf("publish as lock holder: %v", err)
	}
}

func TestScheduledPublishEnqueuesKeyedJob(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")
	runAt := f.now.Add(48 * time.Hour)

	result, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		ScheduledAt: &runAt,
		PublishedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("schedule publish: %v", err)
	}
	if !result.Scheduled {
		t.Fatal("expected scheduled result")
	}

	stored := f.reload(t, draft.ID)
	lang := stored.LanguageByCode("fi")
	if lang.Status != domain.StatusDraft {
		t.Fatalf("fi status = %s, want draft until the sweep fires", lang.Status)
	}
	if lang.ValidFrom == nil || !lang.ValidFrom.Equal(runAt) {
		t.Fatalf("valid_from = %v, want %v", lang.ValidFrom, runAt)
	}

	job, err := f.scheduler.GetByKey(context.Background(), schedule.PublishJobKey(draft.ID))
	if err != nil {
		t.Fatalf("get job by key: %v", err)
	}
	if !job.RunAt.Equal(runAt) {
		t.Fatalf("job run_at = %v, want %v", job.RunAt, runAt)
	}

	// Rescheduling replaces the pending job instead of stacking a second one.
	later := f.now.Add(72 * time.Hour)
	if _, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		ScheduledAt: &later,
		PublishedBy: uuid.New(),
	}); err != nil {
		t.Fatalf("reschedule publish: %v", err)
	}
	job, err = f.scheduler.GetByKey(context.Background(), schedule.PublishJobKey(draft.ID))
	if err != nil {
		t.Fatalf("get replaced job: %v", err)
	}
	if !job.RunAt.Equal(later) {
		t.Fatalf("replaced job run_at = %v, want %v", job.RunAt, later)
	}
}

func TestScheduledPublishRunsValidatorUpFront(t *testing.T) {
	validator := interfaces.EntityValidatorFunc(func(_ context.Context, _ uuid.UUID, _ []string) ([]interfaces.FieldIssue, error) {
		return []interfaces.FieldIssue{{Language: "fi", Field: "name", Message: "required"}}, nil
	})
	f := newCoordinatorFixture(t, WithValidator(validator))
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")
	runAt := f.now.Add(48 * time.Hour)

	_, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		ScheduledAt: &runAt,
		PublishedBy: uuid.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError at schedule time, got %v", err)
	}

	stored := f.reload(t, draft.ID)
	if stored.LanguageByCode("fi").ValidFrom != nil {
		t.Fatal("rejected schedule must not stamp valid_from")
	}
	if _, err := f.scheduler.GetByKey(context.Background(), schedule.PublishJobKey(draft.ID)); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("rejected schedule must not enqueue a job, got %v", err)
	}
}

func TestScheduledPublishAfterScheduledArchiveRejected(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")

	archiveAt := f.now.Add(24 * time.Hour)
	stored := f.reload(t, draft.ID)
	stored.LanguageByCode("fi").ValidTo = &archiveAt
	if _, err := f.versions.Update(context.Background(), stored); err != nil {
		t.Fatalf("seed valid_to: %v", err)
	}

	publishAt := f.now.Add(48 * time.Hour)
	_, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		ScheduledAt: &publishAt,
		PublishedBy: uuid.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for inverted window, got %v", err)
	}
}

func TestWithdrawDemotesToModified(t *testing.T) {
	f := newCoordinatorFixture(t)
	published := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi", "sv")

	result, err := f.coordinator.Withdraw(context.Background(), published.ID, uuid.New())
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.Status != domain.StatusModified {
		t.Fatalf("result status = %s, want modified", result.Status)
	}

	stored := f.reload(t, published.ID)
	for _, lang := range stored.Languages {
		if lang.Status != domain.StatusModified {
			t.Fatalf("%s status = %s, want modified", lang.Language, lang.Status)
		}
	}
}

func TestWithdrawRequiresPublished(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")

	if _, err := f.coordinator.Withdraw(context.Background(), draft.ID, uuid.New()); !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
}

func TestWithdrawOrganizationBlockedByLiveDependents(t *testing.T) {
	f := newCoordinatorFixture(t)
	org := f.seedVersion(t, domain.KindOrganization, domain.StatusPublished, "fi")

	serviceRoot, err := f.roots.Create(context.Background(), &version.Root{
		ID:                 uuid.New(),
		Kind:               domain.KindService,
		OrganizationRootID: &org.UnificRootID,
		CreatedAt:          f.now,
	})
	if err != nil {
		t.Fatalf("create service root: %v", err)
	}
	service := &version.Version{
		ID:           uuid.New(),
		UnificRootID: serviceRoot.ID,
		Kind:         domain.KindService,
		Status:       domain.StatusPublished,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    f.now,
		ModifiedAt:   f.now,
	}
	if _, err := f.versions.Create(context.Background(), service); err != nil {
		t.Fatalf("create service version: %v", err)
	}

	_, err = f.coordinator.Withdraw(context.Background(), org.ID, uuid.New())
	var connected *ConnectedEntitiesError
	if !errors.As(err, &connected) {
		t.Fatalf("expected ConnectedEntitiesError, got %v", err)
	}
	if len(connected.Dependents) != 1 || connected.Dependents[0] != serviceRoot.ID {
		t.Fatalf("dependents = %v, want [%s]", connected.Dependents, serviceRoot.ID)
	}

	// Archiving the dependent clears the guard.
	if _, err := f.coordinator.Archive(context.Background(), ArchiveRequest{VersionID: service.ID, Actor: uuid.New()}); err != nil {
		t.Fatalf("archive dependent: %v", err)
	}
	if _, err := f.coordinator.Withdraw(context.Background(), org.ID, uuid.New()); err != nil {
		t.Fatalf("withdraw after dependents archived: %v", err)
	}
}

func TestRestoreWithdrawnVersion(t *testing.T) {
	f := newCoordinatorFixture(t)
	published := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi")
	actor := uuid.New()

	if _, err := f.coordinator.Withdraw(context.Background(), published.ID, actor); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	result, err := f.coordinator.Restore(context.Background(), published.ID, actor)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.Status != domain.StatusPublished {
		t.Fatalf("restored status = %s, want published", result.Status)
	}
}

func TestRestoreModifiedBranchDemotesPublishedSibling(t *testing.T) {
	f := newCoordinatorFixture(t)
	published := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi", "sv")

	branch := &version.Version{
		ID:           uuid.New(),
		UnificRootID: published.UnificRootID,
		Kind:         domain.KindService,
		Status:       domain.StatusModified,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    f.now.Add(time.Hour),
		ModifiedAt:   f.now.Add(time.Hour),
		Languages: []*version.LanguageAvailability{
			{ID: uuid.New(), Language: "fi", Status: domain.StatusModified},
		},
	}
	if _, err := f.versions.Create(context.Background(), branch); err != nil {
		t.Fatalf("create modified branch: %v", err)
	}

	result, err := f.coordinator.Restore(context.Background(), branch.ID, uuid.New())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.Status != domain.StatusPublished {
		t.Fatalf("restored status = %s, want published", result.Status)
	}

	demoted := f.reload(t, published.ID)
	if demoted.Status != domain.StatusOldPublished {
		t.Fatalf("sibling status = %s, want old_published", demoted.Status)
	}
	for _, lang := range demoted.Languages {
		if lang.Status == domain.StatusPublished {
			t.Fatalf("sibling %s still published after restore", lang.Language)
		}
	}

	records, err := f.versions.ListByRoot(context.Background(), branch.UnificRootID)
	if err != nil {
		t.Fatalf("list root: %v", err)
	}
	publishedCount := 0
	for _, record := range records {
		if record.Status == domain.StatusPublished {
			publishedCount++
		}
	}
	if publishedCount != 1 {
		t.Fatalf("root holds %d published versions, want exactly 1", publishedCount)
	}
}

func TestRestoreArchivedVersionReturnsDraft(t *testing.T) {
	f := newCoordinatorFixture(t)
	archived := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi")
	actor := uuid.New()

	if _, err := f.coordinator.Archive(context.Background(), ArchiveRequest{VersionID: archived.ID, Actor: actor}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	result, err := f.coordinator.Restore(context.Background(), archived.ID, actor)
	if err != nil {
		t.Fatalf("restore archived: %v", err)
	}
	if result.Status != domain.StatusDraft {
		t.Fatalf("restored status = %s, want draft", result.Status)
	}
	stored := f.reload(t, archived.ID)
	lang := stored.LanguageByCode("fi")
	if lang.SetForArchivedBy != nil || lang.SetForArchived != nil {
		t.Fatal("archive markers should be cleared on restore")
	}
}

func TestArchiveIsIdempotent(t *testing.T) {
	f := newCoordinatorFixture(t)
	record := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi")
	actor := uuid.New()

	if _, err := f.coordinator.Archive(context.Background(), ArchiveRequest{VersionID: record.ID, Actor: actor}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	before := len(f.history.Entries())
	result, err := f.coordinator.Archive(context.Background(), ArchiveRequest{VersionID: record.ID, Actor: actor})
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if result.Status != domain.StatusRemoved {
		t.Fatalf("status = %s, want removed", result.Status)
	}
	if got := len(f.history.Entries()); got != before {
		t.Fatalf("history grew from %d to %d on idempotent archive", before, got)
	}
}

func TestArchivePrunesConnections(t *testing.T) {
	f := newCoordinatorFixture(t)
	service := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi")
	channel := f.seedVersion(t, domain.KindChannel, domain.StatusPublished, "fi")

	link, err := f.connections.Create(context.Background(), &version.Connection{
		ID:         uuid.New(),
		FromRootID: service.UnificRootID,
		ToRootID:   channel.UnificRootID,
		Kind:       domain.ConnectionServiceChannel,
		CreatedAt:  f.now,
	})
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}

	if _, err := f.coordinator.Archive(context.Background(), ArchiveRequest{VersionID: service.ID, Actor: uuid.New()}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	remaining, err := f.connections.ListFrom(context.Background(), service.UnificRootID)
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("connection %s still present after archive", link.ID)
	}
}

func TestArchiveCascadesFromOrganization(t *testing.T) {
	f := newCoordinatorFixture(t)
	org := f.seedVersion(t, domain.KindOrganization, domain.StatusPublished, "fi")

	serviceRoot, err := f.roots.Create(context.Background(), &version.Root{
		ID:                 uuid.New(),
		Kind:               domain.KindService,
		OrganizationRootID: &org.UnificRootID,
		CreatedAt:          f.now,
	})
	if err != nil {
		t.Fatalf("create service root: %v", err)
	}
	service := &version.Version{
		ID:           uuid.New(),
		UnificRootID: serviceRoot.ID,
		Kind:         domain.KindService,
		Status:       domain.StatusPublished,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    f.now,
		ModifiedAt:   f.now,
		Languages: []*version.LanguageAvailability{
			{ID: uuid.New(), Language: "fi", Status: domain.StatusPublished},
		},
	}
	if _, err := f.versions.Create(context.Background(), service); err != nil {
		t.Fatalf("create service version: %v", err)
	}

	if _, err := f.coordinator.Archive(context.Background(), ArchiveRequest{
		VersionID: org.ID,
		Actor:     uuid.New(),
		Cascade:   true,
	}); err != nil {
		t.Fatalf("cascade archive: %v", err)
	}

	if got := f.reload(t, service.ID).Status; got != domain.StatusRemoved {
		t.Fatalf("owned service status = %s, want removed after cascade", got)
	}
}

func TestScheduledArchiveBeforeScheduledPublishRejected(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")

	publishAt := f.now.Add(72 * time.Hour)
	stored := f.reload(t, draft.ID)
	stored.LanguageByCode("fi").ValidFrom = &publishAt
	if _, err := f.versions.Update(context.Background(), stored); err != nil {
		t.Fatalf("seed valid_from: %v", err)
	}

	archiveAt := f.now.Add(24 * time.Hour)
	_, err := f.coordinator.Archive(context.Background(), ArchiveRequest{
		VersionID:   draft.ID,
		Actor:       uuid.New(),
		ScheduledAt: &archiveAt,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for inverted window, got %v", err)
	}
}

func TestScheduledArchiveStampsValidTo(t *testing.T) {
	f := newCoordinatorFixture(t)
	published := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi")
	actor := uuid.New()
	archiveAt := f.now.Add(24 * time.Hour)

	result, err := f.coordinator.Archive(context.Background(), ArchiveRequest{
		VersionID:   published.ID,
		Actor:       actor,
		ScheduledAt: &archiveAt,
	})
	if err != nil {
		t.Fatalf("schedule archive: %v", err)
	}
	if !result.Scheduled {
		t.Fatal("expected scheduled result")
	}

	stored := f.reload(t, published.ID)
	lang := stored.LanguageByCode("fi")
	if lang.Status != domain.StatusPublished {
		t.Fatalf("status = %s, want published until the sweep fires", lang.Status)
	}
	if lang.ValidTo == nil || !lang.ValidTo.Equal(archiveAt) {
		t.Fatalf("valid_to = %v, want %v", lang.ValidTo, archiveAt)
	}
	if _, err := f.scheduler.GetByKey(context.Background(), schedule.ArchiveJobKey(published.ID)); err != nil {
		t.Fatalf("archive job missing: %v", err)
	}
}

func TestArchiveAndRestoreSingleLanguage(t *testing.T) {
	f := newCoordinatorFixture(t)
	published := f.seedVersion(t, domain.KindService, domain.StatusPublished, "fi", "sv")
	actor := uuid.New()

	if _, err := f.coordinator.ArchiveLanguage(context.Background(), published.ID, "sv", actor); err != nil {
		t.Fatalf("archive language: %v", err)
	}
	stored := f.reload(t, published.ID)
	if got := stored.LanguageByCode("sv").Status; got != domain.StatusRemoved {
		t.Fatalf("sv status = %s, want removed", got)
	}
	if got := stored.LanguageByCode("fi").Status; got != domain.StatusPublished {
		t.Fatalf("fi status = %s, want published untouched", got)
	}
	if stored.Status != domain.StatusPublished {
		t.Fatalf("aggregate status = %s, want published while one language lives", stored.Status)
	}

	if _, err := f.coordinator.RestoreLanguage(context.Background(), published.ID, "sv", actor); err != nil {
		t.Fatalf("restore language: %v", err)
	}
	stored = f.reload(t, published.ID)
	if got := stored.LanguageByCode("sv").Status; got != domain.StatusDraft {
		t.Fatalf("sv status = %s, want draft after restore", got)
	}
}

func TestPublishRecordsHistory(t *testing.T) {
	f := newCoordinatorFixture(t)
	draft := f.seedVersion(t, domain.KindService, domain.StatusDraft, "fi")
	actor := uuid.New()

	if _, err := f.coordinator.Publish(context.Background(), PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		PublishedBy: actor,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries, err := f.history.ListByRoot(context.Background(), draft.UnificRootID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Action != domain.ActionPublished {
		t.Fatalf("action = %s, want published", entry.Action)
	}
	if entry.Actor != actor {
		t.Fatalf("actor = %s, want %s", entry.Actor, actor)
	}
	if len(entry.Languages) != 1 || entry.Languages[0] != "fi" {
		t.Fatalf("languages = %v, want [fi]", entry.Languages)
	}
}

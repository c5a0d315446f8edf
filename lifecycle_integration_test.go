package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-lifecycle/internal/di"
	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/masstool"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/google/uuid"
)

func memoryConfig() Config {
	cfg := DefaultConfig()
	cfg.Storage.Provider = "memory"
	cfg.Cache.Enabled = false
	return cfg
}

func newTestModule(t *testing.T, now time.Time) *Module {
	t.Helper()
	module, err := New(memoryConfig(), di.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return module
}

func seedDraft(t *testing.T, module *Module, kind domain.EntityKind, languages []string) *version.Version {
	t.Helper()
	draft, err := module.Versions().CreateDraft(context.Background(), version.CreateDraftRequest{
		Kind:      kind,
		Languages: languages,
		CreatedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return draft
}

func TestModulePublishLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	module := newTestModule(t, now)
	actor := uuid.New()

	draft := seedDraft(t, module, domain.KindService, []string{"fi", "sv"})

	result, err := module.Publishing().Publish(ctx, publish.PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi", "sv"},
		PublishedBy: actor,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Status != domain.StatusPublished {
		t.Fatalf("expected published, got %s", result.Status)
	}

	resolved, err := module.Versions().Resolve(ctx, result.RootID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Published == nil || resolved.Published.ID != draft.ID {
		t.Fatalf("expected published slot to hold the draft")
	}
	if resolved.Draft != nil || resolved.Modified != nil {
		t.Fatalf("expected no editable branch after publish")
	}

	// Copy-on-write edit, then republishing demotes the old version.
	edited, err := module.Versions().CreateCopy(ctx, version.CopyRequest{
		SourceVersionID: draft.ID,
		TargetStatus:    domain.StatusModified,
		CopiedBy:        actor,
	})
	if err != nil {
		t.Fatalf("create copy: %v", err)
	}
	if edited.ID == draft.ID {
		t.Fatalf("expected a fresh version id for the copy")
	}

	if _, err := module.Publishing().Publish(ctx, publish.PublishRequest{
		VersionID:   edited.ID,
		Languages:   []string{"fi", "sv"},
		PublishedBy: actor,
	}); err != nil {
		t.Fatalf("republish: %v", err)
	}

	resolved, err = module.Versions().Resolve(ctx, result.RootID)
	if err != nil {
		t.Fatalf("resolve after republish: %v", err)
	}
	if resolved.Published == nil || resolved.Published.ID != edited.ID {
		t.Fatalf("expected the copy to be the published version")
	}

	previous, err := module.Container().VersionRepository().GetByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("reload previous: %v", err)
	}
	if previous.Status != domain.StatusOldPublished {
		t.Fatalf("expected old_published, got %s", previous.Status)
	}

	entries, err := module.History().ListByRoot(ctx, result.RootID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected history entries for both publishes, got %d", len(entries))
	}
}

func TestModuleScheduledPublishSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	module := newTestModule(t, now)
	actor := uuid.New()

	draft := seedDraft(t, module, domain.KindChannel, []string{"fi"})

	publishAt := now.Add(24 * time.Hour)
	result, err := module.Publishing().Publish(ctx, publish.PublishRequest{
		VersionID:   draft.ID,
		Languages:   []string{"fi"},
		ScheduledAt: &publishAt,
		PublishedBy: actor,
	})
	if err != nil {
		t.Fatalf("schedule publish: %v", err)
	}
	if !result.Scheduled {
		t.Fatalf("expected scheduled result")
	}

	// Nothing due yet.
	sweepResult, err := module.Sweeper().RunDueTransitions(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(sweepResult.Published) != 0 {
		t.Fatalf("expected nothing due, got %d", len(sweepResult.Published))
	}

	sweepResult, err = module.Sweeper().RunDueTransitions(ctx, publishAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("sweep after due: %v", err)
	}
	if len(sweepResult.Published) != 1 || sweepResult.Published[0] != draft.ID {
		t.Fatalf("expected draft published by sweep, got %v", sweepResult.Published)
	}

	reloaded, err := module.Container().VersionRepository().GetByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != domain.StatusPublished {
		t.Fatalf("expected published after sweep, got %s", reloaded.Status)
	}
}

func TestModuleMassToolQuota(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

	cfg := memoryConfig()
	cfg.MassTool.MaxLanguageVersions = 2
	module, err := New(cfg, di.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	draft := seedDraft(t, module, domain.KindService, []string{"fi", "sv", "en"})

	_, err = module.MassTool().Apply(ctx, masstool.Request{
		Operation: masstool.OperationPublish,
		Entities: []masstool.Entity{
			{Kind: domain.KindService, VersionID: draft.ID, Languages: []string{"fi", "sv", "en"}},
		},
		Actor: uuid.New(),
	})
	var quota *masstool.QuotaExceededError
	if !errors.As(err, &quota) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
}

func TestModuleFeatureToggles(t *testing.T) {
	cfg := memoryConfig()
	cfg.Features.Scheduling = false
	cfg.Features.MassTool = false
	cfg.Features.Translations = false
	cfg.Translation.Enabled = false

	module, err := New(cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	if module.Sweeper() != nil {
		t.Fatal("expected no sweeper when scheduling is off")
	}
	if module.MassTool() != nil {
		t.Fatal("expected no mass tool when feature is off")
	}
	if module.Translations() != nil {
		t.Fatal("expected no translation service when feature is off")
	}
	if module.TranslationsEnabled() {
		t.Fatal("expected translations disabled")
	}
}

package version

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
)

type registryFixture struct {
	roots       *MemoryRootRepository
	versions    *MemoryVersionRepository
	connections *MemoryConnectionRepository
	now         time.Time
	registry    Registry
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()

	f := &registryFixture{
		roots:       NewMemoryRootRepository(),
		versions:    NewMemoryVersionRepository(),
		connections: NewMemoryConnectionRepository(),
		now:         time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC),
	}
	f.registry = NewRegistry(f.roots, f.versions, f.connections,
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func TestCreateDraftSeedsRootAndLanguages(t *testing.T) {
	f := newRegistryFixture(t)
	orgID := uuid.New()
	creator := uuid.New()

	draft, err := f.registry.CreateDraft(context.Background(), CreateDraftRequest{
		Kind:           domain.KindService,
		OrganizationID: &orgID,
		Languages:      []string{"fi", "sv"},
		Texts: []*LocalizedText{
			{Language: "fi", Kind: "name", Content: map[string]any{"text": "Neuvontapalvelu"}},
		},
		CreatedBy: creator,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	if draft.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want draft", draft.Status)
	}
	if len(draft.Languages) != 2 {
		t.Fatalf("languages = %d, want 2", len(draft.Languages))
	}
	for _, lang := range draft.Languages {
		if lang.Status != domain.StatusDraft {
			t.Fatalf("%s status = %s, want draft", lang.Language, lang.Status)
		}
		if lang.EntityVersionID != draft.ID {
			t.Fatalf("%s availability parented to %s, want %s", lang.Language, lang.EntityVersionID, draft.ID)
		}
	}
	if len(draft.Texts) != 1 || draft.Texts[0].EntityVersionID != draft.ID {
		t.Fatalf("text rows not reparented onto the draft: %+v", draft.Texts)
	}

	root, err := f.roots.GetByID(context.Background(), draft.UnificRootID)
	if err != nil {
		t.Fatalf("root not created: %v", err)
	}
	if root.Kind != domain.KindService {
		t.Fatalf("root kind = %s, want service", root.Kind)
	}
	if root.OrganizationRootID == nil || *root.OrganizationRootID != orgID {
		t.Fatalf("root organization = %v, want %s", root.OrganizationRootID, orgID)
	}
}

func TestCreateDraftOrganizationHasNoOwner(t *testing.T) {
	f := newRegistryFixture(t)
	owner := uuid.New()

	draft, err := f.registry.CreateDraft(context.Background(), CreateDraftRequest{
		Kind:           domain.KindOrganization,
		OrganizationID: &owner,
		Languages:      []string{"fi"},
		CreatedBy:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	root, err := f.roots.GetByID(context.Background(), draft.UnificRootID)
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	if root.OrganizationRootID != nil {
		t.Fatalf("organization root must not point at an owner, got %s", root.OrganizationRootID)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	f := newRegistryFixture(t)

	if _, err := f.registry.CreateDraft(context.Background(), CreateDraftRequest{
		Languages: []string{"fi"},
	}); !errors.Is(err, ErrKindRequired) {
		t.Fatalf("expected ErrKindRequired, got %v", err)
	}
	if _, err := f.registry.CreateDraft(context.Background(), CreateDraftRequest{
		Kind: domain.KindService,
	}); !errors.Is(err, ErrNoLanguages) {
		t.Fatalf("expected ErrNoLanguages, got %v", err)
	}
}

func TestResolveMapsStatusSlots(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	root, err := f.roots.Create(ctx, &Root{ID: uuid.New(), Kind: domain.KindService, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	published := seedRegistryVersion(t, f, root.ID, domain.StatusPublished, f.now)
	modified := seedRegistryVersion(t, f, root.ID, domain.StatusModified, f.now.Add(time.Hour))
	seedRegistryVersion(t, f, root.ID, domain.StatusRemoved, f.now.Add(2*time.Hour))

	resolved, err := f.registry.Resolve(ctx, root.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Published == nil || resolved.Published.ID != published.ID {
		t.Fatalf("published slot = %+v, want %s", resolved.Published, published.ID)
	}
	if resolved.Modified == nil || resolved.Modified.ID != modified.ID {
		t.Fatalf("modified slot = %+v, want %s", resolved.Modified, modified.ID)
	}
	if resolved.Draft != nil {
		t.Fatalf("draft slot should be empty, got %s", resolved.Draft.ID)
	}
	if got := resolved.Editable(); got == nil || got.ID != modified.ID {
		t.Fatalf("editable = %+v, want the modified branch", got)
	}
}

func TestResolveUnknownRoot(t *testing.T) {
	f := newRegistryFixture(t)

	_, err := f.registry.Resolve(context.Background(), uuid.New())
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCreateCopyKeepsRootAndDemotesLanguages(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	root, err := f.roots.Create(ctx, &Root{ID: uuid.New(), Kind: domain.KindService, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	source := seedRegistryVersion(t, f, root.ID, domain.StatusPublished, f.now)
	source.Texts = []*LocalizedText{
		{ID: uuid.New(), EntityVersionID: source.ID, Language: "fi", Kind: "name", Content: map[string]any{"text": "Alkuperäinen"}},
	}
	if _, err := f.versions.Update(ctx, source); err != nil {
		t.Fatalf("seed texts: %v", err)
	}

	editor := uuid.New()
	copied, err := f.registry.CreateCopy(ctx, CopyRequest{
		SourceVersionID: source.ID,
		TargetStatus:    domain.StatusModified,
		CopiedBy:        editor,
	})
	if err != nil {
		t.Fatalf("create copy: %v", err)
	}

	if copied.ID == source.ID {
		t.Fatal("copy must get a new version identity")
	}
	if copied.UnificRootID != root.ID {
		t.Fatalf("copy root = %s, want source root %s", copied.UnificRootID, root.ID)
	}
	if copied.Status != domain.StatusModified {
		t.Fatalf("copy status = %s, want modified", copied.Status)
	}
	if copied.CreatedBy != editor || copied.ModifiedBy != editor {
		t.Fatalf("copy attribution = %s/%s, want %s", copied.CreatedBy, copied.ModifiedBy, editor)
	}
	for _, lang := range copied.Languages {
		if lang.Status != domain.StatusModified {
			t.Fatalf("copied %s status = %s, want modified", lang.Language, lang.Status)
		}
	}
	if len(copied.Texts) != 1 {
		t.Fatalf("texts = %d, want 1", len(copied.Texts))
	}
	if copied.Texts[0].ID == source.Texts[0].ID {
		t.Fatal("text rows must not be shared between source and copy")
	}
	if copied.Texts[0].EntityVersionID != copied.ID {
		t.Fatalf("text parented to %s, want %s", copied.Texts[0].EntityVersionID, copied.ID)
	}

	// The source snapshot stays untouched.
	stored, err := f.versions.GetByID(ctx, source.ID)
	if err != nil {
		t.Fatalf("reload source: %v", err)
	}
	if stored.Status != domain.StatusPublished {
		t.Fatalf("source status = %s, want published", stored.Status)
	}
}

func TestCreateCopyRejectsTerminalTarget(t *testing.T) {
	f := newRegistryFixture(t)
	root, err := f.roots.Create(context.Background(), &Root{ID: uuid.New(), Kind: domain.KindService, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	source := seedRegistryVersion(t, f, root.ID, domain.StatusPublished, f.now)

	if _, err := f.registry.CreateCopy(context.Background(), CopyRequest{
		SourceVersionID: source.ID,
		TargetStatus:    domain.StatusRemoved,
	}); !errors.Is(err, ErrTargetStatus) {
		t.Fatalf("expected ErrTargetStatus, got %v", err)
	}
}

func TestCreateCopyNewRootRewritesProducersAndConnections(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	templateOrg := uuid.New()
	otherOrg := uuid.New()
	targetOrg := uuid.New()

	root, err := f.roots.Create(ctx, &Root{ID: uuid.New(), Kind: domain.KindService, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	source := seedRegistryVersion(t, f, root.ID, domain.StatusPublished, f.now)
	source.OrganizationID = &templateOrg
	source.Producers = []*Producer{
		{ID: uuid.New(), EntityVersionID: source.ID, OrganizationID: templateOrg, Kind: ProducerKindSelfProduced},
		{ID: uuid.New(), EntityVersionID: source.ID, OrganizationID: otherOrg, Kind: "purchased"},
	}
	if _, err := f.versions.Update(ctx, source); err != nil {
		t.Fatalf("seed producers: %v", err)
	}

	channelRoot := uuid.New()
	if _, err := f.connections.Create(ctx, &Connection{
		ID:         uuid.New(),
		FromRootID: root.ID,
		ToRootID:   channelRoot,
		Kind:       domain.ConnectionServiceChannel,
		CreatedAt:  f.now,
	}); err != nil {
		t.Fatalf("seed connection: %v", err)
	}

	copied, err := f.registry.CreateCopy(ctx, CopyRequest{
		SourceVersionID:      source.ID,
		TargetOrganizationID: &targetOrg,
		NewRoot:              true,
		CopiedBy:             uuid.New(),
	})
	if err != nil {
		t.Fatalf("create copy: %v", err)
	}

	if copied.UnificRootID == root.ID {
		t.Fatal("copy must land on a fresh root")
	}
	if copied.OrganizationID == nil || *copied.OrganizationID != targetOrg {
		t.Fatalf("copy organization = %v, want %s", copied.OrganizationID, targetOrg)
	}

	producers := map[string]uuid.UUID{}
	for _, producer := range copied.Producers {
		producers[producer.Kind] = producer.OrganizationID
	}
	if producers[ProducerKindSelfProduced] != targetOrg {
		t.Fatalf("self-produced producer = %s, want rewritten to %s", producers[ProducerKindSelfProduced], targetOrg)
	}
	if producers["purchased"] != otherOrg {
		t.Fatalf("purchased producer = %s, want untouched %s", producers["purchased"], otherOrg)
	}

	links, err := f.connections.ListFrom(ctx, copied.UnificRootID)
	if err != nil {
		t.Fatalf("list copy connections: %v", err)
	}
	if len(links) != 1 || links[0].ToRootID != channelRoot {
		t.Fatalf("copy connections = %+v, want one link to %s", links, channelRoot)
	}

	// The template keeps its own link rows.
	original, err := f.connections.ListFrom(ctx, root.ID)
	if err != nil {
		t.Fatalf("list template connections: %v", err)
	}
	if len(original) != 1 {
		t.Fatalf("template connections = %d, want 1", len(original))
	}
}

func TestListDueQueries(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	root, err := f.roots.Create(ctx, &Root{ID: uuid.New(), Kind: domain.KindService, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	pending := seedRegistryVersion(t, f, root.ID, domain.StatusDraft, f.now)
	due := f.now.Add(-time.Hour)
	pending.Languages[0].ValidFrom = &due
	if _, err := f.versions.Update(ctx, pending); err != nil {
		t.Fatalf("seed valid_from: %v", err)
	}

	future := seedRegistryVersion(t, f, root.ID, domain.StatusDraft, f.now.Add(time.Minute))
	later := f.now.Add(time.Hour)
	future.Languages[0].ValidFrom = &later
	if _, err := f.versions.Update(ctx, future); err != nil {
		t.Fatalf("seed future valid_from: %v", err)
	}

	records, err := f.versions.ListDuePublish(ctx, f.now, 10)
	if err != nil {
		t.Fatalf("list due publish: %v", err)
	}
	if len(records) != 1 || records[0].ID != pending.ID {
		t.Fatalf("due publish = %+v, want only %s", records, pending.ID)
	}

	records, err = f.versions.ListDueArchive(ctx, f.now, 10)
	if err != nil {
		t.Fatalf("list due archive: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("due archive = %d records, want none", len(records))
	}
}

func seedRegistryVersion(t *testing.T, f *registryFixture, rootID uuid.UUID, status domain.PublishingStatus, createdAt time.Time) *Version {
	t.Helper()

	record := &Version{
		ID:           uuid.New(),
		UnificRootID: rootID,
		Kind:         domain.KindService,
		Status:       status,
		CreatedBy:    uuid.New(),
		ModifiedBy:   uuid.New(),
		CreatedAt:    createdAt,
		ModifiedAt:   createdAt,
		Languages: []*LanguageAvailability{
			{ID: uuid.New(), Language: "fi", Status: status},
		},
	}
	created, err := f.versions.Create(context.Background(), record)
	if err != nil {
		t.Fatalf("seed version: %v", err)
	}
	return created
}

package masstool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

// Operation names the bulk transition applied across the request.
type Operation string

const (
	OperationPublish Operation = "publish"
	OperationArchive Operation = "archive"
	OperationCopy    Operation = "copy"
	OperationRestore Operation = "restore"
)

// Entity targets one version inside a bulk request.
type Entity struct {
	Kind      domain.EntityKind
	VersionID uuid.UUID
	Languages []string
}

// Request is a heterogeneous bulk operation over many entities.
type Request struct {
	Operation            Operation
	Entities             []Entity
	ScheduledAt          *time.Time
	TargetOrganizationID *uuid.UUID
	Actor                uuid.UUID
}

// Result reports the per-entity outcome of a bulk run. Individual failures
// never surface as errors; only request-level violations do.
type Result struct {
	Succeeded []uuid.UUID
	Excluded  []uuid.UUID
	Failed    []uuid.UUID
}

// Counts summarizes the result sizes.
func (r *Result) Counts() (succeeded, excluded, failed int) {
	return len(r.Succeeded), len(r.Excluded), len(r.Failed)
}

const defaultMaxLanguageVersions = 500

var (
	ErrOperationRequired = errors.New("masstool: operation required")
	ErrNoEntities        = errors.New("masstool: at least one entity is required")
	ErrActorRequired     = errors.New("masstool: actor required")
)

// QuotaExceededError rejects a request whose total language-version count
// passes the configured ceiling. Nothing is mutated.
type QuotaExceededError struct {
	Requested int
	Ceiling   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("masstool: %d language versions requested, ceiling is %d", e.Requested, e.Ceiling)
}

// VersionReader resolves versions for pre-filtering.
type VersionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*version.Version, error)
}

// LockGuard reports externally held locks the filter must exclude.
type LockGuard interface {
	HeldByOther(ctx context.Context, rootID, actor uuid.UUID) (bool, error)
}

// Copier creates copy-on-write drafts for the copy operation.
type Copier interface {
	CreateCopy(ctx context.Context, req version.CopyRequest) (*version.Version, error)
}

// Option configures the service.
type Option func(*service)

// WithMaxLanguageVersions overrides the request-level quota ceiling.
func WithMaxLanguageVersions(ceiling int) Option {
	return func(s *service) {
		if ceiling > 0 {
			s.maxLanguageVersions = ceiling
		}
	}
}

// WithValidator installs the pre-filter validator collaborator.
func WithValidator(validator interfaces.EntityValidator) Option {
	return func(s *service) {
		if validator != nil {
			s.validator = validator
		}
	}
}

// WithLogger attaches a module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service applies bulk lifecycle operations with consistency pre-filtering.
type Service interface {
	Apply(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	coordinator         publish.Coordinator
	registry            Copier
	versions            VersionReader
	locks               LockGuard
	validator           interfaces.EntityValidator
	logger              interfaces.Logger
	maxLanguageVersions int
}

// NewService constructs the mass tool service.
func NewService(coordinator publish.Coordinator, registry Copier, versions VersionReader, locks LockGuard, opts ...Option) Service {
	s := &service{
		coordinator:         coordinator,
		registry:            registry,
		versions:            versions,
		locks:               locks,
		logger:              logging.NoOp(),
		maxLanguageVersions: defaultMaxLanguageVersions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs the requested operation across every eligible entity. Locked
// entities are excluded silently (logged), validation failures excluded next,
// and only then is the operation applied entity by entity.
func (s *service) Apply(ctx context.Context, req Request) (*Result, error) {
	if req.Operation == "" {
		return nil, ErrOperationRequired
	}
	if len(req.Entities) == 0 {
		return nil, ErrNoEntities
	}
	if req.Actor == uuid.Nil {
		return nil, ErrActorRequired
	}

	requested := 0
	for _, entity := range req.Entities {
		if count := len(entity.Languages); count > 0 {
			requested += count
		} else {
			requested++
		}
	}
	if requested > s.maxLanguageVersions {
		return nil, &QuotaExceededError{Requested: requested, Ceiling: s.maxLanguageVersions}
	}

	result := &Result{}
	eligible := make([]entityWork, 0, len(req.Entities))

	for _, entity := range req.Entities {
		record, err := s.versions.GetByID(ctx, entity.VersionID)
		if err != nil {
			result.Excluded = append(result.Excluded, entity.VersionID)
			s.logger.Warn("masstool.excluded.missing", "version_id", entity.VersionID, "error", err)
			continue
		}

		held, err := s.locks.HeldByOther(ctx, record.UnificRootID, req.Actor)
		if err != nil {
			result.Failed = append(result.Failed, entity.VersionID)
			continue
		}
		if held {
			result.Excluded = append(result.Excluded, entity.VersionID)
			s.logger.Info("masstool.excluded.locked",
				"version_id", entity.VersionID,
				"root_id", record.UnificRootID,
			)
			continue
		}

		eligible = append(eligible, entityWork{entity: entity, record: record})
	}

	if s.validator != nil && req.Operation == OperationPublish {
		eligible = s.filterValidation(ctx, eligible, result)
	}

	for _, work := range eligible {
		if err := s.apply(ctx, req, work); err != nil {
			result.Failed = append(result.Failed, work.entity.VersionID)
			s.logger.Warn("masstool.entity.failed",
				"operation", string(req.Operation),
				"version_id", work.entity.VersionID,
				"error", err,
			)
			continue
		}
		result.Succeeded = append(result.Succeeded, work.entity.VersionID)
	}

	succeeded, excluded, failed := result.Counts()
	s.logger.Info("masstool.completed",
		"operation", string(req.Operation),
		"succeeded", succeeded,
		"excluded", excluded,
		"failed", failed,
	)

	return result, nil
}

type entityWork struct {
	entity Entity
	record *version.Version
}

func (s *service) filterValidation(ctx context.Context, eligible []entityWork, result *Result) []entityWork {
	kept := eligible[:0]
	for _, work := range eligible {
		languages := work.entity.Languages
		if len(languages) == 0 {
			languages = allLanguages(work.record)
		}
		issues, err := s.validator.Validate(ctx, work.entity.VersionID, languages)
		if err != nil {
			result.Failed = append(result.Failed, work.entity.VersionID)
			continue
		}
		if len(issues) > 0 {
			result.Excluded = append(result.Excluded, work.entity.VersionID)
			s.logger.Info("masstool.excluded.validation",
				"version_id", work.entity.VersionID,
				"issues", len(issues),
			)
			continue
		}
		kept = append(kept, work)
	}
	return kept
}

func (s *service) apply(ctx context.Context, req Request, work entityWork) error {
	languages := work.entity.Languages
	if len(languages) == 0 {
		languages = allLanguages(work.record)
	}

	switch req.Operation {
	case OperationPublish:
		_, err := s.coordinator.Publish(ctx, publish.PublishRequest{
			VersionID:   work.entity.VersionID,
			Languages:   languages,
			ScheduledAt: req.ScheduledAt,
			PublishedBy: req.Actor,
		})
		return err
	case OperationArchive:
		_, err := s.coordinator.Archive(ctx, publish.ArchiveRequest{
			VersionID:   work.entity.VersionID,
			Actor:       req.Actor,
			Cascade:     true,
			ScheduledAt: req.ScheduledAt,
		})
		return err
	case OperationRestore:
		_, err := s.coordinator.Restore(ctx, work.entity.VersionID, req.Actor)
		return err
	case OperationCopy:
		_, err := s.registry.CreateCopy(ctx, version.CopyRequest{
			SourceVersionID:      work.entity.VersionID,
			TargetStatus:         domain.StatusDraft,
			TargetOrganizationID: req.TargetOrganizationID,
			NewRoot:              req.TargetOrganizationID != nil,
			CopiedBy:             req.Actor,
		})
		return err
	default:
		return fmt.Errorf("masstool: unsupported operation %q", req.Operation)
	}
}

func allLanguages(record *version.Version) []string {
	out := make([]string, 0, len(record.Languages))
	for _, lang := range record.Languages {
		if lang != nil {
			out = append(out, lang.Language)
		}
	}
	return out
}

package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/internal/schedule"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	defaultBatchSize      = 200
	defaultWriteGroupSize = 25
)

// VersionSource supplies the due work the engine consumes.
type VersionSource interface {
	ListDuePublish(ctx context.Context, asOf time.Time, limit int) ([]*version.Version, error)
	ListDueArchive(ctx context.Context, asOf time.Time, limit int) ([]*version.Version, error)
}

// Failure identifies one entity the sweep could not transition.
type Failure struct {
	VersionID uuid.UUID
	RootID    uuid.UUID
	Reason    string
}

// Result summarizes one sweep run.
type Result struct {
	AsOf        time.Time
	Published   []uuid.UUID
	Archived    []uuid.UUID
	Failed      []Failure
	WriteGroups int
}

// Engine promotes and archives entities whose scheduled dates have arrived.
// Each entity is processed in its own try/catch so one failure never aborts
// the remaining due work; commits happen per write-group.
type Engine struct {
	versions       VersionSource
	coordinator    publish.Coordinator
	scheduler      interfaces.Scheduler
	logger         interfaces.Logger
	now            func() time.Time
	batchSize      int
	writeGroupSize int
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithBatchSize bounds how many due entities one sweep pulls per phase.
func WithBatchSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithWriteGroupSize bounds how many entities share a commit group.
func WithWriteGroupSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.writeGroupSize = size
		}
	}
}

// WithScheduler lets the engine settle queued jobs for transitions it applies.
func WithScheduler(scheduler interfaces.Scheduler) Option {
	return func(e *Engine) {
		if scheduler != nil {
			e.scheduler = scheduler
		}
	}
}

// WithLogger attaches a module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs the scheduling engine.
func NewEngine(versions VersionSource, coordinator publish.Coordinator, opts ...Option) *Engine {
	e := &Engine{
		versions:       versions,
		coordinator:    coordinator,
		logger:         logging.NoOp(),
		now:            time.Now,
		batchSize:      defaultBatchSize,
		writeGroupSize: defaultWriteGroupSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunDueTransitions applies every publish and archive whose scheduled instant
// is at or before asOf.
func (e *Engine) RunDueTransitions(ctx context.Context, asOf time.Time) (*Result, error) {
	if e.versions == nil || e.coordinator == nil {
		return nil, errors.New("sweep: version source and coordinator are required")
	}
	if asOf.IsZero() {
		asOf = e.now()
	}

	result := &Result{AsOf: asOf}

	due, err := e.versions.ListDuePublish(ctx, asOf, e.batchSize)
	if err != nil {
		return nil, err
	}
	e.processGroups(ctx, due, result, func(ctx context.Context, record *version.Version) error {
		languages := duePublishLanguages(record, asOf)
		if len(languages) == 0 {
			return nil
		}
		if _, err := e.coordinator.Publish(ctx, publish.PublishRequest{
			VersionID: record.ID,
			Languages: languages,
		}); err != nil {
			return err
		}
		result.Published = append(result.Published, record.ID)
		e.settleJob(ctx, schedule.PublishJobKey(record.ID))
		return nil
	})

	due, err = e.versions.ListDueArchive(ctx, asOf, e.batchSize)
	if err != nil {
		return nil, err
	}
	e.processGroups(ctx, due, result, func(ctx context.Context, record *version.Version) error {
		if !hasDueArchive(record, asOf) {
			return nil
		}
		if _, err := e.coordinator.Archive(ctx, publish.ArchiveRequest{
			VersionID: record.ID,
			Cascade:   true,
		}); err != nil {
			return err
		}
		result.Archived = append(result.Archived, record.ID)
		e.settleJob(ctx, schedule.ArchiveJobKey(record.ID))
		return nil
	})

	e.logger.Info("sweep.completed",
		"as_of", asOf,
		"published", len(result.Published),
		"archived", len(result.Archived),
		"failed", len(result.Failed),
	)

	return result, nil
}

// processGroups walks due versions in bounded write-groups. A failing entity
// is recorded with its group's identifiers and skipped; siblings still run.
func (e *Engine) processGroups(ctx context.Context, records []*version.Version, result *Result, apply func(context.Context, *version.Version) error) {
	for start := 0; start < len(records); start += e.writeGroupSize {
		end := start + e.writeGroupSize
		if end > len(records) {
			end = len(records)
		}
		group := records[start:end]
		result.WriteGroups++

		for _, record := range group {
			if record == nil {
				continue
			}
			if err := apply(ctx, record); err != nil {
				result.Failed = append(result.Failed, Failure{
					VersionID: record.ID,
					RootID:    record.UnificRootID,
					Reason:    err.Error(),
				})
				e.logger.Warn("sweep.entity.failed",
					"version_id", record.ID,
					"root_id", record.UnificRootID,
					"group_ids", groupIDs(group),
					"error", err,
				)
			}
		}
	}
}

func (e *Engine) settleJob(ctx context.Context, key string) {
	if e.scheduler == nil {
		return
	}
	job, err := e.scheduler.GetByKey(ctx, key)
	if err != nil || job == nil {
		return
	}
	_ = e.scheduler.MarkDone(ctx, job.ID)
}

func duePublishLanguages(record *version.Version, asOf time.Time) []string {
	out := make([]string, 0)
	for _, lang := range record.Languages {
		if lang == nil || lang.ValidFrom == nil {
			continue
		}
		if lang.ValidFrom.After(asOf) || lang.Status.IsArchived() {
			continue
		}
		out = append(out, lang.Language)
	}
	return out
}

func hasDueArchive(record *version.Version, asOf time.Time) bool {
	for _, lang := range record.Languages {
		if lang == nil || lang.ValidTo == nil {
			continue
		}
		if !lang.ValidTo.After(asOf) && !lang.Status.IsArchived() {
			return true
		}
	}
	return false
}

func groupIDs(group []*version.Version) []string {
	ids := make([]string, 0, len(group))
	for _, record := range group {
		if record != nil {
			ids = append(ids, record.ID.String())
		}
	}
	return ids
}

package publishingcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const archiveVersionMessageType = "lifecycle.version.archive"

// ArchiveVersionCommand removes a version (or one of its languages) from
// circulation, immediately or at a future instant. Organization archives
// cascade to dependents when requested.
type ArchiveVersionCommand struct {
	VersionID   uuid.UUID  `json:"version_id"`
	Actor       uuid.UUID  `json:"actor"`
	Cascade     bool       `json:"cascade,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	// Language restricts the archive to one language availability.
	Language string `json:"language,omitempty"`
}

// Type implements command.Message.
func (ArchiveVersionCommand) Type() string { return archiveVersionMessageType }

// Validate ensures required identifiers and payload consistency.
func (m ArchiveVersionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("lifecycle.version.archive.version_id_required", "version_id is required")
	}
	if m.Actor == uuid.Nil {
		errs["actor"] = validation.NewError("lifecycle.version.archive.actor_required", "actor is required")
	}
	if m.ScheduledAt != nil && m.ScheduledAt.IsZero() {
		errs["scheduled_at"] = validation.NewError("lifecycle.version.archive.scheduled_at_invalid", "scheduled_at must be a valid timestamp when provided")
	}
	if m.Language != "" && m.ScheduledAt != nil {
		errs["language"] = validation.NewError("lifecycle.version.archive.language_not_schedulable", "single language archives run immediately")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ArchiveVersionHandler archives versions via the coordinator.
type ArchiveVersionHandler struct {
	inner *commands.Handler[ArchiveVersionCommand]
}

// NewArchiveVersionHandler constructs a handler wired to the provided coordinator.
func NewArchiveVersionHandler(coordinator publish.Coordinator, logger interfaces.Logger, opts ...commands.HandlerOption[ArchiveVersionCommand]) *ArchiveVersionHandler {
	exec := func(ctx context.Context, msg ArchiveVersionCommand) error {
		if msg.Language != "" {
			_, err := coordinator.ArchiveLanguage(ctx, msg.VersionID, msg.Language, msg.Actor)
			return err
		}
		_, err := coordinator.Archive(ctx, publish.ArchiveRequest{
			VersionID:   msg.VersionID,
			Actor:       msg.Actor,
			Cascade:     msg.Cascade,
			ScheduledAt: msg.ScheduledAt,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[ArchiveVersionCommand]{
		commands.WithLogger[ArchiveVersionCommand](logger),
		commands.WithOperation[ArchiveVersionCommand]("version.archive"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ArchiveVersionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ArchiveVersionCommand].
func (h *ArchiveVersionHandler) Execute(ctx context.Context, msg ArchiveVersionCommand) error {
	return h.inner.Execute(ctx, msg)
}

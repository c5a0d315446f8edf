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

const publishVersionMessageType = "lifecycle.version.publish"

// PublishVersionCommand requests publication of a version for a subset of its
// languages, immediately or at a future instant.
type PublishVersionCommand struct {
	VersionID   uuid.UUID  `json:"version_id"`
	Languages   []string   `json:"languages"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedBy uuid.UUID  `json:"published_by"`
}

// Type implements command.Message.
func (PublishVersionCommand) Type() string { return publishVersionMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m PublishVersionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("lifecycle.version.publish.version_id_required", "version_id is required")
	}
	if len(m.Languages) == 0 {
		errs["languages"] = validation.NewError("lifecycle.version.publish.languages_required", "at least one language is required")
	}
	if m.PublishedBy == uuid.Nil {
		errs["published_by"] = validation.NewError("lifecycle.version.publish.published_by_required", "published_by is required")
	}
	if m.ScheduledAt != nil && m.ScheduledAt.IsZero() {
		errs["scheduled_at"] = validation.NewError("lifecycle.version.publish.scheduled_at_invalid", "scheduled_at must be a valid timestamp when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishVersionHandler publishes versions via the coordinator using the shared
// command handler foundation.
type PublishVersionHandler struct {
	inner *commands.Handler[PublishVersionCommand]
}

// NewPublishVersionHandler constructs a handler wired to the provided coordinator.
func NewPublishVersionHandler(coordinator publish.Coordinator, logger interfaces.Logger, opts ...commands.HandlerOption[PublishVersionCommand]) *PublishVersionHandler {
	exec := func(ctx context.Context, msg PublishVersionCommand) error {
		_, err := coordinator.Publish(ctx, publish.PublishRequest{
			VersionID:   msg.VersionID,
			Languages:   msg.Languages,
			ScheduledAt: msg.ScheduledAt,
			PublishedBy: msg.PublishedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishVersionCommand]{
		commands.WithLogger[PublishVersionCommand](logger),
		commands.WithOperation[PublishVersionCommand]("version.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishVersionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishVersionCommand].
func (h *PublishVersionHandler) Execute(ctx context.Context, msg PublishVersionCommand) error {
	return h.inner.Execute(ctx, msg)
}

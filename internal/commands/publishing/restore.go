package publishingcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const restoreVersionMessageType = "lifecycle.version.restore"

// RestoreVersionCommand brings an archived version back into circulation.
type RestoreVersionCommand struct {
	VersionID uuid.UUID `json:"version_id"`
	Actor     uuid.UUID `json:"actor"`
	// Language restricts the restore to one language availability. Empty
	// restores the whole version.
	Language string `json:"language,omitempty"`
}

// Type implements command.Message.
func (RestoreVersionCommand) Type() string { return restoreVersionMessageType }

// Validate ensures required identifiers are present.
func (m RestoreVersionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("lifecycle.version.restore.version_id_required", "version_id is required")
	}
	if m.Actor == uuid.Nil {
		errs["actor"] = validation.NewError("lifecycle.version.restore.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RestoreVersionHandler restores archived versions or single languages.
type RestoreVersionHandler struct {
	inner *commands.Handler[RestoreVersionCommand]
}

// NewRestoreVersionHandler constructs a handler wired to the provided coordinator.
func NewRestoreVersionHandler(coordinator publish.Coordinator, logger interfaces.Logger, opts ...commands.HandlerOption[RestoreVersionCommand]) *RestoreVersionHandler {
	exec := func(ctx context.Context, msg RestoreVersionCommand) error {
		if msg.Language != "" {
			_, err := coordinator.RestoreLanguage(ctx, msg.VersionID, msg.Language, msg.Actor)
			return err
		}
		_, err := coordinator.Restore(ctx, msg.VersionID, msg.Actor)
		return err
	}

	handlerOpts := []commands.HandlerOption[RestoreVersionCommand]{
		commands.WithLogger[RestoreVersionCommand](logger),
		commands.WithOperation[RestoreVersionCommand]("version.restore"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RestoreVersionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RestoreVersionCommand].
func (h *RestoreVersionHandler) Execute(ctx context.Context, msg RestoreVersionCommand) error {
	return h.inner.Execute(ctx, msg)
}

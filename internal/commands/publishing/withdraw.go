package publishingcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const withdrawVersionMessageType = "lifecycle.version.withdraw"

// WithdrawVersionCommand pulls a published version back into the editable branch.
type WithdrawVersionCommand struct {
	VersionID uuid.UUID `json:"version_id"`
	Actor     uuid.UUID `json:"actor"`
}

// Type implements command.Message.
func (WithdrawVersionCommand) Type() string { return withdrawVersionMessageType }

// Validate ensures required identifiers are present.
func (m WithdrawVersionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("lifecycle.version.withdraw.version_id_required", "version_id is required")
	}
	if m.Actor == uuid.Nil {
		errs["actor"] = validation.NewError("lifecycle.version.withdraw.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// WithdrawVersionHandler withdraws published versions via the coordinator.
type WithdrawVersionHandler struct {
	inner *commands.Handler[WithdrawVersionCommand]
}

// NewWithdrawVersionHandler constructs a handler wired to the provided coordinator.
func NewWithdrawVersionHandler(coordinator publish.Coordinator, logger interfaces.Logger, opts ...commands.HandlerOption[WithdrawVersionCommand]) *WithdrawVersionHandler {
	exec := func(ctx context.Context, msg WithdrawVersionCommand) error {
		_, err := coordinator.Withdraw(ctx, msg.VersionID, msg.Actor)
		return err
	}

	handlerOpts := []commands.HandlerOption[WithdrawVersionCommand]{
		commands.WithLogger[WithdrawVersionCommand](logger),
		commands.WithOperation[WithdrawVersionCommand]("version.withdraw"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &WithdrawVersionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[WithdrawVersionCommand].
func (h *WithdrawVersionHandler) Execute(ctx context.Context, msg WithdrawVersionCommand) error {
	return h.inner.Execute(ctx, msg)
}

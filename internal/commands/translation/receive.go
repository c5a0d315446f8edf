package translationcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/translation"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const receiveTranslationMessageType = "lifecycle.translation.receive"

// ReceiveTranslationCommand ingests a delivered translation payload for an
// open order. Payload validation happens in the service so malformed
// deliveries surface as typed errors without touching the order.
type ReceiveTranslationCommand struct {
	OrderID uuid.UUID `json:"order_id"`
	Payload string    `json:"payload"`
}

// Type implements command.Message.
func (ReceiveTranslationCommand) Type() string { return receiveTranslationMessageType }

// Validate ensures the delivery targets an order and carries a payload.
func (m ReceiveTranslationCommand) Validate() error {
	errs := validation.Errors{}
	if m.OrderID == uuid.Nil {
		errs["order_id"] = validation.NewError("lifecycle.translation.receive.order_id_required", "order_id is required")
	}
	if m.Payload == "" {
		errs["payload"] = validation.NewError("lifecycle.translation.receive.payload_required", "payload is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ReceiveTranslationHandler ingests deliveries via the translation service.
type ReceiveTranslationHandler struct {
	inner *commands.Handler[ReceiveTranslationCommand]
}

// NewReceiveTranslationHandler constructs a handler wired to the provided service.
func NewReceiveTranslationHandler(service translation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ReceiveTranslationCommand]) *ReceiveTranslationHandler {
	exec := func(ctx context.Context, msg ReceiveTranslationCommand) error {
		_, err := service.ReceiveTranslation(ctx, msg.OrderID, msg.Payload)
		return err
	}

	handlerOpts := []commands.HandlerOption[ReceiveTranslationCommand]{
		commands.WithLogger[ReceiveTranslationCommand](logger),
		commands.WithOperation[ReceiveTranslationCommand]("translation.receive"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ReceiveTranslationHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ReceiveTranslationCommand].
func (h *ReceiveTranslationHandler) Execute(ctx context.Context, msg ReceiveTranslationCommand) error {
	return h.inner.Execute(ctx, msg)
}

package translationcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/translation"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const placeOrderMessageType = "lifecycle.translation.order"

// PlaceTranslationOrderCommand sends an entity's source content out for
// translation into one or more target languages.
type PlaceTranslationOrderCommand struct {
	VersionID       uuid.UUID  `json:"version_id"`
	SourceLanguage  string     `json:"source_language"`
	TargetLanguages []string   `json:"target_languages"`
	DeliverAt       *time.Time `json:"deliver_at,omitempty"`
	OrderedBy       uuid.UUID  `json:"ordered_by"`
}

// Type implements command.Message.
func (PlaceTranslationOrderCommand) Type() string { return placeOrderMessageType }

// Validate ensures the order carries a source, targets, and an actor.
func (m PlaceTranslationOrderCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("lifecycle.translation.order.version_id_required", "version_id is required")
	}
	if m.SourceLanguage == "" {
		errs["source_language"] = validation.NewError("lifecycle.translation.order.source_required", "source_language is required")
	}
	if len(m.TargetLanguages) == 0 {
		errs["target_languages"] = validation.NewError("lifecycle.translation.order.targets_required", "at least one target language is required")
	}
	for _, target := range m.TargetLanguages {
		if target == m.SourceLanguage {
			errs["target_languages"] = validation.NewError("lifecycle.translation.order.target_equals_source", "target languages must differ from the source")
			break
		}
	}
	if m.OrderedBy == uuid.Nil {
		errs["ordered_by"] = validation.NewError("lifecycle.translation.order.ordered_by_required", "ordered_by is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PlaceTranslationOrderHandler places orders via the translation service.
type PlaceTranslationOrderHandler struct {
	inner *commands.Handler[PlaceTranslationOrderCommand]
}

// NewPlaceTranslationOrderHandler constructs a handler wired to the provided service.
func NewPlaceTranslationOrderHandler(service translation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PlaceTranslationOrderCommand]) *PlaceTranslationOrderHandler {
	exec := func(ctx context.Context, msg PlaceTranslationOrderCommand) error {
		_, err := service.PlaceOrder(ctx, translation.PlaceOrderRequest{
			VersionID:       msg.VersionID,
			SourceLanguage:  msg.SourceLanguage,
			TargetLanguages: msg.TargetLanguages,
			DeliverAt:       msg.DeliverAt,
			OrderedBy:       msg.OrderedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PlaceTranslationOrderCommand]{
		commands.WithLogger[PlaceTranslationOrderCommand](logger),
		commands.WithOperation[PlaceTranslationOrderCommand]("translation.order"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PlaceTranslationOrderHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PlaceTranslationOrderCommand].
func (h *PlaceTranslationOrderHandler) Execute(ctx context.Context, msg PlaceTranslationOrderCommand) error {
	return h.inner.Execute(ctx, msg)
}

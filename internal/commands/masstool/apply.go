package masstoolcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-lifecycle/internal/commands"
	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/masstool"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

const massApplyMessageType = "lifecycle.masstool.apply"

// MassApplyEntity targets one version inside a bulk command.
type MassApplyEntity struct {
	Kind      domain.EntityKind `json:"kind"`
	VersionID uuid.UUID         `json:"version_id"`
	Languages []string          `json:"languages,omitempty"`
}

// MassApplyCommand runs one operation over many entities in a single request.
type MassApplyCommand struct {
	Operation            masstool.Operation `json:"operation"`
	Entities             []MassApplyEntity  `json:"entities"`
	ScheduledAt          *time.Time         `json:"scheduled_at,omitempty"`
	TargetOrganizationID *uuid.UUID         `json:"target_organization_id,omitempty"`
	Actor                uuid.UUID          `json:"actor"`
}

// Type implements command.Message.
func (MassApplyCommand) Type() string { return massApplyMessageType }

// Validate checks operation, targets, and actor before the bulk run starts.
func (m MassApplyCommand) Validate() error {
	errs := validation.Errors{}
	switch m.Operation {
	case masstool.OperationPublish, masstool.OperationArchive, masstool.OperationCopy, masstool.OperationRestore:
	case "":
		errs["operation"] = validation.NewError("lifecycle.masstool.apply.operation_required", "operation is required")
	default:
		errs["operation"] = validation.NewError("lifecycle.masstool.apply.operation_unknown", "operation is not supported")
	}
	if len(m.Entities) == 0 {
		errs["entities"] = validation.NewError("lifecycle.masstool.apply.entities_required", "at least one entity is required")
	}
	for _, entity := range m.Entities {
		if entity.VersionID == uuid.Nil {
			errs["entities"] = validation.NewError("lifecycle.masstool.apply.version_id_required", "every entity needs a version_id")
			break
		}
	}
	if m.Actor == uuid.Nil {
		errs["actor"] = validation.NewError("lifecycle.masstool.apply.actor_required", "actor is required")
	}
	if m.Operation == masstool.OperationCopy && m.TargetOrganizationID != nil && *m.TargetOrganizationID == uuid.Nil {
		errs["target_organization_id"] = validation.NewError("lifecycle.masstool.apply.target_organization_invalid", "target_organization_id must be a valid id when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MassApplyHandler runs bulk operations via the mass tool service. The bulk
// result with per-entity outcomes is delivered through the optional sink.
type MassApplyHandler struct {
	inner *commands.Handler[MassApplyCommand]
}

// ResultSink receives the bulk outcome after a successful run.
type ResultSink func(ctx context.Context, msg MassApplyCommand, result *masstool.Result)

// NewMassApplyHandler constructs a handler wired to the provided mass tool service.
func NewMassApplyHandler(service masstool.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[MassApplyCommand]) *MassApplyHandler {
	exec := func(ctx context.Context, msg MassApplyCommand) error {
		entities := make([]masstool.Entity, 0, len(msg.Entities))
		for _, entity := range msg.Entities {
			entities = append(entities, masstool.Entity{
				Kind:      entity.Kind,
				VersionID: entity.VersionID,
				Languages: entity.Languages,
			})
		}
		result, err := service.Apply(ctx, masstool.Request{
			Operation:            msg.Operation,
			Entities:             entities,
			ScheduledAt:          msg.ScheduledAt,
			TargetOrganizationID: msg.TargetOrganizationID,
			Actor:                msg.Actor,
		})
		if err != nil {
			return err
		}
		if sink != nil {
			sink(ctx, msg, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[MassApplyCommand]{
		commands.WithLogger[MassApplyCommand](logger),
		commands.WithOperation[MassApplyCommand]("masstool.apply"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MassApplyHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[MassApplyCommand].
func (h *MassApplyHandler) Execute(ctx context.Context, msg MassApplyCommand) error {
	return h.inner.Execute(ctx, msg)
}

package translation

import (
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Order is a tracked external translation job for one target language of one
// entity. Re-orders chain through PreviousOrderID.
type Order struct {
	bun.BaseModel `bun:"table:translation_orders,alias:tro"`

	ID              uuid.UUID         `bun:",pk,type:uuid"                      json:"id"`
	UnificRootID    uuid.UUID         `bun:"unific_root_id,notnull,type:uuid"   json:"unific_root_id"`
	EntityKind      domain.EntityKind `bun:"entity_kind,notnull"                json:"entity_kind"`
	SourceLanguage  string            `bun:"source_language,notnull"            json:"source_language"`
	TargetLanguage  string            `bun:"target_language,notnull"            json:"target_language"`
	OrderIdentifier int64             `bun:"order_identifier,notnull"           json:"order_identifier"`
	PreviousOrderID *uuid.UUID        `bun:"previous_translation_order_id,type:uuid" json:"previous_translation_order_id,omitempty"`
	SourceData      map[string]any    `bun:"source_data,type:jsonb,notnull"     json:"source_data"`
	SourceDataHash  string            `bun:"source_data_hash,notnull"           json:"source_data_hash"`
	TargetData      map[string]any    `bun:"target_data,type:jsonb"             json:"target_data,omitempty"`
	DeliverAt       *time.Time        `bun:"deliver_at,nullzero"                json:"deliver_at,omitempty"`
	CreatedBy       uuid.UUID         `bun:"created_by,notnull,type:uuid"       json:"created_by"`
	CreatedAt       time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`

	States []*OrderState `bun:"rel:has-many,join:id=translation_order_id" json:"states,omitempty"`
}

// OrderState is one row of the order's sub-state machine. Exactly one state
// per order carries Last=true.
type OrderState struct {
	bun.BaseModel `bun:"table:translation_order_states,alias:tos"`

	ID                 uuid.UUID               `bun:",pk,type:uuid"                          json:"id"`
	TranslationOrderID uuid.UUID               `bun:"translation_order_id,notnull,type:uuid" json:"translation_order_id"`
	State              domain.TranslationState `bun:"state,notnull"                          json:"state"`
	Last               bool                    `bun:"last,notnull,default:false"             json:"last"`
	Checked            bool                    `bun:"checked,notnull,default:false"          json:"checked"`
	SendAt             *time.Time              `bun:"send_at,nullzero"                       json:"send_at,omitempty"`
	InfoDetails        *string                 `bun:"info_details"                           json:"info_details,omitempty"`
	CreatedAt          time.Time               `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Tracking marks an order awaiting delivery so stuck orders can be detected.
// Rows are removed once the translation arrives or is confirmed.
type Tracking struct {
	bun.BaseModel `bun:"table:translation_order_tracking,alias:tot"`

	ID                 uuid.UUID `bun:",pk,type:uuid"                          json:"id"`
	TranslationOrderID uuid.UUID `bun:"translation_order_id,notnull,type:uuid" json:"translation_order_id"`
	CreatedAt          time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// LastState returns the order's current state row.
func (o *Order) LastState() *OrderState {
	if o == nil {
		return nil
	}
	for _, state := range o.States {
		if state != nil && state.Last {
			return state
		}
	}
	return nil
}

// ErrorStreak counts consecutive trailing error states, used for the
// fail-for-investigation escalation.
func (o *Order) ErrorStreak() int {
	if o == nil {
		return 0
	}
	streak := 0
	for i := len(o.States) - 1; i >= 0; i-- {
		state := o.States[i]
		if state == nil {
			continue
		}
		if !state.State.IsError() {
			break
		}
		streak++
	}
	return streak
}

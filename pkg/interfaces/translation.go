package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrTranslationVendorUnavailable reports transport failures when submitting orders.
var ErrTranslationVendorUnavailable = errors.New("translation vendor unavailable")

// TranslationSubmission is the payload handed to the vendor transport.
type TranslationSubmission struct {
	OrderID         string         `json:"order_id"`
	OrderIdentifier int64          `json:"order_identifier"`
	SourceLanguage  string         `json:"source_language"`
	TargetLanguage  string         `json:"target_language"`
	SourceData      map[string]any `json:"source_data"`
	DeliverAt       *time.Time     `json:"deliver_at,omitempty"`
}

// TranslationVendor abstracts the outbound channel to an external translation
// provider. Implementations own retries and wire formats; the lifecycle only
// records the resulting state transitions.
type TranslationVendor interface {
	Submit(ctx context.Context, submission TranslationSubmission) error
	Cancel(ctx context.Context, orderID string) error
}

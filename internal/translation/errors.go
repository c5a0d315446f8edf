package translation

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrVersionIDRequired  = errors.New("translation: version id required")
	ErrOrderIDRequired    = errors.New("translation: order id required")
	ErrSourceRequired     = errors.New("translation: source language required")
	ErrNoTargetLanguages  = errors.New("translation: at least one target language is required")
	ErrSourceEqualsTarget = errors.New("translation: target language equals source")
	ErrOrderNotArrived    = errors.New("translation: order has not arrived")
	ErrNoSourceContent    = errors.New("translation: no source content to snapshot")
)

// StateError rejects an operation incompatible with the order's current state,
// such as re-ordering while a previous order is still in flight.
type StateError struct {
	OrderID uuid.UUID
	State   domain.TranslationState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("translation: order %s is in state %q", e.OrderID, e.State)
}

// TransitionError rejects an illegal state machine move.
type TransitionError struct {
	OrderID uuid.UUID
	From    domain.TranslationState
	To      domain.TranslationState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("translation: order %s cannot move %q -> %q", e.OrderID, e.From, e.To)
}

// MalformedPayloadError reports an invalid delivery payload. The order is left
// unmodified so operators can retry with corrected data.
type MalformedPayloadError struct {
	OrderID uuid.UUID
	Cause   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("translation: malformed payload for order %s: %v", e.OrderID, e.Cause)
	}
	return fmt.Sprintf("translation: malformed payload for order %s", e.OrderID)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents missing translation records.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

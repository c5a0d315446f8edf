package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// FieldIssue reports a single mandatory-field failure for one language.
type FieldIssue struct {
	Language string `json:"language"`
	Field    string `json:"field"`
	Message  string `json:"message,omitempty"`
}

// EntityValidator checks mandatory fields on a version before publication.
// Implementations are external collaborators; the coordinator only consumes
// the per-language issue list and performs no mutation when it is non-empty.
type EntityValidator interface {
	Validate(ctx context.Context, versionID uuid.UUID, languages []string) ([]FieldIssue, error)
}

// EntityValidatorFunc adapts a function to the EntityValidator interface.
type EntityValidatorFunc func(ctx context.Context, versionID uuid.UUID, languages []string) ([]FieldIssue, error)

// Validate implements EntityValidator.
func (f EntityValidatorFunc) Validate(ctx context.Context, versionID uuid.UUID, languages []string) ([]FieldIssue, error) {
	return f(ctx, versionID, languages)
}

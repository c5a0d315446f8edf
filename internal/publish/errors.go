package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	ErrVersionIDRequired = errors.New("publish: version id required")
	ErrActorRequired     = errors.New("publish: actor required")
	ErrNoLanguages       = errors.New("publish: at least one language is required")
	ErrUnknownLanguage   = errors.New("publish: language not present on version")
	ErrNotPublished      = errors.New("publish: version is not published")
	ErrNotWithdrawn      = errors.New("publish: version is not withdrawn or archived")
)

// ValidationError reports mandatory-field failures per language. The publish
// is all-or-nothing across the submitted language set, so a single issue
// blocks every language.
type ValidationError struct {
	VersionID uuid.UUID
	Issues    []interfaces.FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("publish: validation failed for version %s", e.VersionID)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s/%s", issue.Language, issue.Field))
	}
	return fmt.Sprintf("publish: validation failed for version %s: %s", e.VersionID, strings.Join(parts, ", "))
}

// LockConflictError reports a transition refused because a different actor
// holds the edit lock.
type LockConflictError struct {
	RootID uuid.UUID
	HeldBy uuid.UUID
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("publish: root %s locked by another actor", e.RootID)
}

// ConnectedEntitiesError reports a withdraw or archive blocked by live
// dependents the caller must resolve first.
type ConnectedEntitiesError struct {
	RootID     uuid.UUID
	Dependents []uuid.UUID
}

func (e *ConnectedEntitiesError) Error() string {
	return fmt.Sprintf("publish: root %s has %d active dependent entities", e.RootID, len(e.Dependents))
}

package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed input on create/edit
// operations. It aborts the operation before any store mutation and is
// surfaced to the user as a non-fatal notice.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// InvalidStateError reports an operation attempted against an entity whose
// current status does not permit it, such as scoring a signed candidate.
type InvalidStateError struct {
	Entity EntityType
	ID     string
	Status string
	Op     string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s in state %s does not allow %s", e.Entity, e.ID, e.Status, e.Op)
}

// NotFoundError reports an operation targeting an id absent from the store.
// UI boundaries typically downgrade it to a silent no-op since it indicates a
// stale pane rather than a user mistake.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var v InvalidStateError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var v NotFoundError
	return errors.As(err, &v)
}

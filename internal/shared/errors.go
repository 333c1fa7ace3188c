package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("not found")

// ErrorKind classifies domain failures so callers can decide between
// surfacing the problem and retrying the operation.
type ErrorKind string

const (
	// KindNotFound indicates a referenced entity does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindInvalidState indicates the operation is not legal for the
	// entity's current lifecycle state.
	KindInvalidState ErrorKind = "INVALID_STATE"
	// KindUnauthorized indicates the actor lacks the capability for the
	// target warehouse.
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	// KindValidation indicates malformed or inconsistent input.
	KindValidation ErrorKind = "VALIDATION"
	// KindConflict indicates a persistence failure during execution; the
	// operation may be retried in full.
	KindConflict ErrorKind = "CONFLICT"
)

// DomainError carries the operation name and entity identity alongside the
// failure kind, enough for callers to log and decide retry vs surface.
type DomainError struct {
	Kind    ErrorKind
	Op      string
	Entity  string
	ID      string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s=%s: %s", e.Op, e.Kind, e.Entity, e.ID, msg)
	}
	return fmt.Sprintf("%s: %s %s: %s", e.Op, e.Kind, e.Entity, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing entity.
func NotFoundError(op, entity, id string) *DomainError {
	return &DomainError{Kind: KindNotFound, Op: op, Entity: entity, ID: id, Message: "not found", Err: ErrNotFound}
}

// InvalidStateError reports an operation that is illegal for the current state.
func InvalidStateError(op, entity, id, message string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Op: op, Entity: entity, ID: id, Message: message}
}

// UnauthorizedError reports an actor acting outside their home warehouse.
func UnauthorizedError(op, entity, id string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Op: op, Entity: entity, ID: id, Message: "actor not allowed"}
}

// ValidationError reports malformed input.
func ValidationError(op, entity, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Op: op, Entity: entity, Message: message}
}

// ConflictError wraps an execution-phase persistence failure.
func ConflictError(op, entity, id string, err error) *DomainError {
	return &DomainError{Kind: KindConflict, Op: op, Entity: entity, ID: id, Err: err}
}

// KindOf extracts the kind from an error chain; empty when not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Retryable reports whether the failure is transient. Only execution-phase
// conflicts are worth retrying; everything else requires caller input.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}

// UserSafeMessage returns a message suitable for API responses without
// leaking storage internals.
func UserSafeMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Kind == KindConflict {
			return "a temporary storage conflict occurred, please retry"
		}
		return de.Error()
	}
	return "an unexpected error occurred"
}

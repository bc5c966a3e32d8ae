package wizard

import "fmt"

// ValidationError is a user-correctable failure of a step gate. It is shown
// inline and never fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// PendingLockError signals the state conflict of booking while a Pending
// request exists. The wizard surfaces it as a full redirect to the locked
// view, not a transient message.
type PendingLockError struct{}

func (e *PendingLockError) Error() string {
	return "a pending request already exists"
}

// ErrPendingLock is the shared pending-lock conflict value.
var ErrPendingLock = &PendingLockError{}

package chat

import "errors"

// Send rejections. These are no-ops from the caller's point of view: the
// draft and session state are left untouched.
var (
	ErrNoActiveThread = errors.New("no active thread")
	ErrThreadClosed   = errors.New("thread closed by counselor")
	ErrEmptyMessage   = errors.New("message text is empty")
)

// ProfanityError rejects a message whose normalized text contains a blocked
// word. The draft is preserved so the student can edit it.
type ProfanityError struct {
	Word string
}

func (e *ProfanityError) Error() string {
	return "message contains blocked word: " + e.Word
}

// EmailValidationError is the inline email-gate failure.
type EmailValidationError struct {
	Message string
}

func (e *EmailValidationError) Error() string {
	return e.Message
}

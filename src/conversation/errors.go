package conversation

import (
	"errors"
	"fmt"
)

// ErrInvalidID is returned for conversation IDs that cannot be embedded in a filename.
var ErrInvalidID = errors.New("invalid conversation id")

// CorruptStateError reports a conversation file that exists but cannot be parsed.
type CorruptStateError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt conversation file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

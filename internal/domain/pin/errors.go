package pin

import "errors"

var (
	// ErrNotFound indicates the thread doesn't exist.
	ErrNotFound = errors.New("thread not found")
	// ErrForbidden indicates the caller doesn't own the thread.
	ErrForbidden = errors.New("thread owned by another user")
	// ErrNotCompleted indicates only completed threads can be pinned.
	ErrNotCompleted = errors.New("thread not completed")
	// ErrInvalidInput indicates invalid pin input.
	ErrInvalidInput = errors.New("invalid pin input")
)

package thread

import "errors"

var (
	// ErrThreadNotFound indicates the thread doesn't exist.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrForbidden indicates the caller doesn't own the thread.
	ErrForbidden = errors.New("thread owned by another user")
	// ErrInvalidState indicates the operation isn't legal in the current stage.
	ErrInvalidState = errors.New("operation not valid in current stage")
	// ErrDuplicateAnswer indicates an answer already exists for the item.
	ErrDuplicateAnswer = errors.New("answer already submitted for item")
	// ErrItemOutOfRange indicates the item index is outside 1..item_count.
	ErrItemOutOfRange = errors.New("item index out of range")
	// ErrInvalidInput indicates invalid thread input.
	ErrInvalidInput = errors.New("invalid thread input")
)

package ledger

import "errors"

var (
	// ErrValidation rejects an operation before any state is touched.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports a reference to an entity the workspace does not hold.
	ErrNotFound = errors.New("not found")
)

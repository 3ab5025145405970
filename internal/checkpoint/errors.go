// internal/checkpoint/errors.go
package checkpoint

import "errors"

// Security errors. These are raised before any disk mutation and are
// never downgraded to a per-file warning.
var (
	// ErrPathViolation marks a path that failed traversal validation.
	ErrPathViolation = errors.New("path validation failed")
	// ErrBadCheckpointID marks an id outside the restricted character class.
	ErrBadCheckpointID = errors.New("invalid checkpoint id")
)

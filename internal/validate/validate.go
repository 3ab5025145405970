// Package validate provides the defensive checks the rollback engine runs
// before trusting any input: structural validation of decoded output,
// path-traversal containment, control-state invariants, and corruption
// detection in free-text memory files. All checks are pure; invalid input
// is reported in the result, never as an error.
package validate

// Result reports the outcome of a validation check.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// PathResult reports the outcome of a path-safety check.
type PathResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func invalid(errs ...string) Result {
	return Result{Valid: false, Errors: errs}
}

func valid() Result {
	return Result{Valid: true}
}

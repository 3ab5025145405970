// internal/validate/state.go
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// States of the evolution control-state machine.
const (
	StateIdle       = "idle"
	StateEvaluating = "evaluating"
	StateValidating = "validating"
	StateObtaining  = "obtaining"
	StateLocking    = "locking"
	StateVerifying  = "verifying"
	StateEnabling   = "enabling"
	StateBlocked    = "blocked"
	StateAborted    = "aborted"
)

// AllStates is the closed enumeration of valid machine states.
var AllStates = []string{
	StateIdle, StateEvaluating, StateValidating, StateObtaining,
	StateLocking, StateVerifying, StateEnabling, StateBlocked, StateAborted,
}

// statesRequiringEvolution are the in-progress states in which a
// currentEvolution record must be present.
var statesRequiringEvolution = map[string]bool{
	StateEvaluating: true,
	StateValidating: true,
	StateObtaining:  true,
	StateLocking:    true,
	StateVerifying:  true,
	StateEnabling:   true,
}

// requiredStateFields are the top-level keys every state document carries.
var requiredStateFields = []string{
	"version", "state", "evolutions", "patterns", "suggestions", "lastUpdated",
}

// maxClockSkew is how far in the future a persisted timestamp may sit
// before it is treated as clock corruption or tampering.
const maxClockSkew = 365 * 24 * time.Hour

// EvolutionState is the persisted control-state document describing the
// single in-flight autonomous change.
type EvolutionState struct {
	Version          string            `json:"version"`
	State            string            `json:"state"`
	CurrentEvolution map[string]any    `json:"currentEvolution"`
	Evolutions       []json.RawMessage `json:"evolutions"`
	Patterns         []json.RawMessage `json:"patterns"`
	Suggestions      []json.RawMessage `json:"suggestions"`
	LastUpdated      string            `json:"lastUpdated"`
}

// State reads the file at path and checks it against the control-state
// invariants: required fields present, state in the closed enum, an
// evolution record present for in-progress states, and no timestamp
// unreasonably far in the future.
func State(path string) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return invalid(fmt.Sprintf("state file does not exist: %s", path))
		}
		return invalid(fmt.Sprintf("state file is not readable: %v", err))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return invalid(fmt.Sprintf("state file is not valid JSON: %v", err))
	}

	var errs []string
	for _, name := range requiredStateFields {
		if _, present := fields[name]; !present {
			errs = append(errs, fmt.Sprintf("missing required field: %s", name))
		}
	}

	var doc EvolutionState
	if err := json.Unmarshal(raw, &doc); err != nil {
		errs = append(errs, fmt.Sprintf("state document has malformed fields: %v", err))
		return invalid(errs...)
	}

	if _, present := fields["state"]; present {
		if !isKnownState(doc.State) {
			errs = append(errs, fmt.Sprintf("invalid state: %q", doc.State))
		} else if statesRequiringEvolution[doc.State] && doc.CurrentEvolution == nil {
			errs = append(errs, fmt.Sprintf("state %q requires currentEvolution", doc.State))
		}
	}

	if _, present := fields["lastUpdated"]; present {
		if reason := checkTimestamp("lastUpdated", doc.LastUpdated); reason != "" {
			errs = append(errs, reason)
		}
	}
	if doc.CurrentEvolution != nil {
		if started, ok := doc.CurrentEvolution["startedAt"].(string); ok {
			if reason := checkTimestamp("currentEvolution.startedAt", started); reason != "" {
				errs = append(errs, reason)
			}
		}
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid()
}

func isKnownState(s string) bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

func checkTimestamp(field, value string) string {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Sprintf("%s is not a valid timestamp: %q", field, value)
	}
	if ts.After(time.Now().Add(maxClockSkew)) {
		return fmt.Sprintf("%s is unreasonably far in the future: %s", field, value)
	}
	return ""
}

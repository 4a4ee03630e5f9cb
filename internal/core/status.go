package core

import (
	"encoding/json"
	"fmt"
)

// RunStatus is the closed set of run lifecycle states
type RunStatus int

const (
	RunStatusUnknown RunStatus = iota
	RunQueued
	RunInProgress
	RunRequiresAction
	RunCancelling
	RunCompleted
	RunFailed
	RunCancelled
	RunExpired
)

var runStatusNames = map[RunStatus]string{
	RunQueued:         "queued",
	RunInProgress:     "in_progress",
	RunRequiresAction: "requires_action",
	RunCancelling:     "cancelling",
	RunCompleted:      "completed",
	RunFailed:         "failed",
	RunCancelled:      "cancelled",
	RunExpired:        "expired",
}

// ParseRunStatus converts the wire name of a status
func ParseRunStatus(s string) (RunStatus, error) {
	for status, name := range runStatusNames {
		if name == s {
			return status, nil
		}
	}
	return RunStatusUnknown, fmt.Errorf("unknown run status %q", s)
}

func (s RunStatus) String() string {
	if name, ok := runStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the run will never change status again
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the status as its wire name
func (s RunStatus) MarshalJSON() ([]byte, error) {
	if _, ok := runStatusNames[s]; !ok {
		return nil, fmt.Errorf("cannot marshal run status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON rejects statuses outside the known set
func (s *RunStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("run status must be a string: %w", err)
	}
	parsed, err := ParseRunStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

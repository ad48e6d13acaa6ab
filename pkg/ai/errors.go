package ai

import (
	"errors"
	"fmt"
)

// ErrTransientCall marks a network or HTTP failure talking to the classifier
var ErrTransientCall = errors.New("classifier call failed")

// ErrNoAssistant is returned by Run before EnsureAssistant succeeded
var ErrNoAssistant = errors.New("assistant is not configured")

// RunFailedError reports a run that ended in a status other than "completed"
type RunFailedError struct {
	RunID  string
	Status string
	Reason string
}

func (e *RunFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("run %s finished with status %q: %s", e.RunID, e.Status, e.Reason)
	}
	return fmt.Sprintf("run %s finished with status %q", e.RunID, e.Status)
}

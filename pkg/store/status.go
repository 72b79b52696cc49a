package store

import "github.com/pkg/errors"

// Status is the lifecycle state of a queued input.
type Status string

const (
	// StatusPending default status, the input waits to be claimed
	StatusPending Status = "pending"

	// StatusProcessing status for inputs claimed by a worker
	StatusProcessing Status = "processing"

	// StatusCompleted terminal status for inputs whose pipeline run succeeded
	StatusCompleted Status = "completed"

	// StatusFailed terminal status for inputs whose pipeline run failed
	StatusFailed Status = "failed"
)

// Finished returns true if the status is terminal.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown status %s", s)
}

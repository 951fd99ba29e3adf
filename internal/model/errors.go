package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)

// WorkflowAbortedError is returned when a workflow run finalizes as aborted.
// It identifies the failing stage and the error detail reported for it.
type WorkflowAbortedError struct {
	Stage   Stage
	Detail  string
	Timeout bool
}

func (e *WorkflowAbortedError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("workflow aborted: stage %s timed out: %s", e.Stage, e.Detail)
	}
	return fmt.Sprintf("workflow aborted: stage %s failed: %s", e.Stage, e.Detail)
}

package importer

import (
	"errors"
	"fmt"
)

// ErrMissingRequiredColumn is wrapped by the structural error raised when the
// resolved mapping lacks a column the pricing mode needs
var ErrMissingRequiredColumn = errors.New("missing required column")

// StructuralError aborts an import before any row is processed
type StructuralError struct {
	Stage string
	Err   error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(stage string, err error) *StructuralError {
	return &StructuralError{Stage: stage, Err: err}
}

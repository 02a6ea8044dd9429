package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// GenericFailure is shown when a failure carries no server detail.
const GenericFailure = "Pipeline failed"

// ValidationError is a request that must not be sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError covers network failures and bodies that are not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PipelineError is a non-2xx response. Detail is empty when the body had
// no string "detail" field.
type PipelineError struct {
	Status int
	Detail string
}

func (e *PipelineError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pipeline error (status %d)", e.Status)
	}
	return fmt.Sprintf("pipeline error (status %d): %s", e.Status, e.Detail)
}

// UserMessage collapses any run failure into the single string shown to
// the user. Server detail is surfaced verbatim; a validation error keeps
// its own message; everything else becomes GenericFailure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) && strings.TrimSpace(pe.Detail) != "" {
		return pe.Detail
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return GenericFailure
}

package grading

import "fmt"

// ServiceError represents a failure of the external scoring service,
// including per-attempt timeouts. It is retryable up to the retry budget.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring service: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scoring service: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// OversizeError marks a submission that exceeds the per-file byte ceiling.
// It short-circuits grading without consuming a service call.
type OversizeError struct {
	Name  string
	Size  int
	Limit int
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("file too large (%dMB, limit %dMB)", e.Size/(1024*1024), e.Limit/(1024*1024))
}

// InputError represents invalid caller input (bad rubric length, unsupported
// file type, empty submission set). It is rejected before any grading starts.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

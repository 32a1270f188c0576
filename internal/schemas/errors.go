package schemas

import "fmt"

// ParseError means a response could not be recovered as a JSON object.
// It is retried like a transport failure.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Retryable marks parse failures as retryable
func (e *ParseError) Retryable() bool {
	return true
}

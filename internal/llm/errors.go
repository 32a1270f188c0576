package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel causes for configuration failures
var (
	ErrUnknownStage       = errors.New("unknown stage")
	ErrMissingCredentials = errors.New("missing backend credentials")
)

// ConfigurationError is fatal: unknown stage, missing credentials or model. Never retried.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// TransportError represents an unreachable backend, a timeout or a non-success response.
type TransportError struct {
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Retryable marks transport failures as retryable
func (e *TransportError) Retryable() bool {
	return true
}

// ContentBlockedError means the backend refused to generate content. Terminal for the stage.
type ContentBlockedError struct {
	Reason string
}

func (e *ContentBlockedError) Error() string {
	if e.Reason == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// IsRetryable reports whether err should trigger another attempt.
// Errors opt in by implementing Retryable() bool; deadline expiry counts as transport failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var blocked *ContentBlockedError
	if errors.As(err, &blocked) {
		return false
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrValidation is a rejected pipeline request
type ErrValidation struct {
	Field   string
	Message string
	Cause   error
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ErrValidation) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps a request error onto a status code
func HTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	var verr *ErrValidation
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

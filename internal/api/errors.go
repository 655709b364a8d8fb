package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskmanager/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, task.ErrInvalidArgument),
		errors.Is(err, task.ErrUnknownPolicy):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrAlreadyRunning):
		return http.StatusConflict

	case errors.Is(err, task.ErrClosed),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, task.ErrWaitTimeout):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.Is(err, task.ErrInvalidArgument):
		return "Invalid argument"
	case errors.Is(err, task.ErrUnknownPolicy):
		return "Unknown name conflict policy"
	case errors.Is(err, task.ErrAlreadyRunning):
		return "A task with this name is already running"
	case errors.Is(err, task.ErrClosed):
		return "Task orchestrator is shutting down"
	case errors.Is(err, task.ErrQueueClosed):
		return "Queue is no longer accepting work"
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, task.ErrWaitTimeout):
		return "Timed out waiting for tasks to stop"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message naming
// the offending fields.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}

	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag())))
	}
	return strings.Join(messages, "; ")
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/ghiblify/avatar-api/internal/service"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/ghiblify/avatar-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Backend unavailable
	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, service.ErrDispatchFailed),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking internal details such as
// capability responses or SQL errors.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return "Invalid request"

	case errors.Is(err, store.ErrGenerationNotFound):
		return "Generation task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, store.ErrStoreUnavailable):
		return "Storage is temporarily unavailable"

	case errors.Is(err, service.ErrDispatchFailed),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Service is temporarily overloaded, try again later"

	default:
		return "An unexpected error occurred"
	}
}

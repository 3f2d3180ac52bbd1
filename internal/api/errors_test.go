package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghiblify/avatar-api/internal/service"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/ghiblify/avatar-api/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{store.ErrInvalidEntity, http.StatusBadRequest},
		{store.ErrGenerationNotFound, http.StatusNotFound},
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{service.ErrDispatchFailed, http.StatusServiceUnavailable},
		{task.ErrQueueFull, http.StatusServiceUnavailable},
		{task.ErrQueueClosed, http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), "error: %v", tc.err)
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Generation task not found", GetSafeErrorMessage(store.ErrGenerationNotFound))
	assert.Equal(t, "Invalid request", GetSafeErrorMessage(service.ErrInvalidInput))

	// Wrapped internals never leak their detail.
	leaky := fmt.Errorf("pq: connection refused host=10.0.0.1: %w", store.ErrStoreUnavailable)
	msg := GetSafeErrorMessage(leaky)
	assert.NotContains(t, msg, "10.0.0.1")
	assert.Equal(t, "Storage is temporarily unavailable", msg)
}

package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(rec, req, http.StatusAccepted, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["id"])
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, http.StatusNotFound, "Generation task not found")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Generation task not found", resp.Error)
	assert.Len(t, resp.TraceID, 32)
}

func TestRespondWithErrorAndLogSanitizes(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	internal := errors.New("pgx: connection refused host=10.0.0.1 password=hunter2")
	RespondWithErrorAndLog(rec, req, http.StatusServiceUnavailable,
		"Storage is temporarily unavailable", internal)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "10.0.0.1")
	assert.Contains(t, body, "Storage is temporarily unavailable")
}

func TestTruncateError(t *testing.T) {
	t.Parallel()

	short := errors.New("short")
	assert.Equal(t, "short", truncateError(short))

	long := errors.New(strings.Repeat("x", maxLoggedErrorLen+100))
	got := truncateError(long)
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Less(t, len(got), maxLoggedErrorLen+20)
}

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetTraceID(req.Context()))

	ctx := SetTraceID(req.Context())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 32)

	// Each request gets its own ID.
	other := GetTraceID(SetTraceID(req.Context()))
	assert.NotEqual(t, traceID, other)
}

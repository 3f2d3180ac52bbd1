package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImageFetcher implements generation.Fetcher for download tests.
type fakeImageFetcher struct {
	data    []byte
	err     error
	lastURL string
}

func (f *fakeImageFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	f.lastURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// Minimal valid PNG header so content type detection resolves to image/png.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

func doDownload(t *testing.T, fetcher *fakeImageFetcher, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewDownloadHandler(fetcher, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/avatars/download",
		bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleDownload(rec, req)
	return rec
}

func TestHandleDownload(t *testing.T) {
	t.Parallel()

	fetcher := &fakeImageFetcher{data: pngBytes}
	rec := doDownload(t, fetcher, `{"url":"https://filesystem.site/cdn/result.png"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://filesystem.site/cdn/result.png", fetcher.lastURL)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestHandleDownloadFetchFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeImageFetcher{err: errors.New("upstream 403")}
	rec := doDownload(t, fetcher, `{"url":"https://filesystem.site/cdn/result.png"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleDownloadBadRequests(t *testing.T) {
	t.Parallel()

	fetcher := &fakeImageFetcher{data: pngBytes}

	rec := doDownload(t, fetcher, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doDownload(t, fetcher, `{"url":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doDownload(t, fetcher, `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

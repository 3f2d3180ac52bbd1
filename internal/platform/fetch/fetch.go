// Package fetch provides the server-side HTTP image fetcher used for
// locators that the eventual client cannot retrieve directly.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Some capability CDNs reject requests without browser-looking headers.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultTimeout = 30 * time.Second

	// maxImageBytes bounds how much of a remote image is read into memory.
	maxImageBytes = 16 << 20
)

// HTTPFetcher retrieves image bytes over plain HTTP GET.
type HTTPFetcher struct {
	client  *http.Client
	referer string
}

// NewHTTPFetcher creates an HTTPFetcher. The referer is sent with every
// request; an empty string omits the header. A nil client gets a default
// with a bounded timeout.
func NewHTTPFetcher(client *http.Client, referer string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPFetcher{
		client:  client,
		referer: referer,
	}
}

// FetchImage retrieves the raw bytes behind the given URL.
// Non-2xx responses are errors.
func (f *HTTPFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	return data, nil
}

package generation

import "context"

// Generator defines the interface for invoking the external style-transfer
// capability. It serves as a boundary between the application core and the
// remote model, so the worker can be tested without the real endpoint.
type Generator interface {
	// GenerateAvatar asks the capability to transform the referenced image
	// into the target art style and returns the raw response text. The
	// response is semi-structured at best: it may embed a result URL in
	// free prose, or be a direct locator, and must be run through the
	// extraction policy before use.
	GenerateAvatar(ctx context.Context, imageRef string) (string, error)
}

// Fetcher performs the secondary server-side fetch of a locator that the
// eventual client cannot retrieve directly.
type Fetcher interface {
	// FetchImage retrieves the raw bytes behind the given URL.
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

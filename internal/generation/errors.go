package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrCapabilityFailure is returned when the external generation call
	// itself fails (network, auth, rate limit).
	ErrCapabilityFailure = errors.New("generation capability call failed")

	// ErrEmptyResponse is returned when the capability responds with no
	// usable content at all.
	ErrEmptyResponse = errors.New("empty response from generation capability")

	// ErrNoResultExtracted is returned when the capability responded but no
	// result locator could be derived from the response text.
	ErrNoResultExtracted = errors.New("no result locator extracted from response")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

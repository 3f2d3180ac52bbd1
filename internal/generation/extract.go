package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/ghiblify/avatar-api/internal/platform/logger"
)

// Extractor derives a result locator from the capability's semi-structured
// response text. The response is untrusted free text, not a typed contract:
// strategies are tried in a fixed priority order and the first match wins.
type Extractor struct {
	trustedPattern  *regexp.Regexp
	anyImagePattern *regexp.Regexp
	restrictedHosts map[string]bool
	fetcher         Fetcher
	logger          *slog.Logger
}

// NewExtractor creates an Extractor for the given trusted CDN host and set
// of restricted hosts. The fetcher is used for the secondary server-side
// fetch of restricted locators; if logger is nil a default is used.
func NewExtractor(trustedCDNHost string, restrictedHosts []string, fetcher Fetcher, logger *slog.Logger) (*Extractor, error) {
	if trustedCDNHost == "" {
		return nil, fmt.Errorf("%w: trusted CDN host cannot be empty", ErrInvalidConfig)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	trusted, err := regexp.Compile(`https://` + regexp.QuoteMeta(trustedCDNHost) + `/cdn/[^\s)\]]+\.png`)
	if err != nil {
		return nil, fmt.Errorf("%w: bad trusted CDN pattern: %v", ErrInvalidConfig, err)
	}

	restricted := make(map[string]bool, len(restrictedHosts))
	for _, host := range restrictedHosts {
		restricted[strings.ToLower(host)] = true
	}

	return &Extractor{
		trustedPattern:  trusted,
		anyImagePattern: regexp.MustCompile(`https://[^\s)\]]+\.png[^\s)\]]*`),
		restrictedHosts: restricted,
		fetcher:         fetcher,
		logger:          logger.With(slog.String("component", "extractor")),
	}, nil
}

// Extract applies the locator extraction policy to the response text:
//
//  1. A URL on the trusted CDN is used verbatim.
//  2. Otherwise the first URL with an image extension is taken.
//  3. If that URL points at a restricted host, the bytes are fetched
//     server-side and re-encoded as an embedded data locator; if that
//     secondary fetch fails, a placeholder locator is substituted so the
//     task still completes successfully.
//  4. If no locator can be derived at all, ErrNoResultExtracted is returned.
func (e *Extractor) Extract(ctx context.Context, responseText string) (string, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if responseText == "" {
		return "", ErrEmptyResponse
	}

	if match := e.trustedPattern.FindString(responseText); match != "" {
		log.Debug("extracted trusted CDN locator", slog.String("url", match))
		return match, nil
	}

	match := e.anyImagePattern.FindString(responseText)
	if match == "" {
		log.Warn("no image URL found in capability response",
			slog.Int("response_length", len(responseText)))
		return "", ErrNoResultExtracted
	}

	if !e.isRestricted(match) {
		log.Debug("extracted image locator", slog.String("url", match))
		return match, nil
	}

	// Restricted host: the client cannot fetch this URL itself, so pull the
	// bytes now and embed them.
	data, err := e.fetcher.FetchImage(ctx, match)
	if err != nil {
		// Deliberate policy: a failed secondary fetch is masked with a
		// placeholder rather than failing the task. The user gets a
		// coherent image instead of an error for a cosmetic backend hiccup.
		log.Warn("secondary fetch of restricted locator failed, substituting placeholder",
			slog.String("url", match),
			slog.String("error", err.Error()))
		return PlaceholderDataURI(), nil
	}

	log.Debug("re-encoded restricted locator as data URI",
		slog.String("url", match),
		slog.Int("bytes", len(data)))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// isRestricted reports whether the URL's host is one the eventual client
// cannot fetch directly.
func (e *Extractor) isRestricted(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return e.restrictedHosts[strings.ToLower(parsed.Hostname())]
}

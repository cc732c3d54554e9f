// Package fetcher retrieves origin documents for conversion. Every failure
// mode is normalized to an UpstreamError at the call site; transient origin
// failures are never retried here.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/markdown-gateway/internal/httpx"
)

// acceptHTML advertises HTML and XML media types with a lower-priority
// wildcard fallback.
const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// defaultContentType is assumed when the origin's Content-Type header is
// absent or malformed.
const defaultContentType = "text/html"

// UpstreamError reports an origin fetch that did not produce a 2xx
// response. Status is 0 when the origin was unreachable.
type UpstreamError struct {
	Status     int
	StatusText string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("origin unreachable: %v", e.Err)
	}
	return fmt.Sprintf("origin returned %d %s", e.Status, e.StatusText)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Page is a fetched origin document.
type Page struct {
	// Body is the full response payload.
	Body []byte
	// ContentType is the declared media type, lower-cased and stripped of
	// parameters.
	ContentType string
	// Status is the origin's HTTP status code.
	Status int
}

// Fetcher fetches origin documents over a pooled HTTP client.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher with the given default outbound User-Agent and
// request timeout.
func New(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    httpx.NewClient(timeout),
		userAgent: userAgent,
	}
}

// Client exposes the underlying HTTP client for pass-through proxying.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch GETs the target URL, following redirects. userAgent overrides the
// configured default when non-empty. Non-2xx responses and transport
// errors both return an *UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, target *url.URL, userAgent string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	if userAgent == "" {
		userAgent = f.userAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("read origin body: %w", err)}
	}

	return &Page{
		Body:        body,
		ContentType: normalizeContentType(resp.Header.Get("Content-Type")),
		Status:      resp.StatusCode,
	}, nil
}

// normalizeContentType lower-cases the declared type and strips parameters,
// defaulting to text/html when absent or malformed.
func normalizeContentType(raw string) string {
	if raw == "" {
		return defaultContentType
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return defaultContentType
	}
	return strings.ToLower(mediaType)
}

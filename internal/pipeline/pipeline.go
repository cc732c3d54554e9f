// Package pipeline runs a single conversion: fetch the origin document,
// optionally snapshot the raw bytes, invoke the converter once, and
// classify the output. Steps are strictly sequential; no step is retried.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jonesrussell/markdown-gateway/internal/cache"
	"github.com/jonesrussell/markdown-gateway/internal/convert"
	"github.com/jonesrussell/markdown-gateway/internal/fetcher"
	"github.com/jonesrussell/markdown-gateway/internal/logger"
)

// fallbackName labels the conversion input when the source URL has no
// usable path segment.
const fallbackName = "document"

// ConvertError reports that the conversion capability returned an invalid
// or empty result, or failed outright. Callers surface it as a 500.
type ConvertError struct {
	Reason string
	Err    error
}

func (e *ConvertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion failed: %s: %v", e.Reason, e.Err)
	}
	return "conversion failed: " + e.Reason
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// Options tune a single pipeline run.
type Options struct {
	// UserAgent overrides the outbound User-Agent when non-empty.
	UserAgent string
	// SaveHTML persists the raw origin bytes under the snapshot key.
	SaveHTML bool
	// CacheKey is the primary key the artifact will live under; snapshot
	// keys derive from it.
	CacheKey string
	// RequestID is the correlation id recorded in snapshot provenance.
	RequestID string
}

// Outcome is a completed conversion run.
type Outcome struct {
	// Markdown is the converter's text output. When Suspect is set it is
	// HTML-looking and must never reach the primary cache key.
	Markdown string
	// Suspect reports that the trimmed output begins with an HTML opening
	// tag: the converter echoed HTML instead of producing Markdown.
	Suspect bool
	// OriginContentType is the origin's declared (normalized) media type.
	OriginContentType string
	// Meta is the converter-reported metadata.
	Meta convert.Meta
	// SnapshotSaved reports whether a raw-HTML snapshot was persisted.
	SnapshotSaved bool
}

// Pipeline wires the fetcher, the converter, and the snapshot writer.
type Pipeline struct {
	fetcher   *fetcher.Fetcher
	converter convert.Converter
	writer    *cache.Writer
	log       logger.Logger
}

// New creates a Pipeline.
func New(f *fetcher.Fetcher, c convert.Converter, w *cache.Writer, log logger.Logger) *Pipeline {
	return &Pipeline{fetcher: f, converter: c, writer: w, log: log}
}

// Generate fetches target and converts it to Markdown. Fetch failures
// propagate as *fetcher.UpstreamError; converter failures as
// *ConvertError. A suspect (HTML-looking) output is a successful Outcome
// with Suspect set, not an error.
func (p *Pipeline) Generate(ctx context.Context, target *url.URL, opts Options) (*Outcome, error) {
	page, err := p.fetcher.Fetch(ctx, target, opts.UserAgent)
	if err != nil {
		var ue *fetcher.UpstreamError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, &fetcher.UpstreamError{Err: err}
	}

	outcome := &Outcome{OriginContentType: page.ContentType}

	if opts.SaveHTML {
		outcome.SnapshotSaved = p.writer.SaveSnapshot(ctx, opts.CacheKey, page.Body, page.ContentType, cache.Provenance{
			SourceURL: target.String(),
			RequestID: opts.RequestID,
		})
	}

	doc := convert.Document{
		Name:        filenameHint(target),
		Body:        page.Body,
		ContentType: page.ContentType,
		SourceURL:   target.String(),
	}

	result, err := p.converter.Convert(ctx, doc)
	if err != nil {
		return nil, &ConvertError{Reason: "converter returned no usable result", Err: err}
	}
	if strings.TrimSpace(result.Markdown) == "" {
		return nil, &ConvertError{Reason: "converter returned empty text"}
	}

	outcome.Markdown = result.Markdown
	outcome.Meta = result.Meta

	// A converter that echoes HTML has not failed, but its output must
	// never be presented or cached as Markdown.
	if strings.HasPrefix(strings.TrimSpace(result.Markdown), "<") {
		outcome.Suspect = true
		p.log.Warn("Converter output looks like HTML",
			logger.String("source", target.String()),
			logger.String("request_id", opts.RequestID),
		)
	}

	return outcome, nil
}

// filenameHint derives a label for the conversion input from the target's
// final path segment, extension stripped.
func filenameHint(target *url.URL) string {
	segment := path.Base(strings.Trim(target.Path, "/"))
	if segment == "" || segment == "." || segment == "/" {
		return fallbackName
	}
	if ext := path.Ext(segment); ext != "" {
		segment = strings.TrimSuffix(segment, ext)
	}
	if segment == "" {
		return fallbackName
	}
	return segment
}

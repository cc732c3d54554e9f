// Package cache implements the read and write sides of the converted
// artifact cache on top of the object store. Lookups judge validity
// (content type and age) without ever deleting; writes persist genuine
// Markdown to the primary key and quarantine HTML-looking converter output
// to a side key.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/store"
)

// FreshnessWindow is how long a cached artifact is served before it is
// regenerated. Exactly 90 days (90 * 24 * 3600 * 1000 ms), not a calendar
// approximation.
const FreshnessWindow = 90 * 24 * time.Hour

// Content types written by the cache.
const (
	MarkdownContentType  = "text/markdown; charset=utf-8"
	PlainTextContentType = "text/plain; charset=utf-8"
)

// Derived key suffixes.
const (
	// SnapshotSuffix marks the raw origin HTML saved alongside an artifact.
	SnapshotSuffix = ".source.html"
	// QuarantineSuffix marks converter output that looked like HTML.
	QuarantineSuffix = ".ai-failed.txt"
)

// Status is the outcome of a cache lookup.
type Status int

const (
	// Miss means no valid, fresh artifact exists at the key.
	Miss Status = iota
	// Hit means a valid, fresh artifact was found.
	Hit
	// Unavailable means no store is configured.
	Unavailable
)

// Result carries the lookup outcome. Object is non-nil only on Hit.
type Result struct {
	Status Status
	Object *store.Object
}

// Lookup queries the store for a fresh Markdown artifact at key.
//
// A nil store yields Unavailable. A set refresh flag yields Miss without
// querying the store at all: refresh must bypass, not merely ignore, cached
// data. A stored object only counts as a Hit when its declared content type
// starts with "text/markdown" (case-insensitive) and it is younger than
// maxAge; stale or mistyped objects are treated as absent and regenerated,
// never deleted. Store errors degrade to Miss and are logged, never
// surfaced.
func Lookup(ctx context.Context, s store.ObjectStore, key string, refresh bool, maxAge time.Duration, log logger.Logger) Result {
	if s == nil {
		return Result{Status: Unavailable}
	}
	if refresh {
		return Result{Status: Miss}
	}

	obj, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("Cache read failed, treating as miss",
				logger.String("key", key),
				logger.Error(err),
			)
		}
		return Result{Status: Miss}
	}

	if !isMarkdown(obj.ContentType) {
		log.Debug("Cached object has non-markdown content type, regenerating",
			logger.String("key", key),
			logger.String("content_type", obj.ContentType),
		)
		return Result{Status: Miss}
	}
	if time.Since(obj.Uploaded) >= maxAge {
		log.Debug("Cached object is stale, regenerating",
			logger.String("key", key),
			logger.Time("uploaded", obj.Uploaded),
		)
		return Result{Status: Miss}
	}

	return Result{Status: Hit, Object: obj}
}

func isMarkdown(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/markdown")
}

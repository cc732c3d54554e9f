// Package store defines the object store the gateway persists converted
// artifacts in, plus the available backends. Objects carry a payload, a
// declared content type, an upload timestamp, and free-form provenance
// metadata. The gateway never deletes objects; staleness is judged at read
// time by the cache layer.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// Object is a stored artifact.
type Object struct {
	Key         string            `json:"key"`
	Body        []byte            `json:"-"`
	ContentType string            `json:"content_type"`
	Uploaded    time.Time         `json:"uploaded"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ObjectStore is the interface all backends implement. Implementations must
// be safe for concurrent use; last write wins on concurrent puts to the
// same key.
type ObjectStore interface {
	// Get returns the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	// Put stores body under key with the given content type and metadata,
	// overwriting any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

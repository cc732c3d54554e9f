package store

import (
	"context"
	"maps"
	"sync"
)

// Memory is a map-backed ObjectStore for tests and store-less deployments.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*Object)}
}

// Get returns a copy of the object at key, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneObject(obj), nil
}

// Put stores body under key with an upload timestamp of now.
func (m *Memory) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	return m.PutObject(ctx, &Object{
		Key:         key,
		Body:        body,
		ContentType: contentType,
		Uploaded:    now(),
		Metadata:    metadata,
	})
}

// PutObject stores a fully populated object, preserving its Uploaded
// timestamp. Tests use this to place objects at arbitrary ages.
func (m *Memory) PutObject(_ context.Context, obj *Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.Key] = cloneObject(obj)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func cloneObject(obj *Object) *Object {
	clone := *obj
	clone.Body = append([]byte(nil), obj.Body...)
	if obj.Metadata != nil {
		clone.Metadata = maps.Clone(obj.Metadata)
	}
	return &clone
}

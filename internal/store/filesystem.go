package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem stores each object as a body file plus a JSON metadata sidecar:
// <dir>/<key>.body and <dir>/<key>.json. Keys may contain path separators;
// parent directories are created as needed.
type Filesystem struct {
	dir string
}

// NewFilesystem creates a filesystem store rooted at dir.
func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("filesystem store: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &Filesystem{dir: dir}, nil
}

// Get reads the metadata sidecar and body file for key.
func (f *Filesystem) Get(_ context.Context, key string) (*Object, error) {
	metaPath, bodyPath, err := f.paths(key)
	if err != nil {
		return nil, err
	}

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read metadata %s: %w", metaPath, err)
	}

	var obj Object
	if err := json.Unmarshal(metaData, &obj); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", metaPath, err)
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Metadata exists but body missing - treat as absent
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read body %s: %w", bodyPath, err)
	}
	obj.Body = body

	return &obj, nil
}

// Put writes the body file first and the metadata sidecar last, so a
// partially written object is never observable as present.
func (f *Filesystem) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	metaPath, bodyPath, err := f.paths(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(bodyPath), 0o755); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	if err := os.WriteFile(bodyPath, body, 0o644); err != nil {
		return fmt.Errorf("write body %s: %w", bodyPath, err)
	}

	obj := Object{
		Key:         key,
		ContentType: contentType,
		Uploaded:    now(),
		Metadata:    metadata,
	}
	metaData, err := json.MarshalIndent(&obj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", metaPath, err)
	}
	return nil
}

// Ping verifies the store directory is accessible.
func (f *Filesystem) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

// paths maps a key to its metadata and body file paths, rejecting keys that
// would escape the store directory.
func (f *Filesystem) paths(key string) (metaPath, bodyPath string, err error) {
	if key == "" {
		return "", "", fmt.Errorf("filesystem store: empty key")
	}
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", "", fmt.Errorf("filesystem store: invalid key %q", key)
	}
	base := filepath.Join(f.dir, clean)
	return base + ".json", base + ".body", nil
}

package cache

import (
	"context"
	"time"

	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/store"
)

// Metadata keys attached to stored objects.
const (
	metaSourceURL     = "source_url"
	metaGeneratedAt   = "generated_at"
	metaSavedAt       = "saved_at"
	metaRequestID     = "request_id"
	metaConverterMIME = "converter_mime"
	metaNote          = "note"
)

// Provenance identifies where and when an artifact came from.
type Provenance struct {
	SourceURL     string
	RequestID     string
	ConverterMIME string
}

// Writer persists conversion results. A nil store turns every write into a
// logged no-op; write failures are logged and swallowed because the
// client's response never depends on the cache layer.
type Writer struct {
	store store.ObjectStore
	log   logger.Logger
}

// NewWriter creates a Writer. The store may be nil.
func NewWriter(s store.ObjectStore, log logger.Logger) *Writer {
	return &Writer{store: s, log: log}
}

// WriteMarkdown persists a genuine Markdown payload to the primary key,
// overwriting any previous object there. Reports whether the object was
// stored.
func (w *Writer) WriteMarkdown(ctx context.Context, key string, payload []byte, prov Provenance) bool {
	if w.store == nil {
		return false
	}

	meta := map[string]string{
		metaSourceURL:   prov.SourceURL,
		metaGeneratedAt: time.Now().UTC().Format(time.RFC3339),
		metaRequestID:   prov.RequestID,
	}
	if prov.ConverterMIME != "" {
		meta[metaConverterMIME] = prov.ConverterMIME
	}

	if err := w.store.Put(ctx, key, payload, MarkdownContentType, meta); err != nil {
		w.log.Error("Cache write failed, serving uncached result",
			logger.String("key", key),
			logger.Error(err),
		)
		return false
	}

	w.log.Info("Stored converted markdown",
		logger.String("key", key),
		logger.Int("bytes", len(payload)),
	)
	return true
}

// Quarantine persists suspect converter output (HTML-looking text) to the
// derived quarantine key. The primary key is never touched here under any
// circumstance.
func (w *Writer) Quarantine(ctx context.Context, key string, payload []byte, prov Provenance, note string) {
	if w.store == nil {
		return
	}

	quarantineKey := key + QuarantineSuffix
	meta := map[string]string{
		metaSourceURL: prov.SourceURL,
		metaSavedAt:   time.Now().UTC().Format(time.RFC3339),
		metaRequestID: prov.RequestID,
		metaNote:      note,
	}

	if err := w.store.Put(ctx, quarantineKey, payload, PlainTextContentType, meta); err != nil {
		w.log.Error("Quarantine write failed",
			logger.String("key", quarantineKey),
			logger.Error(err),
		)
		return
	}

	w.log.Warn("Quarantined suspect converter output",
		logger.String("key", quarantineKey),
		logger.String("note", note),
	)
}

// SaveSnapshot persists the raw origin bytes to the derived snapshot key.
// Reports whether the snapshot was stored; failure is non-fatal.
func (w *Writer) SaveSnapshot(ctx context.Context, key string, body []byte, contentType string, prov Provenance) bool {
	if w.store == nil {
		return false
	}

	snapshotKey := key + SnapshotSuffix
	meta := map[string]string{
		metaSourceURL: prov.SourceURL,
		metaSavedAt:   time.Now().UTC().Format(time.RFC3339),
		metaRequestID: prov.RequestID,
	}

	if err := w.store.Put(ctx, snapshotKey, body, contentType, meta); err != nil {
		w.log.Warn("Snapshot write failed, continuing",
			logger.String("key", snapshotKey),
			logger.Error(err),
		)
		return false
	}
	return true
}

// SourceURLOf returns the recorded source URL of a cached object, if any.
func SourceURLOf(obj *store.Object) string {
	if obj == nil {
		return ""
	}
	return obj.Metadata[metaSourceURL]
}

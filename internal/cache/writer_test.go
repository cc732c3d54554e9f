package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/store"
)

func TestWriteMarkdown(t *testing.T) {
	s := store.NewMemory()
	w := NewWriter(s, logger.NewNop())

	stored := w.WriteMarkdown(context.Background(), "articles/foo.md", []byte("# Foo"), Provenance{
		SourceURL:     "https://example.com/articles/foo",
		RequestID:     "req-1",
		ConverterMIME: "text/markdown",
	})
	require.True(t, stored)

	obj, err := s.Get(context.Background(), "articles/foo.md")
	require.NoError(t, err)
	assert.Equal(t, "# Foo", string(obj.Body))
	assert.Equal(t, MarkdownContentType, obj.ContentType)
	assert.Equal(t, "https://example.com/articles/foo", obj.Metadata["source_url"])
	assert.Equal(t, "req-1", obj.Metadata["request_id"])
	assert.NotEmpty(t, obj.Metadata["generated_at"])
}

func TestWriteMarkdownOverwrites(t *testing.T) {
	s := store.NewMemory()
	w := NewWriter(s, logger.NewNop())
	ctx := context.Background()

	require.True(t, w.WriteMarkdown(ctx, "articles/foo.md", []byte("# Old"), Provenance{}))
	require.True(t, w.WriteMarkdown(ctx, "articles/foo.md", []byte("# New"), Provenance{}))

	obj, err := s.Get(ctx, "articles/foo.md")
	require.NoError(t, err)
	assert.Equal(t, "# New", string(obj.Body))
	assert.Equal(t, 1, s.Len())
}

func TestWriteMarkdownNilStore(t *testing.T) {
	w := NewWriter(nil, logger.NewNop())
	assert.False(t, w.WriteMarkdown(context.Background(), "articles/foo.md", []byte("# Foo"), Provenance{}))
}

func TestWriteMarkdownFailureIsSwallowed(t *testing.T) {
	w := NewWriter(failingStore{}, logger.NewNop())
	assert.False(t, w.WriteMarkdown(context.Background(), "articles/foo.md", []byte("# Foo"), Provenance{}))
}

func TestQuarantineNeverTouchesPrimaryKey(t *testing.T) {
	s := store.NewMemory()
	w := NewWriter(s, logger.NewNop())
	ctx := context.Background()

	w.Quarantine(ctx, "articles/foo.md", []byte("<html><body>oops</body></html>"), Provenance{
		SourceURL: "https://example.com/articles/foo",
		RequestID: "req-2",
	}, "converter output begins with an HTML tag")

	_, err := s.Get(ctx, "articles/foo.md")
	assert.ErrorIs(t, err, store.ErrNotFound, "primary key must stay untouched")

	obj, err := s.Get(ctx, "articles/foo.md"+QuarantineSuffix)
	require.NoError(t, err)
	assert.Equal(t, PlainTextContentType, obj.ContentType)
	assert.Equal(t, "<html><body>oops</body></html>", string(obj.Body))
	assert.Equal(t, "converter output begins with an HTML tag", obj.Metadata["note"])
}

func TestQuarantinePreservesExistingPrimaryObject(t *testing.T) {
	s := store.NewMemory()
	w := NewWriter(s, logger.NewNop())
	ctx := context.Background()

	require.True(t, w.WriteMarkdown(ctx, "articles/foo.md", []byte("# Good"), Provenance{}))
	w.Quarantine(ctx, "articles/foo.md", []byte("<html>bad</html>"), Provenance{}, "suspect")

	obj, err := s.Get(ctx, "articles/foo.md")
	require.NoError(t, err)
	assert.Equal(t, "# Good", string(obj.Body))
}

func TestSaveSnapshot(t *testing.T) {
	s := store.NewMemory()
	w := NewWriter(s, logger.NewNop())
	ctx := context.Background()

	saved := w.SaveSnapshot(ctx, "articles/foo.md", []byte("<html>raw</html>"), "text/html", Provenance{
		SourceURL: "https://example.com/articles/foo",
	})
	require.True(t, saved)

	obj, err := s.Get(ctx, "articles/foo.md"+SnapshotSuffix)
	require.NoError(t, err)
	assert.Equal(t, "<html>raw</html>", string(obj.Body))
	assert.Equal(t, "text/html", obj.ContentType)
}

func TestSaveSnapshotFailureIsNonFatal(t *testing.T) {
	w := NewWriter(failingStore{}, logger.NewNop())
	assert.False(t, w.SaveSnapshot(context.Background(), "articles/foo.md", []byte("x"), "text/html", Provenance{}))
}

func TestSourceURLOf(t *testing.T) {
	assert.Empty(t, SourceURLOf(nil))
	assert.Empty(t, SourceURLOf(&store.Object{}))
	assert.Equal(t, "https://example.com/a", SourceURLOf(&store.Object{
		Metadata: map[string]string{"source_url": "https://example.com/a"},
	}))
}

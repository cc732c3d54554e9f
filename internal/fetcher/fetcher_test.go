package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFetchSuccess(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	f := New("gateway-test/1.0", 5*time.Second)
	page, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/articles/foo"), "")
	require.NoError(t, err)

	assert.Equal(t, "<html><body>hi</body></html>", string(page.Body))
	assert.Equal(t, "text/html", page.ContentType)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, "gateway-test/1.0", gotUA)
	assert.Equal(t, acceptHTML, gotAccept)
}

func TestFetchUserAgentOverride(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New("default-agent", 5*time.Second)
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), "custom-agent/2.0")
	require.NoError(t, err)
	assert.Equal(t, "custom-agent/2.0", gotUA)
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New("gateway-test/1.0", 5*time.Second)
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/missing"), "")

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusNotFound, upstreamErr.Status)
	assert.Equal(t, "Not Found", upstreamErr.StatusText)
	assert.Contains(t, upstreamErr.Error(), "404")
}

func TestFetchUnreachableOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	f := New("gateway-test/1.0", time.Second)
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), "")

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, upstreamErr.Status)
	assert.Contains(t, upstreamErr.Error(), "origin unreachable")
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "text/html"},
		{raw: "text/html", want: "text/html"},
		{raw: "Text/HTML; charset=UTF-8", want: "text/html"},
		{raw: "application/xhtml+xml", want: "application/xhtml+xml"},
		{raw: "garbage;;;", want: "text/html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeContentType(tt.raw), "raw=%q", tt.raw)
	}
}

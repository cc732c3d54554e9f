// Package trigger decides whether an incoming request should be served as
// Markdown and, if so, derives the cache key and the origin URL to fetch.
// Everything in this package is pure: identical inputs always yield
// identical outputs.
package trigger

import (
	"net/url"
	"strings"
)

// MarkdownSuffix is the path suffix that marks a Markdown-conversion request.
const MarkdownSuffix = ".md"

// indexKeyName is the key stem used when a header-triggered request has an
// empty path ("/").
const indexKeyName = "index"

// Kind classifies a request.
type Kind int

const (
	// PassThrough means the request is proxied to the origin unchanged.
	PassThrough Kind = iota
	// PathSuffix means the request path ends with ".md".
	PathSuffix
	// AcceptHeader means the Accept header prefers markdown or plain text.
	AcceptHeader
)

func (k Kind) String() string {
	switch k {
	case PathSuffix:
		return "path-suffix"
	case AcceptHeader:
		return "accept-header"
	default:
		return "pass-through"
	}
}

// Classify returns the trigger decision for a decoded request path and an
// Accept header value (may be empty). The path suffix check is
// case-sensitive; the Accept token match is not. When both rules would
// apply, the path suffix wins.
func Classify(path, accept string) Kind {
	if strings.HasSuffix(path, MarkdownSuffix) {
		return PathSuffix
	}
	if acceptsMarkdown(accept) {
		return AcceptHeader
	}
	return PassThrough
}

// acceptsMarkdown reports whether the Accept header contains the whole
// media-type token "text/markdown" or "text/plain". Token boundaries
// matter: "text/plain-extended" must not match.
func acceptsMarkdown(accept string) bool {
	if accept == "" {
		return false
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType := part
		if i := strings.IndexByte(part, ';'); i >= 0 {
			mediaType = part[:i]
		}
		switch strings.ToLower(strings.TrimSpace(mediaType)) {
		case "text/markdown", "text/plain":
			return true
		}
	}
	return false
}

// Resolve derives the cache key and the source URL from the request URL and
// the trigger decision. The request URL's Path field is already
// percent-decoded by net/url, so encoded characters cannot defeat the
// suffix handling.
//
// Path-triggered: the key is the path without its leading slash, suffix
// retained; the source URL is the request URL with the trailing ".md"
// stripped from the path. Header-triggered: the key is the trimmed path
// (or "index" for the root) with ".md" appended; the source URL is the
// request URL unchanged.
func Resolve(u *url.URL, kind Kind) (key string, target *url.URL) {
	t := *u

	switch kind {
	case PathSuffix:
		key = strings.TrimPrefix(u.Path, "/")
		t.Path = strings.TrimSuffix(u.Path, MarkdownSuffix)
		t.RawPath = ""
	case AcceptHeader:
		stem := strings.Trim(u.Path, "/")
		if stem == "" {
			stem = indexKeyName
		}
		key = stem + MarkdownSuffix
	}

	return key, &t
}

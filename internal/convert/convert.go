// Package convert defines the HTML-to-Markdown conversion capability. The
// pipeline hands it exactly one named document per request and expects
// exactly one text result back; anything else is a conversion failure.
package convert

import "context"

// Document is the single named input to a conversion.
type Document struct {
	// Name is a label derived from the source URL's final path segment.
	// It has no semantic effect on the conversion.
	Name string
	// Body is the raw origin payload.
	Body []byte
	// ContentType is the origin's declared media type, lower-cased and
	// stripped of parameters.
	ContentType string
	// SourceURL is the absolute origin URL, used to resolve relative links.
	SourceURL string
}

// Meta describes how a conversion was produced.
type Meta struct {
	// MIME is the media type of the produced text.
	MIME string
	// Title is the document title, when one was found.
	Title string
	// Extractor names the extraction strategy that supplied the content
	// ("readability" or "document").
	Extractor string
	// Words is the word count of the produced markdown.
	Words int
}

// Result is a successful conversion: one markdown payload plus metadata.
type Result struct {
	Markdown string
	Meta     Meta
}

// Converter turns one HTML document into Markdown. Implementations return
// an error for empty input, empty output, or any rendering failure; shape
// tolerance lives here, not in the callers.
type Converter interface {
	Convert(ctx context.Context, doc Document) (*Result, error)
}

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Extractor names reported in Meta.
const (
	extractorReadability = "readability"
	extractorDocument    = "document"
)

// markdownMIME is the media type reported for successful conversions.
const markdownMIME = "text/markdown"

// ErrEmptyDocument is returned when the input body is blank.
var ErrEmptyDocument = errors.New("empty document")

// ErrEmptyResult is returned when rendering produced no markdown text.
var ErrEmptyResult = errors.New("conversion produced no markdown")

// HTMLConverter converts origin HTML to Markdown. It first runs a
// readability pass to isolate the main article content; when that yields
// nothing (small pages, non-article layouts) it falls back to converting
// the whole document.
type HTMLConverter struct{}

// NewHTMLConverter creates the production converter.
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

// Convert implements Converter.
func (c *HTMLConverter) Convert(_ context.Context, doc Document) (*Result, error) {
	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return nil, ErrEmptyDocument
	}

	title := documentTitle(doc.Body)
	contentHTML, extractor, articleTitle := extractContent(doc)
	if articleTitle != "" {
		title = articleTitle
	}

	markdown, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		return nil, fmt.Errorf("render markdown for %s: %w", doc.Name, err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, ErrEmptyResult
	}

	// The readability pass drops the page <h1>; restore the title as the
	// top-level heading unless the markdown already starts with one.
	if title != "" && !strings.HasPrefix(markdown, "#") {
		markdown = "# " + title + "\n\n" + markdown
	}

	return &Result{
		Markdown: markdown,
		Meta: Meta{
			MIME:      markdownMIME,
			Title:     title,
			Extractor: extractor,
			Words:     len(strings.Fields(markdown)),
		},
	}, nil
}

// extractContent runs the readability extractor and falls back to the full
// document when it fails or yields nothing.
func extractContent(doc Document) (contentHTML, extractor, title string) {
	pageURL, err := url.Parse(doc.SourceURL)
	if err != nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(doc.Body), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		return article.Content, extractorReadability, strings.TrimSpace(article.Title)
	}

	return string(doc.Body), extractorDocument, ""
}

// documentTitle pulls the <title> text out of the raw document.
func documentTitle(body []byte) string {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(gq.Find("title").First().Text())
}

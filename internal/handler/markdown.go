// Package handler composes HTTP responses for every branch of the gateway:
// pass-through, cache hit, regenerated, quarantined output, upstream
// failure, and conversion failure.
package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/markdown-gateway/internal/cache"
	"github.com/jonesrussell/markdown-gateway/internal/fetcher"
	"github.com/jonesrussell/markdown-gateway/internal/ginserver"
	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/metrics"
	"github.com/jonesrussell/markdown-gateway/internal/pipeline"
	"github.com/jonesrussell/markdown-gateway/internal/store"
	"github.com/jonesrussell/markdown-gateway/internal/trigger"
)

// Response headers on the conversion path.
const (
	HeaderCacheStatus = "X-Markdown-Cache"
	HeaderSource      = "X-Markdown-Source"
	HeaderDuration    = "X-Markdown-Duration-Ms"
	HeaderConverter   = "X-Markdown-Converter"
)

// Cache status values reported in HeaderCacheStatus.
const (
	CacheStatusHit     = "hit-from-store"
	CacheStatusStored  = "miss-regenerated-and-stored"
	CacheStatusNoStore = "miss-regenerated-no-store"
)

// Query parameters recognized by the gateway. They are stripped from the
// query forwarded to the origin on the conversion path.
const (
	paramDebug    = "debug"
	paramRefresh  = "refresh"
	paramSaveHTML = "saveHtml"
	paramUA       = "ua"
)

// Gateway serves Markdown-conversion requests and proxies everything else
// to the origin.
type Gateway struct {
	origin  *url.URL
	store   store.ObjectStore // nil in degraded no-store mode
	writer  *cache.Writer
	pipe    *pipeline.Pipeline
	client  *http.Client
	maxAge  time.Duration
	metrics *metrics.Metrics
	log     logger.Logger
}

// Deps are the collaborators a Gateway needs.
type Deps struct {
	Origin      *url.URL
	Store       store.ObjectStore
	Writer      *cache.Writer
	Pipeline    *pipeline.Pipeline
	Client      *http.Client
	CacheMaxAge time.Duration
	Metrics     *metrics.Metrics
	Log         logger.Logger
}

// New creates a Gateway.
func New(deps Deps) *Gateway {
	return &Gateway{
		origin:  deps.Origin,
		store:   deps.Store,
		writer:  deps.Writer,
		pipe:    deps.Pipeline,
		client:  deps.Client,
		maxAge:  deps.CacheMaxAge,
		metrics: deps.Metrics,
		log:     deps.Log,
	}
}

// Handle is the catch-all entry point for gateway traffic.
func (g *Gateway) Handle(c *gin.Context) {
	// Only GET and HEAD requests can be served as Markdown; everything
	// else goes straight to the origin.
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		g.passThrough(c)
		return
	}

	kind := trigger.Classify(c.Request.URL.Path, c.GetHeader("Accept"))
	if kind == trigger.PassThrough {
		g.passThrough(c)
		return
	}

	g.serveMarkdown(c, kind)
}

// serveMarkdown runs the cache-and-convert decision chain: lookup, then
// regenerate on miss, then persist and respond.
func (g *Gateway) serveMarkdown(c *gin.Context, kind trigger.Kind) {
	start := time.Now()
	ctx := c.Request.Context()
	requestID := ginserver.RequestID(c)

	key, target := trigger.Resolve(c.Request.URL, kind)
	debug := c.Query(paramDebug) == "1"
	refresh := c.Query(paramRefresh) == "1"
	saveHTML := c.Query(paramSaveHTML) == "1"

	log := g.log.With(
		logger.String("key", key),
		logger.String("trigger", kind.String()),
		logger.String("request_id", requestID),
	)

	result := cache.Lookup(ctx, g.store, key, refresh, g.maxAge, log)
	if result.Status == cache.Hit {
		g.metrics.CacheHits.Inc()
		log.Info("Serving markdown from store")

		source := cache.SourceURLOf(result.Object)
		if source == "" {
			source = g.rebase(target).String()
		}
		c.Header(HeaderCacheStatus, CacheStatusHit)
		c.Header(HeaderSource, source)
		if debug {
			g.setDebugHeaders(c, start, nil)
		}
		c.Data(http.StatusOK, cache.MarkdownContentType, result.Object.Body)
		return
	}
	g.metrics.CacheMisses.Inc()

	originURL := g.rebase(target)
	outcome, err := g.pipe.Generate(ctx, originURL, pipeline.Options{
		UserAgent: c.Query(paramUA),
		SaveHTML:  saveHTML,
		CacheKey:  key,
		RequestID: requestID,
	})
	if err != nil {
		if debug {
			g.setDebugHeaders(c, start, nil)
		}
		g.composeError(c, err, debug, requestID, log)
		return
	}

	prov := cache.Provenance{
		SourceURL:     originURL.String(),
		RequestID:     requestID,
		ConverterMIME: outcome.Meta.MIME,
	}
	c.Header(HeaderSource, originURL.String())
	if debug {
		g.setDebugHeaders(c, start, outcome)
	}

	payload := []byte(outcome.Markdown)

	if outcome.Suspect {
		g.metrics.Quarantines.Inc()
		g.writer.Quarantine(ctx, key, payload, prov, "converter output begins with an HTML tag")
		c.Header(HeaderCacheStatus, CacheStatusNoStore)
		c.Data(http.StatusOK, cache.PlainTextContentType, payload)
		return
	}

	g.metrics.Conversions.Inc()
	cacheStatus := CacheStatusNoStore
	if g.writer.WriteMarkdown(ctx, key, payload, prov) {
		cacheStatus = CacheStatusStored
	}
	log.Info("Serving regenerated markdown",
		logger.String("cache_status", cacheStatus),
		logger.Duration("duration", time.Since(start)),
	)

	c.Header(HeaderCacheStatus, cacheStatus)
	c.Data(http.StatusOK, cache.MarkdownContentType, payload)
}

// composeError maps a pipeline failure to its response branch. Upstream
// failures surface as 502 with the origin status echoed in the body;
// conversion failures as a generic 500; anything else as a 500 carrying
// the correlation id, with truncated detail only under debug.
func (g *Gateway) composeError(c *gin.Context, err error, debug bool, requestID string, log logger.Logger) {
	var upstreamErr *fetcher.UpstreamError
	var convertErr *pipeline.ConvertError

	switch {
	case errors.As(err, &upstreamErr):
		g.metrics.UpstreamErrors.Inc()
		log.Warn("Origin fetch failed", logger.Error(err))
		if upstreamErr.Status > 0 {
			c.String(http.StatusBadGateway, "origin fetch failed: %d %s", upstreamErr.Status, upstreamErr.StatusText)
			return
		}
		c.String(http.StatusBadGateway, "origin fetch failed: origin unreachable")

	case errors.As(err, &convertErr):
		g.metrics.ConvertFailures.Inc()
		log.Error("Conversion failed", logger.Error(err))
		c.String(http.StatusInternalServerError, "markdown conversion failed")

	default:
		log.Error("Unhandled gateway fault", logger.Error(err))
		body := "internal error (request " + requestID + ")"
		if debug {
			body += "\n" + ginserver.TruncateDetail(err.Error())
		}
		c.String(http.StatusInternalServerError, body)
	}
}

// setDebugHeaders attaches timing and converter metadata when debug mode
// was requested.
func (g *Gateway) setDebugHeaders(c *gin.Context, start time.Time, outcome *pipeline.Outcome) {
	c.Header(HeaderDuration, strconv.FormatInt(time.Since(start).Milliseconds(), 10))
	if outcome != nil {
		c.Header(HeaderConverter, outcome.Meta.Extractor+"; words="+strconv.Itoa(outcome.Meta.Words))
	}
}

// rebase maps the resolved target (expressed against the gateway's own
// URL) onto the configured origin, dropping gateway control parameters
// from the forwarded query.
func (g *Gateway) rebase(target *url.URL) *url.URL {
	rebased := *g.origin
	rebased.Path = strings.TrimSuffix(g.origin.Path, "/") + target.Path
	rebased.RawQuery = stripControlParams(target.Query()).Encode()
	return &rebased
}

func stripControlParams(query url.Values) url.Values {
	for _, name := range []string{paramDebug, paramRefresh, paramSaveHTML, paramUA} {
		query.Del(name)
	}
	return query
}

// passThrough forwards the request to the origin unchanged and copies the
// origin's status, headers, and body back to the client.
func (g *Gateway) passThrough(c *gin.Context) {
	target := *g.origin
	target.Path = strings.TrimSuffix(g.origin.Path, "/") + c.Request.URL.Path
	target.RawQuery = c.Request.URL.RawQuery

	outReq, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target.String(), c.Request.Body)
	if err != nil {
		c.String(http.StatusBadGateway, "origin request failed")
		return
	}
	copyHeaders(outReq.Header, c.Request.Header)

	resp, err := g.client.Do(outReq)
	if err != nil {
		g.log.Warn("Pass-through fetch failed",
			logger.String("url", target.String()),
			logger.Error(err),
		)
		c.String(http.StatusBadGateway, "origin request failed")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Status(resp.StatusCode)
	_, _ = io.Copy(c.Writer, resp.Body)
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

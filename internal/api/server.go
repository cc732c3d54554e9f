// Package api assembles the HTTP server for the markdown gateway.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jonesrussell/markdown-gateway/internal/config"
	"github.com/jonesrussell/markdown-gateway/internal/ginserver"
	"github.com/jonesrussell/markdown-gateway/internal/handler"
	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/metrics"
	"github.com/jonesrussell/markdown-gateway/internal/store"
)

// NewServer builds the gateway HTTP server: health and readiness endpoints
// with store and origin checks, Prometheus metrics, and the catch-all
// gateway handler.
func NewServer(
	cfg *config.Config,
	gateway *handler.Gateway,
	objectStore store.ObjectStore,
	client *http.Client,
	m *metrics.Metrics,
	log logger.Logger,
) *ginserver.Server {
	builder := ginserver.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithHealthCheck("origin", ginserver.OriginHealthChecker(client, cfg.Origin.BaseURL)).
		WithRoutes(routes(gateway, m))

	if objectStore != nil {
		builder = builder.WithHealthCheck("store", ginserver.StoreHealthChecker(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return objectStore.Ping(ctx)
		}))
	}

	return builder.Build()
}

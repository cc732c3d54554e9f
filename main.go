// markdown-gateway sits in front of an HTML origin and serves Markdown
// renditions of its pages on demand, caching converted artifacts in an
// object store.
package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/markdown-gateway/internal/api"
	"github.com/jonesrussell/markdown-gateway/internal/cache"
	"github.com/jonesrussell/markdown-gateway/internal/config"
	"github.com/jonesrussell/markdown-gateway/internal/convert"
	"github.com/jonesrussell/markdown-gateway/internal/fetcher"
	"github.com/jonesrussell/markdown-gateway/internal/handler"
	"github.com/jonesrussell/markdown-gateway/internal/logger"
	"github.com/jonesrussell/markdown-gateway/internal/metrics"
	"github.com/jonesrussell/markdown-gateway/internal/pipeline"
	"github.com/jonesrussell/markdown-gateway/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	log = log.With(logger.String("service", cfg.Service.Name))

	origin, err := cfg.OriginURL()
	if err != nil {
		log.Error("Failed to parse origin base URL", logger.Error(err))
		return 1
	}

	objectStore := buildStore(cfg, log)
	m := metrics.New()

	pageFetcher := fetcher.New(cfg.Origin.UserAgent, cfg.Origin.Timeout)
	writer := cache.NewWriter(objectStore, log)
	pipe := pipeline.New(pageFetcher, convert.NewHTMLConverter(), writer, log)

	gateway := handler.New(handler.Deps{
		Origin:      origin,
		Store:       objectStore,
		Writer:      writer,
		Pipeline:    pipe,
		Client:      pageFetcher.Client(),
		CacheMaxAge: cfg.Cache.MaxAge,
		Metrics:     m,
		Log:         log,
	})

	server := api.NewServer(cfg, gateway, objectStore, pageFetcher.Client(), m, log)

	log.Info("Gateway configured",
		logger.String("origin", origin.String()),
		logger.String("cache_backend", cfg.Cache.Backend),
		logger.Duration("cache_max_age", cfg.Cache.MaxAge),
	)

	if err := server.Run(); err != nil {
		log.Error("Server failed", logger.Error(err))
		return 1
	}
	return 0
}

// buildStore creates the configured object store backend. A backend that
// fails to come up is not fatal: the gateway runs degraded, converting on
// every request and storing nothing.
func buildStore(cfg *config.Config, log logger.Logger) store.ObjectStore {
	switch cfg.Cache.Backend {
	case "redis":
		s, err := store.NewRedis(store.RedisConfig{
			Address:  cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis store unavailable, running without cache", logger.Error(err))
			return nil
		}
		return s
	case "filesystem":
		s, err := store.NewFilesystem(cfg.Cache.Dir)
		if err != nil {
			log.Warn("Filesystem store unavailable, running without cache",
				logger.String("dir", cfg.Cache.Dir),
				logger.Error(err),
			)
			return nil
		}
		return s
	case "memory":
		return store.NewMemory()
	default: // "none"
		log.Info("Cache disabled by configuration")
		return nil
	}
}

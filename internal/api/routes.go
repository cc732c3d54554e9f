package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/markdown-gateway/internal/handler"
	"github.com/jonesrussell/markdown-gateway/internal/metrics"
)

// routes wires the metrics endpoint and the catch-all gateway handler.
// Every path not claimed by /health or /metrics belongs to the gateway, so
// the handler hangs off NoRoute rather than a path pattern.
func routes(gateway *handler.Gateway, m *metrics.Metrics) func(*gin.Engine) {
	return func(router *gin.Engine) {
		router.GET("/metrics", gin.WrapH(m.Handler()))
		router.NoRoute(gateway.Handle)
	}
}

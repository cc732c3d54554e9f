package ginserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	// HealthStatusHealthy indicates the service is healthy.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded indicates the service is degraded but functional.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy indicates the service is unhealthy.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the health check response format.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs one health check.
type HealthChecker func() CheckResult

// healthState tracks server start time for uptime reporting.
var healthState = struct {
	sync.Once
	startTime time.Time
}{}

// RegisterHealthRoutes adds the health endpoints to a Gin router:
//   - GET /health - status, service name, version, uptime, check results
//   - HEAD /health - lightweight check for load balancers
//   - GET /health/ready - readiness: runs the checks, 503 when unhealthy
func RegisterHealthRoutes(router *gin.Engine, serviceName, version string, checks map[string]HealthChecker) {
	healthState.Do(func() {
		healthState.startTime = time.Now()
	})

	router.GET("/health", healthHandler(serviceName, version, checks))
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/health/ready", readinessHandler(checks))
}

func healthHandler(serviceName, version string, checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, results := runChecks(checks)
		response := HealthResponse{
			Status:  status,
			Service: serviceName,
			Version: version,
			Uptime:  formatUptime(time.Since(healthState.startTime)),
			Checks:  results,
		}
		c.JSON(httpStatusFor(status), response)
	}
}

// readinessHandler reports whether the service can take traffic. A degraded
// store or origin still answers ready: the gateway serves cache hits and
// proxies in both cases.
func readinessHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, results := runChecks(checks)
		c.JSON(httpStatusFor(status), gin.H{
			"status": status,
			"checks": results,
		})
	}
}

// runChecks executes all checks and aggregates their statuses: any
// unhealthy check wins, then degraded, then healthy.
func runChecks(checks map[string]HealthChecker) (HealthStatus, map[string]CheckResult) {
	status := HealthStatusHealthy
	if len(checks) == 0 {
		return status, nil
	}

	results := make(map[string]CheckResult, len(checks))
	for name, checker := range checks {
		result := checker()
		results[name] = result

		if result.Status == HealthStatusUnhealthy {
			status = HealthStatusUnhealthy
		} else if result.Status == HealthStatusDegraded && status == HealthStatusHealthy {
			status = HealthStatusDegraded
		}
	}
	return status, results
}

func httpStatusFor(status HealthStatus) int {
	if status == HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func formatUptime(d time.Duration) string {
	const hoursPerDay = 24

	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// OriginHealthChecker builds a checker that verifies the origin answers
// HTTP requests at all. Any response counts as reachable, including origin
// error statuses, because the gateway proxies those as-is; only transport
// failures report degraded.
func OriginHealthChecker(client *http.Client, originURL string) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		req, err := http.NewRequest(http.MethodHead, originURL, http.NoBody)
		if err != nil {
			return CheckResult{
				Status:  HealthStatusDegraded,
				Message: "Invalid origin URL",
			}
		}

		resp, err := client.Do(req)
		latency := time.Since(start)
		if err != nil {
			return CheckResult{
				Status:  HealthStatusDegraded,
				Message: "Origin unreachable, conversion misses will fail",
				Latency: latency.String(),
			}
		}
		_ = resp.Body.Close()

		return CheckResult{
			Status:  HealthStatusHealthy,
			Message: "Origin reachable",
			Latency: latency.String(),
		}
	}
}

// StoreHealthChecker builds a checker for the object store. The store is
// optional infrastructure, so an unreachable store reports degraded rather
// than unhealthy.
func StoreHealthChecker(pingFunc func() error) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := pingFunc()
		latency := time.Since(start)

		if err != nil {
			return CheckResult{
				Status:  HealthStatusDegraded,
				Message: "Object store unreachable, running without cache",
				Latency: latency.String(),
			}
		}
		return CheckResult{
			Status:  HealthStatusHealthy,
			Message: "Object store OK",
			Latency: latency.String(),
		}
	}
}

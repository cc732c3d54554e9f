package ginserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/markdown-gateway/internal/logger"
)

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())

	var seen string
	router.GET("/x", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewareHonorsIncoming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "incoming-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "incoming-id", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(logger.NewNop()))
	router.Use(RequestIDMiddleware())
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
	assert.NotContains(t, rec.Body.String(), "kaboom", "panic detail must not leak without debug")
}

func TestRecoveryMiddlewareDebugDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom?debug=1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestTruncateDetail(t *testing.T) {
	short := "short detail"
	assert.Equal(t, short, TruncateDetail(short))

	long := strings.Repeat("x", maxDebugDetail+100)
	truncated := TruncateDetail(long)
	assert.Len(t, truncated, maxDebugDetail+len("... (truncated)"))
	assert.True(t, strings.HasSuffix(truncated, "(truncated)"))
}

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterHealthRoutes(router, "markdown-gateway", "0.1.0", map[string]HealthChecker{
		"store": func() CheckResult {
			return CheckResult{Status: HealthStatusHealthy, Message: "Object store OK"}
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"markdown-gateway"`)

	head := httptest.NewRecorder()
	router.ServeHTTP(head, httptest.NewRequest(http.MethodHead, "/health", nil))
	assert.Equal(t, http.StatusOK, head.Code)
}

func TestReadinessRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		checker  HealthChecker
		wantCode int
	}{
		{
			name: "healthy checks are ready",
			checker: func() CheckResult {
				return CheckResult{Status: HealthStatusHealthy}
			},
			wantCode: http.StatusOK,
		},
		{
			name: "degraded store is still ready",
			checker: func() CheckResult {
				return CheckResult{Status: HealthStatusDegraded, Message: "Object store unreachable, running without cache"}
			},
			wantCode: http.StatusOK,
		},
		{
			name: "unhealthy check is not ready",
			checker: func() CheckResult {
				return CheckResult{Status: HealthStatusUnhealthy}
			},
			wantCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			RegisterHealthRoutes(router, "markdown-gateway", "0.1.0", map[string]HealthChecker{
				"store": tt.checker,
			})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestOriginHealthChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	check := OriginHealthChecker(srv.Client(), srv.URL)
	result := check()
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.NotEmpty(t, result.Latency)
}

func TestOriginHealthCheckerErrorStatusIsStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	check := OriginHealthChecker(srv.Client(), srv.URL)
	assert.Equal(t, HealthStatusHealthy, check().Status)
}

func TestOriginHealthCheckerDegradedWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	check := OriginHealthChecker(http.DefaultClient, srv.URL)
	result := check()
	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Message, "unreachable")
}

func TestStoreHealthCheckerDegradedOnError(t *testing.T) {
	check := StoreHealthChecker(func() error { return assert.AnError })
	result := check()
	assert.Equal(t, HealthStatusDegraded, result.Status)

	check = StoreHealthChecker(func() error { return nil })
	assert.Equal(t, HealthStatusHealthy, check().Status)
}

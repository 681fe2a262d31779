package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"syncspace-backend/pkg/metrics"
)

func TestMetricsHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := metrics.NewMetrics("test-service")
	m.RecordHTTPRequest(http.MethodGet, "/v1/calls", http.StatusOK, 5*time.Millisecond)

	router := gin.New()
	router.GET("/metrics", MetricsHandler(m))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPrometheusMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := metrics.NewMetrics("test-service")
	router := gin.New()
	router.Use(PrometheusMiddleware(m))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", MetricsHandler(m))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `endpoint="/ping"`)
}

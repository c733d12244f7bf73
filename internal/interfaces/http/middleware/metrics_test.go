package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func metricsRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/zakat/calculations/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/zakat/calculate", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no valid assets"})
	})
	return router
}

func TestHTTPMetrics_DisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, mw := range map[string]gin.HandlerFunc{
		"config disabled":    HTTPMetrics(HTTPMetricsConfig{Enabled: false}),
		"nil meter provider": HTTPMetrics(HTTPMetricsConfig{Enabled: true}),
		"meter disabled":     HTTPMetricsWithMeter(nil, true),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			metricsRouter(mw).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zakat/calculations/abc", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetricsWithMeter_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)
	router := metricsRouter(HTTPMetricsWithMeter(mp.Meter("http.server"), true))

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zakat/calculations/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/zakat/calculate", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	total := collectMetric(t, reader, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	byRoute := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		byRoute[route.AsString()] = dp.Value
		if route.AsString() == "/zakat/calculate" {
			status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
			assert.Equal(t, int64(http.StatusUnprocessableEntity), status.AsInt64())
		}
	}
	assert.Equal(t, int64(3), byRoute["/zakat/calculations/:id"])
	assert.Equal(t, int64(1), byRoute["/zakat/calculate"])
}

func TestHTTPMetricsWithMeter_DurationAndSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)
	router := metricsRouter(HTTPMetricsWithMeter(mp.Meter("http.server"), true))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zakat/calculations/abc", nil))

	duration := collectMetric(t, reader, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	size := collectMetric(t, reader, "http_server_response_size_bytes")
	require.NotNil(t, size)
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)
	router := metricsRouter(HTTPMetricsWithMeter(mp.Meter("http.server"), true))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	total := collectMetric(t, reader, "http_server_request_total")
	require.NotNil(t, total)
	sum := total.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.True(t, sum.DataPoints[0].Attributes.HasValue(telemetry.AttrHTTPRoute))
	route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "unknown", route.AsString())
}

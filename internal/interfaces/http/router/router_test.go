package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appzakat "github.com/slimatic/zakapp-sub001/internal/application/zakat"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/dto"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/handler"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	var hits int
	r.Use(func(c *gin.Context) {
		hits++
		c.Next()
	})
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, 1, hits)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("zakat", "/zakat")
		assert.Equal(t, "zakat", g.Name())
		assert.Equal(t, "/zakat", g.Prefix())
	})

	t.Run("subgroups and group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("zakat", "/zakat").Use(func(c *gin.Context) {
			c.Header("X-Group", "zakat")
			c.Next()
		})
		g.Group("methodologies", "/methodologies").GET("/:id", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/zakat/methodologies/hanafi", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hanafi", w.Body.String())
		assert.Equal(t, "zakat", w.Header().Get("X-Group"))
	})

	t.Run("method mismatch is not routed", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("zakat", "/zakat").
			POST("/calculate", func(c *gin.Context) { c.Status(http.StatusOK) }).
			RegisterRoutes(engine.Group("/api/v1"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/zakat/calculate", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestZakatRoutes(t *testing.T) {
	calc := appzakat.NewCalculationService(appzakat.NewMethodologyCatalog(), nil, nil, nil, nil)
	g := ZakatRoutes(handler.NewZakatHandler(calc))

	assert.ElementsMatch(t, []string{
		"POST /calculate",
		"POST /compare",
		"GET /nisab",
		"GET /methodologies",
		"GET /methodologies/:id",
		"GET /calculations",
		"GET /calculations/:id",
	}, g.Routes())
}

func TestSystemRoutes(t *testing.T) {
	g := SystemRoutes(handler.NewSystemHandler("Zakat API", "1.0.0"))
	assert.Equal(t, []string{"GET /info", "GET /ping", "GET /health"}, g.Routes())
}

func newTestEngine(maxBody int64) *gin.Engine {
	engine := NewEngine(EngineConfig{
		CORS:        middleware.CORSConfig{AllowOrigins: []string{"https://app.example.com"}, AllowMethods: []string{http.MethodGet, http.MethodPost}},
		MaxBodySize: maxBody,
	})
	calc := appzakat.NewCalculationService(appzakat.NewMethodologyCatalog(), nil, nil, nil, nil)

	NewRouter(engine).
		Register(ZakatRoutes(handler.NewZakatHandler(calc))).
		Register(SystemRoutes(handler.NewSystemHandler("Zakat API", "1.0.0"))).
		Setup()
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(1024)

	t.Run("versioned routes through the middleware stack", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/zakat/methodologies", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 6)
	})

	t.Run("system ping", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pong")
	})

	t.Run("unknown route uses the error envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/zakat/unknown", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-404")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "req-404", resp.Error.RequestID)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		body := `{"methodology":"standard","assets":[{"name":"` + strings.Repeat("x", 2048) + `"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/zakat/calculate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
	})
}

func TestMetricsConfig(t *testing.T) {
	cfg := MetricsConfig(nil)
	assert.False(t, cfg.Enabled)
	assert.Nil(t, cfg.MeterProvider)
}

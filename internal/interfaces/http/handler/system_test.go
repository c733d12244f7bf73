package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/dto"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("Zakat API", "1.0.0")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.Empty(t, h.checks)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler("Zakat API", "1.2.3")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/info", nil)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Zakat API", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler("Zakat API", "1.0.0")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/ping", nil)

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	assert.NoError(t, err)
}

func serveHealth(t *testing.T, h *SystemHandler) (int, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/health", nil)
	h.Health(c)

	var body struct {
		Success bool           `json:"success"`
		Data    HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, w.Code == http.StatusOK, body.Success)
	return w.Code, body.Data
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }

	t.Run("no checks is healthy", func(t *testing.T) {
		code, resp := serveHealth(t, NewSystemHandler("Zakat API", "1.0.0"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, HealthStatusHealthy, resp.Status)
		assert.Empty(t, resp.Components)
	})

	t.Run("all checks pass", func(t *testing.T) {
		h := NewSystemHandler("Zakat API", "1.0.0").
			AddCheck("database", ok).
			AddCheck("cache", ok)

		code, resp := serveHealth(t, h)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, resp.Components, 2)
		assert.Equal(t, "cache", resp.Components[0].Name)
		assert.Equal(t, "database", resp.Components[1].Name)
	})

	t.Run("failing check returns 503", func(t *testing.T) {
		h := NewSystemHandler("Zakat API", "1.0.0").
			AddCheck("database", func(context.Context) error { return errors.New("connection refused") }).
			AddCheck("cache", ok)

		code, resp := serveHealth(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, HealthStatusUnhealthy, resp.Status)
		require.Len(t, resp.Components, 2)
		assert.Equal(t, HealthStatusHealthy, resp.Components[0].Status)
		assert.Equal(t, HealthStatusUnhealthy, resp.Components[1].Status)
		assert.Equal(t, "connection refused", resp.Components[1].Error)
	})

	t.Run("check sees a deadline", func(t *testing.T) {
		h := NewSystemHandler("Zakat API", "1.0.0").AddCheck("cache", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		})

		code, _ := serveHealth(t, h)
		assert.Equal(t, http.StatusOK, code)
	})
}

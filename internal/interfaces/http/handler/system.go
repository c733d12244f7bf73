package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/dto"
)

// DefaultHealthTimeout bounds each health check
const DefaultHealthTimeout = 2 * time.Second

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// SystemHandler serves ping, info and health endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	timeout   time.Duration
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(name, version string) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		timeout:   DefaultHealthTimeout,
		checks:    make(map[string]HealthCheck),
	}
}

// AddCheck registers a named dependency probe for /system/health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) *SystemHandler {
	if check != nil {
		h.checks[name] = check
	}
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health statuses
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse aggregates every registered check
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components"`
}

// Health handles GET /system/health. Any failing check turns the response into a 503.
func (h *SystemHandler) Health(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: HealthStatusHealthy, Components: make([]ComponentHealth, 0, len(names))}
	for _, name := range names {
		comp := h.run(c.Request.Context(), name, h.checks[name])
		if comp.Status != HealthStatusHealthy {
			resp.Status = HealthStatusUnhealthy
		}
		resp.Components = append(resp.Components, comp)
	}

	status := http.StatusOK
	if resp.Status != HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

func (h *SystemHandler) run(ctx context.Context, name string, check HealthCheck) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	comp := ComponentHealth{
		Name:    name,
		Status:  HealthStatusHealthy,
		Latency: time.Since(start).String(),
	}
	if err != nil {
		comp.Status = HealthStatusUnhealthy
		comp.Error = err.Error()
	}
	return comp
}

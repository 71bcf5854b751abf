package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// HealthHandler reports process and dependency health
type HealthHandler struct {
	BaseHandler
	version   string
	checks    map[string]CheckFunc
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a health handler running the given checks
func NewHealthHandler(version string, checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{
		version:   version,
		checks:    checks,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// HealthResponse is the health check result
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Version   string            `json:"version" example:"1.4.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"3h12m5s"`
	Checks    map[string]string `json:"checks"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Pings the database and Redis. Answers 503 when any check fails.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

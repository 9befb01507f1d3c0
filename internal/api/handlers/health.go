package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// healthChecker is satisfied by the Postgres and Redis clients.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// systemInfoProvider is satisfied by the resource monitor.
type systemInfoProvider interface {
	SystemInfo() map[string]interface{}
}

// HealthHandler reports service and host health.
type HealthHandler struct {
	db      healthChecker
	redis   healthChecker
	monitor systemInfoProvider
	version string
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]string      `json:"services"`
	System    map[string]interface{} `json:"system,omitempty"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
}

// NewHealthHandler creates the health handler. Any dependency may be nil and
// is then reported as not configured.
func NewHealthHandler(db, redis healthChecker, monitor systemInfoProvider, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		monitor: monitor,
		version: version,
	}
}

// HealthCheck reports overall health, degrading rather than failing when a
// dependency is down.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	services := make(map[string]string)

	services["database"] = h.checkDependency(ctx, h.db)
	services["redis"] = h.checkDependency(ctx, h.redis)

	status := "healthy"
	for _, s := range services {
		if s != "healthy" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}
	if h.monitor != nil {
		response.System = h.monitor.SystemInfo()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func (h *HealthHandler) checkDependency(ctx context.Context, dep healthChecker) string {
	if dep == nil {
		return "unhealthy: not configured"
	}
	if err := dep.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

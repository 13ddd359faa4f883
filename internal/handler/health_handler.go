// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	service   *service.PrintService
	config    *config.Config
	logger    *utils.ServiceLogger
	startedAt time.Time
	clients   func() *ConnectionStats
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(printService *service.PrintService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service:   printService,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startedAt: time.Now(),
	}
}

// WithConnectionStats adds a websocket check reporting connected clients
func (h *HealthHandler) WithConnectionStats(stats func() *ConnectionStats) *HealthHandler {
	h.clients = stats
	return h
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including configured printers and the session
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	printers := h.service.Devices()
	busy := 0
	for _, p := range printers {
		if p.Busy {
			busy++
		}
	}
	printerCheck := CheckResult{
		Status:  "healthy",
		Message: "Printers configured",
		Data: map[string]interface{}{
			"configured": len(printers),
			"busy":       busy,
		},
	}
	if len(printers) == 0 {
		printerCheck.Status = "degraded"
		printerCheck.Message = "No printers configured"
		health.Status = "degraded"
	}
	health.Checks["printers"] = printerCheck

	session := h.service.Session()
	sessionCheck := CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"printing":     session.Printing,
			"is_connected": session.IsConnected,
		},
	}
	if session.Device != nil {
		sessionCheck.Message = "Printer selected: " + session.Device.String()
	} else {
		sessionCheck.Message = "No printer selected"
	}
	if session.LastError != "" {
		sessionCheck.Data["last_error"] = session.LastError
	}
	health.Checks["session"] = sessionCheck

	if h.clients != nil {
		stats := h.clients()
		health.Checks["websocket"] = CheckResult{
			Status: "healthy",
			Data: map[string]interface{}{
				"connections": stats.TotalConnections,
				"by_target":   stats.ByTarget,
			},
		}
	}

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Description Check if service is ready to accept print jobs
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if len(h.service.Devices()) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "no printers configured",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/handler"
	"order-printer/internal/middleware"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	printService *service.PrintService
	events       *service.EventBus
	wsHandler    *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	printService *service.PrintService,
	events *service.EventBus,
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		printService: printService,
		events:       events,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.IsDevelopment() && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// Close releases the WebSocket clients
func (r *Router) Close() {
	if r.wsHandler != nil {
		r.wsHandler.Close()
	}
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger, "/live", "/ready"))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	r.wsHandler = handler.NewWebSocketHandler(r.printService, r.events, r.config.Security.AllowedOrigins, r.logger)
	healthHandler := handler.NewHealthHandler(r.printService, r.config, r.logger).
		WithConnectionStats(r.wsHandler.GetConnectionStats)
	printHandler := handler.NewPrintHandler(r.printService, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printService, r.logger)

	// Health check routes (no auth required)
	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	if r.config.Security.AuthEnabled {
		apiV1.Use(middleware.NewAuthMiddleware(&r.config.Security, r.logger).RequireAuth())
	}
	printerHandler.RegisterRoutes(apiV1)
	printHandler.RegisterRoutes(apiV1)

	r.wsHandler.RegisterRoutes(router)

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully",
		zap.Bool("auth_enabled", r.config.Security.AuthEnabled),
	)
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/driver"
	"order-printer/internal/queue"
	"order-printer/internal/receipt"
	"order-printer/internal/routes"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
	router *routes.Router

	driverRegistry *driver.Registry
	controller     *queue.Controller
	monitor        *service.StatusMonitor
	events         *service.EventBus
	printService   *service.PrintService
}

// @title Order Printer API
// @version 1.0
// @description Compiles orders into receipts and prints them on ESC/POS printers
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.Int("printers", len(cfg.Printers)),
	)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDriverRegistry(); err != nil {
		return nil, fmt.Errorf("failed to initialize driver registry: %w", err)
	}

	app.initializeQueue()
	app.initializeMonitoring()

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initializeServer()

	return app, nil
}

func (app *Application) initializeDriverRegistry() error {
	app.driverRegistry = driver.NewRegistry(app.logger)
	driver.RegisterDefaultDrivers(app.driverRegistry)

	if err := app.driverRegistry.Build(app.config.Printers, app.config.Receipt.PrintWidth); err != nil {
		return err
	}

	app.logger.Info("Driver registry initialized successfully",
		zap.Int("configured_printers", len(app.driverRegistry.Devices())),
	)
	return nil
}

func (app *Application) initializeQueue() {
	app.controller = queue.NewController(app.driverRegistry, queue.Options{
		PollInterval:       app.config.Queue.PollInterval,
		MaxConnectAttempts: app.config.Queue.MaxConnectAttempts,
		ConnectTimeout:     app.config.Queue.ConnectTimeout,
		TaskTimeout:        app.config.Queue.TaskTimeout,
	}, app.logger)

	opts := app.controller.Options()
	app.logger.Info("Print queue initialized",
		zap.Duration("poll_interval", opts.PollInterval),
		zap.Int("max_connect_attempts", opts.MaxConnectAttempts),
		zap.Duration("task_timeout", opts.TaskTimeout),
	)
}

// initializeMonitoring attaches the status monitor to every printer and
// starts polling each one at its configured interval
func (app *Application) initializeMonitoring() {
	app.events = service.NewEventBus(app.logger)
	go app.events.Start()

	app.monitor = service.NewStatusMonitor(app.controller, app.logger)
	for _, info := range app.driverRegistry.Devices() {
		drv, err := app.driverRegistry.Driver(info.Device)
		if err != nil {
			app.logger.Warn("Printer has no driver", zap.String("printer_target", info.Target), zap.Error(err))
			continue
		}
		app.monitor.Attach(info.Device, drv)

		if pc, ok := app.config.Printer(info.Target); ok {
			app.monitor.Poll(info.Device, pc.StatusInterval)
		}
	}
}

func (app *Application) initializeServices() error {
	compiler := receipt.NewCompiler(receipt.LayoutFromConfig(app.config.Receipt))

	app.printService = service.NewPrintService(
		app.controller,
		app.driverRegistry,
		compiler,
		service.NewPrinterSession(),
		app.monitor,
		app.events,
		app.logger,
	)

	if target := app.config.Session.DefaultPrinter; target != "" {
		if _, err := app.printService.SelectPrinter(target); err != nil {
			return fmt.Errorf("failed to select default printer: %w", err)
		}
	}

	app.logger.Info("Services initialized successfully")
	return nil
}

func (app *Application) initializeServer() {
	app.router = routes.NewRouter(app.config, app.logger, app.printService, app.events)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown stops accepting requests, then releases the pipeline back to
// front: clients, service, monitor, queue, bus, drivers
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.router.Close()
	app.printService.Close()
	app.monitor.Close()

	if err := app.controller.Close(); err != nil {
		app.logger.Error("Print queue close error", zap.Error(err))
	}

	app.events.Stop()

	if err := app.driverRegistry.Close(); err != nil {
		app.logger.Error("Driver close error", zap.Error(err))
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the HTTP server until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}

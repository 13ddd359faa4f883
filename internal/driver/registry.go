// internal/driver/registry.go
package driver

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/model"
	"order-printer/pkg/driver"
)

// ErrUnknownPrinter is returned for a target no printer is configured for
var ErrUnknownPrinter = errors.New("unknown printer")

// DriverFactory creates the driver for one configured printer
type DriverFactory func(device model.Device, printer config.PrinterConfig, printWidth int, logger *zap.Logger) (driver.Printer, error)

// Registry maps driver names to factories and holds one driver instance per
// configured printer.
type Registry struct {
	factories map[string]DriverFactory
	printers  map[string]*registeredPrinter
	order     []string
	mu        sync.RWMutex
	logger    *zap.Logger
}

type registeredPrinter struct {
	info    model.PrinterInfo
	printer driver.Printer
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		factories: make(map[string]DriverFactory),
		printers:  make(map[string]*registeredPrinter),
		logger:    logger,
	}
}

// Register registers a driver factory under name
func (r *Registry) Register(name string, factory DriverFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	r.logger.Info("Driver registered", zap.String("driver", name))
}

// IsSupported checks if a driver name has a factory
func (r *Registry) IsSupported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Build creates a driver for every configured printer. Drivers open no
// connection here; connections belong to the queue controller.
func (r *Registry) Build(printers []config.PrinterConfig, printWidth int) error {
	for _, pc := range printers {
		if err := r.Add(pc, printWidth); err != nil {
			return err
		}
	}
	return nil
}

// Add creates and stores the driver for one printer
func (r *Registry) Add(pc config.PrinterConfig, printWidth int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.printers[pc.Target]; exists {
		return fmt.Errorf("printer %q already registered", pc.Target)
	}
	factory, ok := r.factories[pc.Driver]
	if !ok {
		return fmt.Errorf("no driver found for %q (printer %s)", pc.Driver, pc.Target)
	}

	device := model.Device{Target: pc.Target, Name: pc.Name}
	printer, err := factory(device, pc, printWidth, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create driver for %s: %w", pc.Target, err)
	}

	ct, _ := model.ParseConnectionType(pc.ConnectionType)
	r.printers[pc.Target] = &registeredPrinter{
		info: model.PrinterInfo{
			Device:         device,
			Driver:         pc.Driver,
			ConnectionType: ct,
		},
		printer: printer,
	}
	r.order = append(r.order, pc.Target)

	r.logger.Info("Printer configured",
		zap.String("printer_target", pc.Target),
		zap.String("driver", pc.Driver),
		zap.String("connection_type", string(ct)),
	)
	return nil
}

// Driver returns the driver of a configured printer
func (r *Registry) Driver(device model.Device) (driver.Printer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.printers[device.Target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrinter, device.Target)
	}
	return p.printer, nil
}

// Lookup resolves a target to its device handle
func (r *Registry) Lookup(target string) (model.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.printers[target]
	if !ok {
		return model.Device{}, false
	}
	return p.info.Device, true
}

// Devices lists configured printers in configuration order
func (r *Registry) Devices() []model.PrinterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]model.PrinterInfo, 0, len(r.order))
	for _, target := range r.order {
		infos = append(infos, r.printers[target].info)
	}
	return infos
}

// Close releases drivers that hold resources
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, target := range r.order {
		if c, ok := r.printers[target].printer.(driver.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", target, err))
			}
		}
	}
	return errors.Join(errs...)
}

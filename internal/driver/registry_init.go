// internal/driver/registry_init.go
package driver

import (
	"fmt"

	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/driver/escpos"
	"order-printer/internal/driver/preview"
	"order-printer/internal/model"
	"order-printer/internal/protocol"
	"order-printer/pkg/driver"
)

// Driver names accepted in printers[].driver
const (
	DriverESCPOS  = "escpos"
	DriverPreview = "preview"
)

// RegisterDefaultDrivers registers all built-in drivers
func RegisterDefaultDrivers(registry *Registry) {
	registry.Register(DriverESCPOS, newESCPOSDriver)
	registry.Register(DriverPreview, newPreviewDriver)
}

func newESCPOSDriver(device model.Device, pc config.PrinterConfig, printWidth int, logger *zap.Logger) (driver.Printer, error) {
	ct, ok := model.ParseConnectionType(pc.ConnectionType)
	if !ok {
		return nil, fmt.Errorf("unsupported connection type: %s", pc.ConnectionType)
	}

	proto, err := protocol.CreateProtocol(ct, pc.ConnectionConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s protocol: %w", ct, err)
	}

	cfg, err := escpos.ParseConfig(pc.Options, printWidth)
	if err != nil {
		return nil, err
	}
	return escpos.New(device, proto, cfg, logger)
}

func newPreviewDriver(device model.Device, pc config.PrinterConfig, printWidth int, logger *zap.Logger) (driver.Printer, error) {
	return preview.New(printWidth), nil
}

// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"order-printer/internal/model"
)

// USBConnection implements DeviceProtocol for USB printer-class devices
type USBConnection struct {
	config   *USBConfig
	usb      *gousb.Context
	device   *gousb.Device
	release  func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	stats    statsRecorder
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
	}
}

// Open claims the default interface of the matching device
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.device != nil {
		return nil
	}

	vendorID, err := parseHexID(uc.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := parseHexID(uc.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	usb := gousb.NewContext()
	device, err := uc.openDevice(usb, vendorID, productID)
	if err != nil {
		usb.Close()
		uc.stats.failed()
		return err
	}
	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Debug("Kernel driver auto-detach unavailable", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		usb.Close()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	out, err := intf.OutEndpoint(uc.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		usb.Close()
		return fmt.Errorf("failed to get out endpoint %d: %w", uc.config.Endpoint, err)
	}

	in, err := intf.InEndpoint(uc.config.InEndpoint)
	if err != nil {
		uc.logger.Warn("No in endpoint, status reads disabled", zap.Error(err))
		in = nil
	}

	uc.usb = usb
	uc.device = device
	uc.release = done
	uc.outEndpt = out
	uc.inEndpt = in
	uc.stats.connected(true)
	uc.logger.Debug("USB connection opened")
	return nil
}

func (uc *USBConnection) openDevice(usb *gousb.Context, vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var chosen *gousb.Device
	for _, d := range devices {
		if chosen == nil && uc.matchesSerial(d) {
			chosen = d
			continue
		}
		d.Close()
	}
	if chosen == nil {
		return nil, fmt.Errorf("USB device not found (VID: %s, PID: %s)", vendorID, productID)
	}
	return chosen, nil
}

func (uc *USBConnection) matchesSerial(d *gousb.Device) bool {
	if uc.config.SerialNumber == "" {
		return true
	}
	sn, err := d.SerialNumber()
	return err == nil && sn == uc.config.SerialNumber
}

// Close releases the interface and the device
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.device == nil {
		return nil
	}

	if uc.release != nil {
		uc.release()
		uc.release = nil
	}
	err := uc.device.Close()
	if uc.usb != nil {
		uc.usb.Close()
		uc.usb = nil
	}

	uc.device = nil
	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.stats.connected(false)

	if err != nil {
		return fmt.Errorf("failed to close USB device: %w", err)
	}
	uc.logger.Debug("USB connection closed")
	return nil
}

// IsOpen returns whether the device is claimed
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the bulk out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if uc.outEndpt == nil {
		return fmt.Errorf("usb: %w", ErrNotOpen)
	}

	wctx := ctx
	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := uc.outEndpt.WriteContext(wctx, data)
	if err != nil {
		uc.stats.failed()
		return fmt.Errorf("failed to write to USB device: %w", err)
	}
	if n != len(data) {
		uc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.wrote(n, time.Since(start))
	uc.logger.Debug("USB write completed", zap.Int("bytes", n))
	return nil
}

// Read reads up to maxBytes from the bulk in endpoint
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if uc.inEndpt == nil {
		return nil, fmt.Errorf("usb: no in endpoint: %w", ErrNotOpen)
	}

	rctx := ctx
	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	buf := make([]byte, maxBytes)
	n, err := uc.inEndpt.ReadContext(rctx, buf)
	if err != nil {
		uc.stats.failed()
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}

	uc.stats.read(n)
	return buf[:n], nil
}

// Type returns the protocol type
func (uc *USBConnection) Type() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Stats returns a snapshot of the transfer statistics
func (uc *USBConnection) Stats() ProtocolStats {
	return uc.stats.snapshot()
}

// parseHexID parses a USB ID written as 0x04b8 or 04b8
func parseHexID(s string) (gousb.ID, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	id, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(id), nil
}

// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"order-printer/internal/model"
)

// SerialConnection implements DeviceProtocol for serial printers
type SerialConnection struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  statsRecorder
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) *SerialConnection {
	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
	}
}

func (sc *SerialConnection) mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	switch sc.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	}
	if sc.config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode
}

// Open opens the serial port
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.port != nil {
		return nil
	}

	port, err := serial.Open(sc.config.Port, sc.mode())
	if err != nil {
		sc.stats.failed()
		return fmt.Errorf("failed to open serial port %s: %w", sc.config.Port, err)
	}

	if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	sc.port = port
	sc.stats.connected(true)
	sc.logger.Debug("Serial port opened", zap.Int("baud_rate", sc.config.BaudRate))
	return nil
}

// Close closes the serial port
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.stats.connected(false)
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Debug("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if sc.port == nil {
		return fmt.Errorf("serial: %w", ErrNotOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.failed()
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		sc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}
	if err := sc.port.Drain(); err != nil {
		sc.logger.Debug("Serial drain failed", zap.Error(err))
	}

	sc.stats.wrote(n, time.Since(start))
	sc.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return nil
}

// Read reads up to maxBytes from the serial port. A read timeout yields an
// empty slice.
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if sc.port == nil {
		return nil, fmt.Errorf("serial: %w", ErrNotOpen)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d := deadline(ctx, sc.config.Timeout); !d.IsZero() {
		timeout := time.Until(d)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
		if err := sc.port.SetReadTimeout(timeout); err != nil {
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	buf := make([]byte, maxBytes)
	n, err := sc.port.Read(buf)
	if err != nil {
		sc.stats.failed()
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}

	sc.stats.read(n)
	return buf[:n], nil
}

// Type returns the protocol type
func (sc *SerialConnection) Type() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Stats returns a snapshot of the transfer statistics
func (sc *SerialConnection) Stats() ProtocolStats {
	return sc.stats.snapshot()
}

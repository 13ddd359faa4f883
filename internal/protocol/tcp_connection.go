// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/model"
)

// TCPConnection implements DeviceProtocol for raw TCP printing
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  statsRecorder
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) *TCPConnection {
	return &TCPConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

// Address returns host:port of the printer
func (tc *TCPConnection) Address() string {
	return net.JoinHostPort(tc.config.Host, strconv.Itoa(tc.config.Port))
}

// Open dials the printer
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.conn != nil {
		return nil
	}

	dialer := &net.Dialer{Timeout: tc.config.Timeout}
	if tc.config.KeepAlive {
		dialer.KeepAlive = 30 * time.Second
	}

	conn, err := dialer.DialContext(ctx, "tcp", tc.Address())
	if err != nil {
		tc.stats.failed()
		return fmt.Errorf("failed to connect to %s: %w", tc.Address(), err)
	}

	tc.conn = conn
	tc.stats.connected(true)
	tc.logger.Debug("TCP connection opened")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.stats.connected(false)
	if err != nil {
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Debug("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if tc.conn == nil {
		return fmt.Errorf("tcp: %w", ErrNotOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_ = tc.conn.SetWriteDeadline(deadline(ctx, tc.config.WriteTimeout))

	start := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.failed()
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}
	if n != len(data) {
		tc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tc.stats.wrote(n, time.Since(start))
	tc.logger.Debug("TCP write completed", zap.Int("bytes", n))
	return nil
}

// Read reads up to maxBytes from the TCP connection. The read ends at the
// earlier of ReadTimeout and the ctx deadline; a reply arriving later is
// left on the connection for the next Read.
func (tc *TCPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if tc.conn == nil {
		return nil, fmt.Errorf("tcp: %w", ErrNotOpen)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = tc.conn.SetReadDeadline(deadline(ctx, tc.config.ReadTimeout))

	buf := make([]byte, maxBytes)
	n, err := tc.conn.Read(buf)
	if err != nil {
		tc.stats.failed()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("failed to read from TCP connection: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to read from TCP connection: %w", err)
	}

	tc.stats.read(n)
	return buf[:n], nil
}

// Type returns the protocol type
func (tc *TCPConnection) Type() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Stats returns a snapshot of the transfer statistics
func (tc *TCPConnection) Stats() ProtocolStats {
	return tc.stats.snapshot()
}

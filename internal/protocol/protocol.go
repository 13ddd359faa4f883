// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"sync"
	"time"

	"order-printer/internal/model"
)

// ErrNotOpen is returned by reads and writes on a closed transport
var ErrNotOpen = errors.New("connection not open")

// DeviceProtocol is a byte pipe to a printer
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	Type() model.ConnectionType
	Stats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder keeps ProtocolStats under its own lock so reads and writes
// can record without holding the connection lock exclusively.
type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) connected(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.IsConnected = on
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) wrote(n int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	if r.stats.AverageLatency == 0 {
		r.stats.AverageLatency = latency
	} else {
		r.stats.AverageLatency = (r.stats.AverageLatency + latency) / 2
	}
}

func (r *statsRecorder) read(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) failed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

func (r *statsRecorder) snapshot() ProtocolStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// deadline returns the earlier of now+timeout and the ctx deadline. A zero
// result means no deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

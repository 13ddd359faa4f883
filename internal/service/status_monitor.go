// internal/service/status_monitor.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/model"
	"order-printer/internal/queue"
	"order-printer/pkg/driver"
)

// StatusListener receives every status observed for a printer
type StatusListener func(device model.Device, status driver.StatusResponse)

// Prober performs a one-off status round trip for a device
type Prober interface {
	Probe(ctx context.Context, device model.Device) (driver.StatusResponse, error)
}

// StatusMonitor caches the latest status per printer and fans status changes
// out to listeners. Cached values may be stale.
type StatusMonitor struct {
	prober Prober
	logger *zap.Logger

	mutex     sync.RWMutex
	latest    map[string]driver.StatusResponse
	listeners map[int]statusSubscription
	nextID    int
	detach    []func()

	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

type statusSubscription struct {
	target string
	fn     StatusListener
}

// NewStatusMonitor creates a monitor that polls through prober
func NewStatusMonitor(prober Prober, logger *zap.Logger) *StatusMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &StatusMonitor{
		prober:    prober,
		logger:    logger.With(zap.String("component", "status-monitor")),
		latest:    make(map[string]driver.StatusResponse),
		listeners: make(map[int]statusSubscription),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Attach records every status the driver reports for device
func (m *StatusMonitor) Attach(device model.Device, drv driver.Printer) {
	unsubscribe := drv.Monitor(func(status driver.StatusResponse) {
		m.Record(device, status)
	})

	m.mutex.Lock()
	m.detach = append(m.detach, unsubscribe)
	m.mutex.Unlock()
}

// Poll probes device every interval until the monitor is closed. Probes are
// skipped while a job holds the printer.
func (m *StatusMonitor) Poll(device model.Device, interval time.Duration) {
	if interval <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.probe(device, interval)
			}
		}
	}()
}

func (m *StatusMonitor) probe(device model.Device, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	status, err := m.prober.Probe(ctx, device)
	switch {
	case errors.Is(err, queue.ErrDeviceBusy):
		return
	case errors.Is(err, context.Canceled), errors.Is(err, queue.ErrControllerClosed):
		return
	case err != nil:
		m.logger.Debug("Status probe failed",
			zap.String("printer_target", device.Target),
			zap.Error(err),
		)
	}
	m.Record(device, status)
}

// Record caches status for device and notifies listeners
func (m *StatusMonitor) Record(device model.Device, status driver.StatusResponse) {
	m.mutex.Lock()
	m.latest[device.Target] = status
	listeners := make([]StatusListener, 0, len(m.listeners))
	for _, sub := range m.listeners {
		if sub.target == "" || sub.target == device.Target {
			listeners = append(listeners, sub.fn)
		}
	}
	m.mutex.Unlock()

	for _, fn := range listeners {
		fn(device, status)
	}
}

// Latest returns the last status seen for device, or the unknown status
func (m *StatusMonitor) Latest(device model.Device) driver.StatusResponse {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if status, ok := m.latest[device.Target]; ok {
		return status
	}
	return driver.UnknownStatus()
}

// Subscribe registers fn for statuses of device. A zero device subscribes to
// every printer.
func (m *StatusMonitor) Subscribe(device model.Device, fn StatusListener) func() {
	m.mutex.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = statusSubscription{target: device.Target, fn: fn}
	m.mutex.Unlock()

	return func() {
		m.mutex.Lock()
		delete(m.listeners, id)
		m.mutex.Unlock()
	}
}

// Close stops polling and detaches from every driver
func (m *StatusMonitor) Close() {
	m.cancel()
	m.wg.Wait()

	m.mutex.Lock()
	detach := m.detach
	m.detach = nil
	m.mutex.Unlock()

	for _, fn := range detach {
		fn()
	}
}

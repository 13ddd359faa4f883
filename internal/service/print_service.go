// internal/service/print_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	internalDriver "order-printer/internal/driver"
	"order-printer/internal/driver/preview"
	"order-printer/internal/engine"
	"order-printer/internal/model"
	"order-printer/internal/queue"
	"order-printer/internal/receipt"
	"order-printer/internal/utils"
	"order-printer/pkg/driver"
)

// Preview width bounds in characters
const (
	MinPreviewWidth = 16
	MaxPreviewWidth = 96
)

var (
	// ErrInvalidOrder is returned for a missing or malformed order document
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidWidth is returned for a preview width out of bounds
	ErrInvalidWidth = errors.New("invalid preview width")
)

// ValidationError carries per-field validation messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d field(s) failed validation", ErrInvalidOrder, len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// Queue runs print tasks against devices
type Queue interface {
	Enqueue(ctx context.Context, device model.Device, task queue.Task) (*driver.StatusResponse, error)
	IsBusy(device model.Device) bool
}

// PrinterDirectory lists the configured printers
type PrinterDirectory interface {
	Lookup(target string) (model.Device, bool)
	Devices() []model.PrinterInfo
}

// PrintResult describes a completed print job
type PrintResult struct {
	JobID    uuid.UUID             `json:"job_id"`
	OrderID  string                `json:"order_id"`
	Device   model.Device          `json:"device"`
	Status   driver.StatusResponse `json:"status"`
	Duration time.Duration         `json:"duration"`
}

// PrinterStatus is the cached status of one printer
type PrinterStatus struct {
	Device model.Device          `json:"device"`
	Status driver.StatusResponse `json:"status"`
	Busy   bool                  `json:"busy"`
}

// PrintService compiles orders and prints them on the selected printer
type PrintService struct {
	queue    Queue
	printers PrinterDirectory
	compiler *receipt.Compiler
	engine   *engine.Engine
	session  *PrinterSession
	monitor  *StatusMonitor
	events   *EventBus

	base   *zap.Logger
	logger *utils.ServiceLogger

	watchMu     sync.Mutex
	unwatch     func()
	unsubscribe func()
}

// NewPrintService creates a print service. Every status the monitor sees is
// published as a PRINTER_STATUS event.
func NewPrintService(
	q Queue,
	printers PrinterDirectory,
	compiler *receipt.Compiler,
	session *PrinterSession,
	monitor *StatusMonitor,
	events *EventBus,
	logger *zap.Logger,
) *PrintService {
	ps := &PrintService{
		queue:    q,
		printers: printers,
		compiler: compiler,
		engine:   engine.New(logger),
		session:  session,
		monitor:  monitor,
		events:   events,
		base:     logger,
		logger:   utils.NewServiceLogger(logger, "print-service"),
	}

	ps.unsubscribe = monitor.Subscribe(model.Device{}, func(device model.Device, status driver.StatusResponse) {
		events.Publish(model.NewEvent(model.EventPrinterStatus, device.Target, map[string]interface{}{
			"connection": status.Connection.StatusCode,
			"online":     status.Online.StatusCode,
		}))
	})
	return ps
}

// PrintOrder prints order on the selected printer and waits for the result
func (ps *PrintService) PrintOrder(ctx context.Context, order *model.OrderDocument) (*PrintResult, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: order document is required", ErrInvalidOrder)
	}
	if fields := order.Validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	device, ok := ps.session.Device()
	if !ok {
		ps.session.Fail(queue.ErrNoDeviceAvailable)
		return nil, queue.ErrNoDeviceAvailable
	}

	jobID := uuid.New()
	jl := utils.NewJobLogger(ps.base, jobID.String(), device.Target)

	ps.session.BeginPrinting()
	jl.Start(zap.String("order_id", order.DisplayID()))
	ps.events.Publish(model.NewEvent(model.EventPrintStarted, device.Target, map[string]interface{}{
		"job_id":   jobID.String(),
		"order_id": order.DisplayID(),
	}))

	j := ps.compiler.Compile(order)
	jl.Progress("Job compiled", zap.Int("sections", len(j.Sections)))

	status, err := ps.queue.Enqueue(ctx, device, ps.engine.Task(j))
	ps.session.EndPrinting(err)
	if err != nil {
		jl.Error(err)
		ps.events.Publish(model.NewEvent(model.EventPrintFailed, device.Target, map[string]interface{}{
			"job_id":   jobID.String(),
			"order_id": order.DisplayID(),
			"error":    queue.UserMessage(err),
		}))
		return nil, err
	}

	ps.monitor.Record(device, *status)
	jl.Success()
	ps.events.Publish(model.NewEvent(model.EventPrintCompleted, device.Target, map[string]interface{}{
		"job_id":      jobID.String(),
		"order_id":    order.DisplayID(),
		"duration_ms": jl.Elapsed().Milliseconds(),
	}))

	return &PrintResult{
		JobID:    jobID,
		OrderID:  order.DisplayID(),
		Device:   device,
		Status:   *status,
		Duration: jl.Elapsed(),
	}, nil
}

// Preview renders order as text at width characters. A zero width uses the
// configured print width. No printer is involved.
func (ps *PrintService) Preview(ctx context.Context, order *model.OrderDocument, width int) (string, error) {
	if order == nil {
		return "", fmt.Errorf("%w: order document is required", ErrInvalidOrder)
	}
	if fields := order.Validate(); fields != nil {
		return "", &ValidationError{Fields: fields}
	}

	layout := ps.compiler.Layout()
	if width == 0 {
		width = layout.PrintWidth
	}
	if width < MinPreviewWidth || width > MaxPreviewWidth {
		return "", fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidWidth, width, MinPreviewWidth, MaxPreviewWidth)
	}

	j := receipt.NewCompiler(layout.WithWidth(width)).Compile(order)
	drv := preview.New(width)
	if _, err := ps.engine.Execute(ctx, drv, j); err != nil {
		return "", err
	}
	return drv.Output(), nil
}

// PrintWidth returns the configured receipt width in characters
func (ps *PrintService) PrintWidth() int {
	return ps.compiler.Layout().PrintWidth
}

// Devices lists the configured printers with their busy and selected flags
func (ps *PrintService) Devices() []model.PrinterInfo {
	selected, hasSelection := ps.session.Device()

	devices := ps.printers.Devices()
	for i := range devices {
		devices[i].Busy = ps.queue.IsBusy(devices[i].Device)
		devices[i].Selected = hasSelection && devices[i].Target == selected.Target
	}
	return devices
}

// Status returns the cached status of the printer with target
func (ps *PrintService) Status(target string) (*PrinterStatus, error) {
	device, ok := ps.printers.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", internalDriver.ErrUnknownPrinter, target)
	}
	return &PrinterStatus{
		Device: device,
		Status: ps.monitor.Latest(device),
		Busy:   ps.queue.IsBusy(device),
	}, nil
}

// SelectPrinter makes the printer with target current and follows its status
func (ps *PrintService) SelectPrinter(target string) (model.Device, error) {
	device, ok := ps.printers.Lookup(target)
	if !ok {
		return model.Device{}, fmt.Errorf("%w: %s", internalDriver.ErrUnknownPrinter, target)
	}

	ps.watchMu.Lock()
	defer ps.watchMu.Unlock()

	ps.stopWatching()
	ps.session.Select(device)
	ps.session.UpdateStatus(device, ps.monitor.Latest(device))
	ps.unwatch = ps.monitor.Subscribe(device, ps.session.UpdateStatus)

	ps.logger.Info("Printer selected", zap.String("printer_target", device.Target))
	ps.events.Publish(model.NewEvent(model.EventPrinterSelected, device.Target, map[string]interface{}{
		"name": device.Name,
	}))
	return device, nil
}

// ClearPrinter drops the current printer
func (ps *PrintService) ClearPrinter() {
	ps.watchMu.Lock()
	defer ps.watchMu.Unlock()

	device, ok := ps.session.Device()
	ps.stopWatching()
	ps.session.Clear()
	if !ok {
		return
	}

	ps.logger.Info("Printer cleared", zap.String("printer_target", device.Target))
	ps.events.Publish(model.NewEvent(model.EventPrinterCleared, device.Target, nil))
}

// Session returns a snapshot of the printer session
func (ps *PrintService) Session() SessionState {
	return ps.session.Snapshot()
}

// Close stops publishing status events
func (ps *PrintService) Close() {
	ps.watchMu.Lock()
	defer ps.watchMu.Unlock()

	ps.stopWatching()
	if ps.unsubscribe != nil {
		ps.unsubscribe()
	}
}

// stopWatching drops the selected printer's status subscription. Caller
// holds watchMu.
func (ps *PrintService) stopWatching() {
	if ps.unwatch != nil {
		ps.unwatch()
		ps.unwatch = nil
	}
}

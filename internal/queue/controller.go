// Package queue serializes print work per device and owns the
// connect, execute, disconnect lifecycle of every task.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/model"
	"order-printer/internal/utils"
	"order-printer/pkg/driver"
)

// teardownTimeout bounds Disconnect independently of the task deadline
const teardownTimeout = 5 * time.Second

// Task runs against a connected printer and returns its final status
type Task func(ctx context.Context, drv driver.Printer) (*driver.StatusResponse, error)

// DriverProvider resolves a device handle to its driver
type DriverProvider interface {
	Driver(device model.Device) (driver.Printer, error)
}

// Controller runs at most one task per device at a time, in FIFO order
type Controller struct {
	provider DriverProvider
	opts     Options
	base     *zap.Logger
	logger   *zap.Logger

	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
	wg      sync.WaitGroup
}

// NewController creates a controller. Zero options take their defaults.
func NewController(provider DriverProvider, opts Options, logger *zap.Logger) *Controller {
	return &Controller{
		provider: provider,
		opts:     opts.withDefaults(),
		base:     logger,
		logger:   logger.With(zap.String("component", "queue")),
		workers:  make(map[string]*worker),
	}
}

// Options returns the effective options
func (c *Controller) Options() Options {
	return c.opts
}

const (
	stateQueued int32 = iota
	stateStarted
	stateAbandoned
)

type result struct {
	status *driver.StatusResponse
	err    error
}

type request struct {
	ctx    context.Context
	device model.Device
	task   Task
	probe  bool
	state  atomic.Int32
	done   chan result
}

// Enqueue queues task for device and waits for its result. If ctx ends
// while the task is still queued the task is dropped and ctx.Err() is
// returned. Once started, a task runs to completion on a context detached
// from ctx and bounded by TaskTimeout.
func (c *Controller) Enqueue(ctx context.Context, device model.Device, task Task) (*driver.StatusResponse, error) {
	return c.submit(ctx, &request{ctx: ctx, device: device, task: task, done: make(chan result, 1)})
}

// Probe makes one connect and status round trip for device. It returns
// ErrDeviceBusy instead of waiting behind queued jobs.
func (c *Controller) Probe(ctx context.Context, device model.Device) (driver.StatusResponse, error) {
	if c.IsBusy(device) {
		return driver.UnknownStatus(), ErrDeviceBusy
	}
	status, err := c.submit(ctx, &request{ctx: ctx, device: device, probe: true, done: make(chan result, 1)})
	if status == nil {
		return driver.UnknownStatus(), err
	}
	return *status, err
}

func (c *Controller) submit(ctx context.Context, req *request) (*driver.StatusResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := c.workerFor(req.device)
	if err != nil {
		return nil, err
	}
	if !w.push(req) {
		return nil, ErrControllerClosed
	}

	select {
	case res := <-req.done:
		return res.status, res.err
	case <-ctx.Done():
		if req.state.CompareAndSwap(stateQueued, stateAbandoned) {
			w.remove(req)
			c.logger.Debug("Queued task abandoned by caller",
				zap.String("printer_target", req.device.Target),
				zap.Error(ctx.Err()),
			)
			return nil, ctx.Err()
		}
		res := <-req.done
		return res.status, res.err
	}
}

// IsBusy reports whether a task for device is queued or running
func (c *Controller) IsBusy(device model.Device) bool {
	return c.Pending(device) > 0
}

// Pending returns the number of queued and running tasks for device
func (c *Controller) Pending(device model.Device) int {
	c.mu.Lock()
	w, ok := c.workers[device.Target]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return w.pending()
}

// Close stops accepting work, fails queued tasks with ErrControllerClosed
// and waits for running tasks to finish.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	workers := make([]*worker, 0, len(c.workers))
	for _, w := range c.workers {
		workers = append(workers, w)
	}
	c.mu.Unlock()

	for _, w := range workers {
		w.close()
	}
	c.wg.Wait()
	c.logger.Info("Queue controller closed", zap.Int("workers", len(workers)))
	return nil
}

func (c *Controller) workerFor(device model.Device) (*worker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrControllerClosed
	}
	if w, ok := c.workers[device.Target]; ok {
		return w, nil
	}

	w := newWorker(device)
	c.workers[device.Target] = w
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runWorker(w)
	}()
	return w, nil
}

func (c *Controller) runWorker(w *worker) {
	for {
		req, ok := w.next()
		if !ok {
			return
		}
		if !req.state.CompareAndSwap(stateQueued, stateStarted) {
			w.finish()
			continue
		}

		status, err := c.run(req)
		w.finish()
		req.done <- result{status: status, err: err}
	}
}

// run owns one connect, execute, disconnect cycle. Disconnect always runs
// once the driver is resolved.
func (c *Controller) run(req *request) (status *driver.StatusResponse, err error) {
	drv, err := c.provider.Driver(req.device)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDeviceAvailable, err)
	}

	plog := utils.NewPrinterLogger(c.base, req.device.Target, req.device.Name)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.ctx), c.opts.TaskTimeout)
	defer cancel()
	defer c.teardown(req.ctx, drv, plog)

	if req.probe {
		return c.probe(ctx, drv, plog)
	}

	ready, err := ConnectUntil(ctx, drv, Online, c.opts)
	if err != nil {
		plog.LogConnection("connect", c.opts.MaxConnectAttempts, err)
		return nil, err
	}
	plog.Debug("Printer ready", zap.String("online", ready.Online.StatusCode))

	status, err = execute(ctx, req.task, drv)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("%w: printer did not return a status response", ErrExecutionFailure)
	}
	return status, nil
}

func (c *Controller) probe(ctx context.Context, drv driver.Printer, plog *utils.PrinterLogger) (*driver.StatusResponse, error) {
	if !drv.IsConnected() {
		if err := drv.Connect(ctx); err != nil {
			plog.LogConnection("probe", 1, err)
			status := driver.NewStatus(false, false)
			return &status, err
		}
	}
	status, err := drv.Status(ctx)
	return &status, err
}

// execute runs task, converting a panic into ErrExecutionFailure
func execute(ctx context.Context, task Task, drv driver.Printer) (status *driver.StatusResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = nil
			err = fmt.Errorf("%w: panic: %v", ErrExecutionFailure, r)
		}
	}()
	return task(ctx, drv)
}

// teardown disconnects and swallows any failure after logging it
func (c *Controller) teardown(parent context.Context, drv driver.Printer, plog *utils.PrinterLogger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), teardownTimeout)
	defer cancel()

	var err error
	if derr := drv.Disconnect(ctx); derr != nil {
		err = fmt.Errorf("%w: %w", ErrTeardownFailure, derr)
	}
	plog.LogTeardown(err)
}

// worker holds the FIFO of one device
type worker struct {
	device  model.Device
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*request
	running bool
	closed  bool
}

func newWorker(device model.Device) *worker {
	w := &worker{device: device}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *worker) push(req *request) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.queue = append(w.queue, req)
	w.cond.Signal()
	return true
}

// next blocks until a request is available. It returns false once the
// worker is closed.
func (w *worker) next() (*request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.queue) == 0 && !w.closed {
		w.cond.Wait()
	}
	if w.closed {
		return nil, false
	}
	req := w.queue[0]
	w.queue = w.queue[1:]
	w.running = true
	return req, true
}

func (w *worker) finish() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *worker) remove(req *request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, r := range w.queue {
		if r == req {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			return
		}
	}
}

func (w *worker) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.queue)
	if w.running {
		n++
	}
	return n
}

// close fails every queued request and wakes the worker
func (w *worker) close() {
	w.mu.Lock()
	queued := w.queue
	w.queue = nil
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()

	for _, req := range queued {
		if req.state.CompareAndSwap(stateQueued, stateAbandoned) {
			req.done <- result{err: ErrControllerClosed}
		}
	}
}

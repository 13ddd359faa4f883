// Package engine interprets print jobs against a printer driver.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/job"
	"order-printer/internal/queue"
	"order-printer/pkg/driver"
)

// Engine runs a job as a sequence of driver primitives and sends it once.
// It must only be called while the caller owns the device connection.
type Engine struct {
	logger *zap.Logger
}

// New creates an engine
func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.With(zap.String("component", "engine"))}
}

// Task adapts Execute for the queue controller
func (e *Engine) Task(j *job.PrintJob) queue.Task {
	return func(ctx context.Context, drv driver.Printer) (*driver.StatusResponse, error) {
		return e.Execute(ctx, drv, j)
	}
}

// Execute emits j through drv. Format directives are applied per section,
// transient emphasis is reset after its section, exactly one cut ends the
// job, and Send is called once.
func (e *Engine) Execute(ctx context.Context, drv driver.Printer, j *job.PrintJob) (*driver.StatusResponse, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	v := &emitter{drv: drv}

	for i, section := range j.Sections {
		if err := applyDirectives(drv, section); err != nil {
			return nil, fmt.Errorf("%w: section %d: %w", queue.ErrExecutionFailure, i, err)
		}
		for _, item := range section.Items {
			if err := item.Accept(v); err != nil {
				return nil, fmt.Errorf("%w: section %d: %w", queue.ErrExecutionFailure, i, err)
			}
		}
		if err := resetDirectives(drv, section); err != nil {
			return nil, fmt.Errorf("%w: section %d reset: %w", queue.ErrExecutionFailure, i, err)
		}
	}

	if err := drv.Cut(); err != nil {
		return nil, fmt.Errorf("%w: cut: %w", queue.ErrExecutionFailure, err)
	}

	status, err := drv.Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", queue.ErrExecutionFailure, err)
	}
	if status == nil {
		return nil, fmt.Errorf("%w: printer did not return a status response", queue.ErrExecutionFailure)
	}

	e.logger.Debug("Job executed",
		zap.Int("sections", len(j.Sections)),
		zap.Bool("explicit_cut", v.cut),
		zap.Duration("duration", time.Since(start)),
	)
	return status, nil
}

// applyDirectives issues align, size, style and smooth in that order
func applyDirectives(drv driver.Printer, s job.Section) error {
	if s.Align != nil {
		if err := drv.SetAlign(*s.Align); err != nil {
			return err
		}
	}
	if s.Size != nil {
		if err := drv.SetSize(s.Size.Width, s.Size.Height); err != nil {
			return err
		}
	}
	if s.Style != nil {
		if err := drv.SetStyle(*s.Style); err != nil {
			return err
		}
	}
	if s.Smooth != nil {
		if err := drv.SetSmooth(*s.Smooth); err != nil {
			return err
		}
	}
	return nil
}

// resetDirectives returns emphasis set by s to normal
func resetDirectives(drv driver.Printer, s job.Section) error {
	if s.Size != nil {
		if err := drv.SetSize(driver.NormalSize.Width, driver.NormalSize.Height); err != nil {
			return err
		}
	}
	if s.Style != nil {
		if err := drv.SetStyle(driver.Style{}); err != nil {
			return err
		}
	}
	if s.Smooth != nil {
		if err := drv.SetSmooth(false); err != nil {
			return err
		}
	}
	return nil
}

// emitter maps content items onto driver primitives. The cut is held back
// so it can be emitted after the final reset.
type emitter struct {
	drv driver.Printer
	cut bool
}

func (v *emitter) VisitText(t job.Text) error {
	return v.drv.AddText(t.Value)
}

func (v *emitter) VisitLine(l job.Line) error {
	return v.drv.AddLine(l.Left, l.Right, l.Gap)
}

func (v *emitter) VisitFeed(f job.Feed) error {
	return v.drv.AddFeed(f.Lines)
}

func (v *emitter) VisitCut(job.Cut) error {
	v.cut = true
	return nil
}

func (v *emitter) VisitImage(img job.Image) error {
	return v.drv.AddImage(img.Image)
}

func (v *emitter) VisitBarcode(b job.Barcode) error {
	return v.drv.AddBarcode(b.Barcode)
}

func (v *emitter) VisitSymbol(s job.Symbol) error {
	return v.drv.AddSymbol(s.Symbol)
}

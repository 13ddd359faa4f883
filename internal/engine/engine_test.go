package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-printer/internal/driver/preview"
	"order-printer/internal/job"
	"order-printer/internal/model"
	"order-printer/internal/queue"
	"order-printer/internal/receipt"
	"order-printer/pkg/driver"
)

// recorder logs every primitive call in order
type recorder struct {
	calls   []string
	failOn  string
	sendNil bool
	sendErr error
}

func (r *recorder) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failOn != "" && strings.HasPrefix(call, r.failOn) {
		return errors.New("driver rejected " + call)
	}
	return nil
}

func (r *recorder) Connect(context.Context) error    { return nil }
func (r *recorder) Disconnect(context.Context) error { return nil }
func (r *recorder) IsConnected() bool                { return true }

func (r *recorder) Status(context.Context) (driver.StatusResponse, error) {
	return driver.NewStatus(true, true), nil
}

func (r *recorder) SetAlign(a driver.Align) error {
	return r.record("align:" + string(a))
}

func (r *recorder) SetSize(w, h int) error {
	return r.record(fmt.Sprintf("size:%dx%d", w, h))
}

func (r *recorder) SetStyle(s driver.Style) error {
	return r.record(fmt.Sprintf("style:%t/%t/%t", s.Bold, s.Underline, s.Reverse))
}

func (r *recorder) SetSmooth(on bool) error {
	return r.record(fmt.Sprintf("smooth:%t", on))
}

func (r *recorder) AddText(s string) error {
	return r.record("text:" + s)
}

func (r *recorder) AddLine(left, right string, gap rune) error {
	return r.record(fmt.Sprintf("line:%s|%s|%c", left, right, gap))
}

func (r *recorder) AddFeed(n int) error {
	return r.record(fmt.Sprintf("feed:%d", n))
}

func (r *recorder) AddImage(img driver.Image) error {
	return r.record(fmt.Sprintf("image:%d", img.Width))
}

func (r *recorder) AddBarcode(b driver.Barcode) error {
	return r.record("barcode:" + b.Data)
}

func (r *recorder) AddSymbol(s driver.Symbol) error {
	return r.record("symbol:" + s.Data)
}

func (r *recorder) Cut() error {
	return r.record("cut")
}

func (r *recorder) Send(context.Context) (*driver.StatusResponse, error) {
	if err := r.record("send"); err != nil {
		return nil, err
	}
	if r.sendErr != nil {
		return nil, r.sendErr
	}
	if r.sendNil {
		return nil, nil
	}
	s := driver.NewStatus(true, true)
	return &s, nil
}

func (r *recorder) Monitor(func(driver.StatusResponse)) func() { return func() {} }

func newTestEngine() *Engine {
	return New(zap.NewNop())
}

func TestExecuteEmitsPrimitivesInOrder(t *testing.T) {
	j := job.NewBuilder().
		Section(job.KindHeader).Align(driver.AlignCenter).Text("A").Feed(1).
		Section(job.KindFooter).Size(2, 2).Style(driver.Style{Bold: true}).Line("T", "$1", 0).Cut().
		Build()

	r := &recorder{}
	status, err := newTestEngine().Execute(context.Background(), r, j)
	require.NoError(t, err)
	assert.True(t, status.Ready())

	assert.Equal(t, []string{
		"align:center", "text:A", "feed:1",
		"size:2x2", "style:true/false/false", "line:T|$1|.",
		"size:1x1", "style:false/false/false",
		"cut", "send",
	}, r.calls)
}

func TestExecuteAppendsMissingCut(t *testing.T) {
	j := job.NewBuilder().Section(job.KindContent).Text("x").Build()

	r := &recorder{}
	_, err := newTestEngine().Execute(context.Background(), r, j)
	require.NoError(t, err)
	assert.Equal(t, []string{"text:x", "cut", "send"}, r.calls)
}

func TestExecuteResetsSmoothBeforeCut(t *testing.T) {
	j := job.NewBuilder().
		Section(job.KindFooter).Smooth(true).Text("big").Cut().
		Build()

	r := &recorder{}
	_, err := newTestEngine().Execute(context.Background(), r, j)
	require.NoError(t, err)
	assert.Equal(t, []string{"smooth:true", "text:big", "smooth:false", "cut", "send"}, r.calls)
}

func TestExecuteForwardsPayloads(t *testing.T) {
	j := job.NewBuilder().
		Section(job.KindContent).
		Image(driver.Image{Source: "abc", Width: 200}).
		Barcode(driver.Barcode{Data: "123", Type: driver.BarcodeCode128}).
		Symbol(driver.Symbol{Data: "https://example.com"}).
		Build()

	r := &recorder{}
	_, err := newTestEngine().Execute(context.Background(), r, j)
	require.NoError(t, err)
	assert.Equal(t, []string{"image:200", "barcode:123", "symbol:https://example.com", "cut", "send"}, r.calls)
}

func TestExecuteRejectsInvalidJob(t *testing.T) {
	tests := []struct {
		name string
		job  *job.PrintJob
	}{
		{"nil job", nil},
		{"two cuts", &job.PrintJob{Sections: []job.Section{
			{Kind: job.KindContent, Items: []job.Content{job.Cut{}, job.Cut{}}},
		}}},
		{"cut not last", &job.PrintJob{Sections: []job.Section{
			{Kind: job.KindContent, Items: []job.Content{job.Cut{}}},
			{Kind: job.KindFooter, Items: []job.Content{job.NewText("after")}},
		}}},
		{"feed out of range", &job.PrintJob{Sections: []job.Section{
			{Kind: job.KindContent, Items: []job.Content{job.Feed{Lines: 0}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			_, err := newTestEngine().Execute(context.Background(), r, tt.job)
			assert.ErrorIs(t, err, job.ErrInvalidJob)
			assert.Empty(t, r.calls)
		})
	}
}

func TestExecuteFailures(t *testing.T) {
	j := job.NewBuilder().
		Section(job.KindContent).Align(driver.AlignLeft).Text("a").Feed(1).
		Build()

	tests := []struct {
		name     string
		rec      *recorder
		wantSend bool
	}{
		{"primitive error aborts before send", &recorder{failOn: "feed"}, false},
		{"directive error aborts before send", &recorder{failOn: "align"}, false},
		{"cut error aborts before send", &recorder{failOn: "cut"}, false},
		{"send error", &recorder{sendErr: errors.New("broken pipe")}, true},
		{"nil status", &recorder{sendNil: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := newTestEngine().Execute(context.Background(), tt.rec, j)
			assert.Nil(t, status)
			assert.ErrorIs(t, err, queue.ErrExecutionFailure)
			assert.Equal(t, tt.wantSend, contains(tt.rec.calls, "send"), spew.Sdump(tt.rec.calls))
		})
	}
}

func TestExecuteKeepsDriverErrorInChain(t *testing.T) {
	j := job.NewBuilder().
		Section(job.KindContent).Text("a").
		Build()

	tests := []struct {
		name  string
		rec   *recorder
		cause error
	}{
		{"send deadline", &recorder{sendErr: context.DeadlineExceeded}, context.DeadlineExceeded},
		{"send canceled", &recorder{sendErr: fmt.Errorf("write: %w", context.Canceled)}, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine().Execute(context.Background(), tt.rec, j)
			require.Error(t, err)
			assert.ErrorIs(t, err, queue.ErrExecutionFailure)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func contains(calls []string, call string) bool {
	for _, c := range calls {
		if c == call {
			return true
		}
	}
	return false
}

func TestExecuteSendsOnce(t *testing.T) {
	order := &model.OrderDocument{
		ID:        "A1",
		CartItems: []model.CartItem{{Name: "Tea", Quantity: 2, Price: 150}},
		Cost:      &model.Cost{SubtotalAmount: 300},
	}
	j := receipt.NewCompiler(receipt.DefaultLayout()).Compile(order)

	r := &recorder{}
	_, err := newTestEngine().Execute(context.Background(), r, j)
	require.NoError(t, err)

	sends, cuts := 0, 0
	for _, c := range r.calls {
		switch c {
		case "send":
			sends++
		case "cut":
			cuts++
		}
	}
	assert.Equal(t, 1, sends)
	assert.Equal(t, 1, cuts)
	require.GreaterOrEqual(t, len(r.calls), 2)
	assert.Equal(t, []string{"cut", "send"}, r.calls[len(r.calls)-2:], spew.Sdump(r.calls))
}

type singleProvider struct{ drv driver.Printer }

func (p singleProvider) Driver(model.Device) (driver.Printer, error) { return p.drv, nil }

func TestTaskThroughQueueRendersPreview(t *testing.T) {
	order := &model.OrderDocument{
		ID:        "A1",
		CartItems: []model.CartItem{{Name: "Tea", Quantity: 2, Price: 150}},
		Cost:      &model.Cost{SubtotalAmount: 300},
	}
	j := receipt.NewCompiler(receipt.Layout{PrintWidth: 32, ShowBreakdown: true}).Compile(order)

	drv := preview.New(32)
	c := queue.NewController(singleProvider{drv: drv}, queue.DefaultOptions(), zap.NewNop())
	defer c.Close()

	status, err := c.Enqueue(context.Background(), model.Device{Target: "preview"}, newTestEngine().Task(j))
	require.NoError(t, err)
	assert.True(t, status.Ready())
	assert.False(t, drv.IsConnected())

	want := strings.Join([]string{
		strings.Repeat(" ", 9) + "ORDER RECEIPT",
		"",
		strings.Repeat(" ", 11) + "Order #A1",
		"",
		"2x Tea" + strings.Repeat(".", 21) + "$3.00",
		"Subtotal" + strings.Repeat(".", 19) + "$3.00",
		"Tax" + strings.Repeat(".", 24) + "$0.00",
		"TOTAL" + strings.Repeat(".", 6) + "$3.00",
		"", "", "",
		strings.Repeat("-", 32),
	}, "\n") + "\n"
	assert.Equal(t, want, drv.Output())
}

// internal/driver/preview/printer.go
package preview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"order-printer/internal/format"
	"order-printer/pkg/driver"
)

// DefaultWidth is the preview line width in characters
const DefaultWidth = 48

// Printer renders primitives as plain text. It never touches hardware and is
// always online once connected.
type Printer struct {
	width int

	mutex     sync.Mutex
	connected bool
	align     driver.Align
	size      driver.Size
	line      strings.Builder
	lines     []string
	output    string
	sends     int

	listeners map[int]func(driver.StatusResponse)
	nextID    int
}

// New creates a preview driver. A non-positive width uses DefaultWidth.
func New(width int) *Printer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Printer{
		width:     width,
		align:     driver.AlignLeft,
		size:      driver.NormalSize,
		listeners: make(map[int]func(driver.StatusResponse)),
	}
}

// Width returns the configured line width
func (p *Printer) Width() int {
	return p.width
}

func (p *Printer) Connect(ctx context.Context) error {
	p.mutex.Lock()
	p.connected = true
	p.mutex.Unlock()
	p.notify(driver.NewStatus(true, true))
	return nil
}

func (p *Printer) Disconnect(ctx context.Context) error {
	p.mutex.Lock()
	p.connected = false
	p.mutex.Unlock()
	p.notify(driver.NewStatus(false, true))
	return nil
}

func (p *Printer) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.connected
}

func (p *Printer) Status(ctx context.Context) (driver.StatusResponse, error) {
	status := driver.NewStatus(p.IsConnected(), true)
	p.notify(status)
	return status, nil
}

func (p *Printer) SetAlign(align driver.Align) error {
	if !align.Valid() {
		return fmt.Errorf("invalid alignment: %q", align)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.align = align
	return nil
}

func (p *Printer) SetSize(width, height int) error {
	size := driver.Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.size = size
	return nil
}

// SetStyle has no visible effect in plain text
func (p *Printer) SetStyle(style driver.Style) error {
	return nil
}

func (p *Printer) SetSmooth(enabled bool) error {
	return nil
}

// AddText appends to the current line. Embedded newlines end lines.
func (p *Printer) AddText(text string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	parts := strings.Split(text, "\n")
	for i, part := range parts {
		if i > 0 {
			p.flush()
		}
		p.line.WriteString(part)
	}
	return nil
}

func (p *Printer) AddLine(left, right string, gap rune) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.line.WriteString(format.JustifyLine(left, right, p.width/p.size.Width, gap))
	return nil
}

// AddFeed ends the current line and adds lines-1 blank lines
func (p *Printer) AddFeed(lines int) error {
	if lines < 1 || lines > 255 {
		return fmt.Errorf("feed lines out of range: %d", lines)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.flush()
	for i := 1; i < lines; i++ {
		p.lines = append(p.lines, "")
	}
	return nil
}

func (p *Printer) AddImage(img driver.Image) error {
	return p.marker(fmt.Sprintf("[image %d]", img.Width))
}

func (p *Printer) AddBarcode(barcode driver.Barcode) error {
	return p.marker(fmt.Sprintf("[barcode %s %s]", barcode.Type, barcode.Data))
}

func (p *Printer) AddSymbol(symbol driver.Symbol) error {
	return p.marker(fmt.Sprintf("[qr %s]", symbol.Data))
}

func (p *Printer) Cut() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.line.Len() > 0 {
		p.flush()
	}
	p.lines = append(p.lines, strings.Repeat("-", p.width))
	return nil
}

// Send renders the buffered lines into Output
func (p *Printer) Send(ctx context.Context) (*driver.StatusResponse, error) {
	p.mutex.Lock()
	if p.line.Len() > 0 {
		p.flush()
	}
	p.output = strings.Join(p.lines, "\n")
	if len(p.lines) > 0 {
		p.output += "\n"
	}
	p.lines = nil
	p.sends++
	p.mutex.Unlock()

	status := driver.NewStatus(true, true)
	p.notify(status)
	return &status, nil
}

// Output returns the text rendered by the last Send
func (p *Printer) Output() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.output
}

// Sends returns how many times Send was called
func (p *Printer) Sends() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.sends
}

func (p *Printer) Monitor(onStatus func(driver.StatusResponse)) func() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = onStatus
	return func() {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		delete(p.listeners, id)
	}
}

// marker places a placeholder on its own line
func (p *Printer) marker(text string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.line.Len() > 0 {
		p.flush()
	}
	p.line.WriteString(text)
	p.flush()
	return nil
}

// flush closes the current line, applying alignment. Caller holds the mutex.
func (p *Printer) flush() {
	text := p.line.String()
	p.line.Reset()

	pad := p.width - utf8.RuneCountInString(text)
	if pad > 0 {
		switch p.align {
		case driver.AlignCenter:
			text = strings.Repeat(" ", pad/2) + text
		case driver.AlignRight:
			text = strings.Repeat(" ", pad) + text
		}
	}
	p.lines = append(p.lines, text)
}

func (p *Printer) notify(status driver.StatusResponse) {
	p.mutex.Lock()
	listeners := make([]func(driver.StatusResponse), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mutex.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}

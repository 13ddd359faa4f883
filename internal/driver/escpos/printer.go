// internal/driver/escpos/printer.go
package escpos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"order-printer/internal/format"
	"order-printer/internal/model"
	"order-printer/internal/protocol"
	"order-printer/internal/utils"
	"order-printer/pkg/driver"
)

// ErrInvalidStatus is returned when the status byte fails its fixed-bit check
var ErrInvalidStatus = errors.New("invalid printer status byte")

// Printer implements driver.Printer for ESC/POS thermal printers. Content
// calls append to an in-memory buffer; Send writes it in one protocol write.
type Printer struct {
	device   model.Device
	protocol protocol.DeviceProtocol
	config   Config
	encoder  *encoding.Encoder
	logger   *utils.PrinterLogger

	mutex      sync.Mutex
	buffer     bytes.Buffer
	size       driver.Size
	lastOnline bool

	listenerMu sync.Mutex
	listeners  map[int]func(driver.StatusResponse)
	nextID     int
}

// New creates an ESC/POS driver over an unopened protocol
func New(device model.Device, proto protocol.DeviceProtocol, cfg Config, logger *zap.Logger) (*Printer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Printer{
		device:    device,
		protocol:  proto,
		config:    cfg,
		encoder:   cfg.encoder(),
		logger:    utils.NewPrinterLogger(logger, device.Target, device.Name),
		listeners: make(map[int]func(driver.StatusResponse)),
	}
	p.resetBuffer()
	return p, nil
}

// resetBuffer starts a fresh job. Caller holds the mutex or owns p.
func (p *Printer) resetBuffer() {
	p.buffer.Reset()
	p.buffer.Write(cmdInitialize)
	p.buffer.Write(cmdCodePage(codePages[p.config.CharacterSet]))
	p.size = driver.NormalSize
}

// Connect opens the transport and starts a new buffer
func (p *Printer) Connect(ctx context.Context) error {
	p.mutex.Lock()
	if p.protocol.IsOpen() {
		p.mutex.Unlock()
		return nil
	}
	if err := p.protocol.Open(ctx); err != nil {
		p.mutex.Unlock()
		return fmt.Errorf("failed to open %s connection: %w", p.protocol.Type(), err)
	}
	p.resetBuffer()
	status := driver.NewStatus(true, p.lastOnline)
	p.mutex.Unlock()

	p.logger.Debug("Printer connected", zap.String("connection_type", string(p.protocol.Type())))
	p.notify(status)
	return nil
}

// Disconnect closes the transport and drops anything still buffered
func (p *Printer) Disconnect(ctx context.Context) error {
	p.mutex.Lock()
	err := p.protocol.Close()
	p.resetBuffer()
	status := driver.NewStatus(false, p.lastOnline)
	p.mutex.Unlock()

	p.notify(status)
	if err != nil {
		return fmt.Errorf("failed to close %s connection: %w", p.protocol.Type(), err)
	}
	return nil
}

// IsConnected reports whether the transport is open
func (p *Printer) IsConnected() bool {
	return p.protocol.IsOpen()
}

// Status sends DLE EOT 1 and decodes the reply. A closed transport reports
// not connected without touching the device.
func (p *Printer) Status(ctx context.Context) (driver.StatusResponse, error) {
	p.mutex.Lock()
	if !p.protocol.IsOpen() {
		p.mutex.Unlock()
		return driver.NewStatus(false, false), nil
	}
	online, err := p.readStatus(ctx)
	if err != nil {
		p.mutex.Unlock()
		return driver.NewStatus(true, false), err
	}
	p.lastOnline = online
	status := driver.NewStatus(true, online)
	p.mutex.Unlock()

	p.notify(status)
	return status, nil
}

// readStatus performs the status round trip. Caller holds the mutex.
func (p *Printer) readStatus(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.StatusTimeout)
	defer cancel()

	if err := p.protocol.Write(ctx, cmdStatusRequest); err != nil {
		return false, fmt.Errorf("failed to request status: %w", err)
	}
	resp, err := p.protocol.Read(ctx, 1)
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	if len(resp) == 0 {
		return false, fmt.Errorf("empty status response")
	}
	return parseStatus(resp[0])
}

// parseStatus decodes a DLE EOT 1 printer status byte. Bit 3 set means the
// printer is offline.
func parseStatus(b byte) (bool, error) {
	if b&0x93 != 0x12 {
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidStatus, b)
	}
	return b&0x08 == 0, nil
}

// SetAlign sets the justification for following lines
func (p *Printer) SetAlign(align driver.Align) error {
	if !align.Valid() {
		return fmt.Errorf("invalid alignment: %q", align)
	}
	return p.write(cmdAlign(align))
}

// SetSize sets the character magnification
func (p *Printer) SetSize(width, height int) error {
	size := driver.Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.buffer.Write(cmdSize(width, height))
	p.size = size
	return nil
}

// SetStyle sets bold, underline and reverse together
func (p *Printer) SetStyle(style driver.Style) error {
	return p.write(cmdStyle(style))
}

// SetSmooth toggles glyph smoothing
func (p *Printer) SetSmooth(enabled bool) error {
	return p.write(cmdSmooth(enabled))
}

// AddText encodes text in the configured code page
func (p *Printer) AddText(text string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	encoded, err := p.encoder.Bytes([]byte(text))
	if err != nil {
		return fmt.Errorf("failed to encode text: %w", err)
	}
	p.buffer.Write(encoded)
	return nil
}

// AddLine writes a justified two-column line sized to the current
// magnification.
func (p *Printer) AddLine(left, right string, gap rune) error {
	p.mutex.Lock()
	width := p.config.PrintWidth / p.size.Width
	p.mutex.Unlock()

	return p.AddText(format.JustifyLine(left, right, width, gap))
}

// AddFeed prints the buffer and feeds n lines
func (p *Printer) AddFeed(lines int) error {
	if lines < 1 || lines > 255 {
		return fmt.Errorf("feed lines out of range: %d", lines)
	}
	return p.write(cmdFeed(lines))
}

// AddImage rasterizes a base64 image at the requested width
func (p *Printer) AddImage(img driver.Image) error {
	decoded, err := decodeImage(img.Source)
	if err != nil {
		return err
	}
	width := p.config.imageWidth(img.Width, decoded.Bounds().Dx())
	return p.write(cmdRaster(scaleToWidth(decoded, width)))
}

// AddBarcode prints a one-dimensional barcode
func (p *Printer) AddBarcode(barcode driver.Barcode) error {
	system, ok := barcodeSystems[barcode.Type]
	if !ok {
		return fmt.Errorf("unsupported barcode type: %q", barcode.Type)
	}

	hri := driver.HRIBelow
	if barcode.HRI != "" {
		hri = barcode.HRI
	}
	position, ok := hriPositions[hri]
	if !ok {
		return fmt.Errorf("invalid HRI position: %q", barcode.HRI)
	}

	width := barcode.Width
	if width == 0 {
		width = 3
	}
	if width < 2 || width > 6 {
		return fmt.Errorf("barcode width out of range: %d", width)
	}
	height := barcode.Height
	if height == 0 {
		height = 80
	}
	if height < 1 || height > 255 {
		return fmt.Errorf("barcode height out of range: %d", height)
	}

	data := barcode.Data
	if barcode.Type == driver.BarcodeCode128 && len(data) > 0 && data[0] != '{' {
		data = "{B" + data
	}
	if len(data) == 0 || len(data) > 255 {
		return fmt.Errorf("barcode data length out of range: %d", len(data))
	}

	cmd := []byte{
		gs, 'H', position,
		gs, 'w', byte(width),
		gs, 'h', byte(height),
		gs, 'k', system, byte(len(data)),
	}
	return p.write(append(cmd, data...))
}

// AddSymbol prints a QR code, natively or as a raster image
func (p *Printer) AddSymbol(symbol driver.Symbol) error {
	if symbol.Data == "" {
		return fmt.Errorf("symbol data is empty")
	}

	symbolType := driver.SymbolQRModel2
	if symbol.Type != "" {
		symbolType = symbol.Type
	}
	modelByte, ok := qrModels[symbolType]
	if !ok {
		return fmt.Errorf("unsupported symbol type: %q", symbol.Type)
	}

	level := driver.SymbolLevelM
	if symbol.Level != "" {
		level = symbol.Level
	}
	levelByte, ok := qrLevels[level]
	if !ok {
		return fmt.Errorf("invalid symbol level: %q", symbol.Level)
	}

	size := symbol.Size
	if size == 0 {
		size = 6
	}
	if size < 1 || size > 16 {
		return fmt.Errorf("symbol size out of range: %d", size)
	}

	if p.config.RasterSymbols {
		img, err := renderQR(driver.Symbol{Data: symbol.Data, Level: level}, size)
		if err != nil {
			return err
		}
		width := p.config.imageWidth(0, img.Bounds().Dx())
		return p.write(cmdRaster(scaleToWidth(img, width)))
	}

	var cmd []byte
	cmd = append(cmd, qrFunction(0x41, modelByte, 0x00)...)
	cmd = append(cmd, qrFunction(0x43, byte(size))...)
	cmd = append(cmd, qrFunction(0x45, levelByte)...)
	cmd = append(cmd, qrFunction(0x50, append([]byte{0x30}, symbol.Data...)...)...)
	cmd = append(cmd, cmdQRPrint...)
	return p.write(cmd)
}

// Cut appends the configured paper cut
func (p *Printer) Cut() error {
	return p.write(cmdCut(p.config.CutType))
}

// Send writes the whole buffer to the device, then reads the status back.
// A failed status read after a successful write is not a print failure.
func (p *Printer) Send(ctx context.Context) (*driver.StatusResponse, error) {
	p.mutex.Lock()
	if !p.protocol.IsOpen() {
		p.mutex.Unlock()
		return nil, fmt.Errorf("send: %w", protocol.ErrNotOpen)
	}

	payload := append([]byte(nil), p.buffer.Bytes()...)
	p.resetBuffer()
	if err := p.protocol.Write(ctx, payload); err != nil {
		p.mutex.Unlock()
		return nil, fmt.Errorf("failed to send print job: %w", err)
	}

	online, err := p.readStatus(ctx)
	if err != nil {
		p.logger.Debug("Status read after send failed", zap.Error(err))
		online = p.lastOnline
	}
	p.lastOnline = online
	status := driver.NewStatus(true, online)
	p.mutex.Unlock()

	p.logger.Info("Print job sent", zap.Int("bytes", len(payload)), zap.Bool("online", online))
	p.notify(status)
	return &status, nil
}

// Monitor registers a status listener
func (p *Printer) Monitor(onStatus func(driver.StatusResponse)) func() {
	p.listenerMu.Lock()
	defer p.listenerMu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = onStatus

	var once sync.Once
	return func() {
		once.Do(func() {
			p.listenerMu.Lock()
			delete(p.listeners, id)
			p.listenerMu.Unlock()
		})
	}
}

// Close releases the transport
func (p *Printer) Close() error {
	return p.protocol.Close()
}

// Stats exposes transport statistics
func (p *Printer) Stats() protocol.ProtocolStats {
	return p.protocol.Stats()
}

func (p *Printer) write(cmd []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.buffer.Write(cmd)
	return nil
}

func (p *Printer) notify(status driver.StatusResponse) {
	p.listenerMu.Lock()
	listeners := make([]func(driver.StatusResponse), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}

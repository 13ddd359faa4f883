package escpos

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-printer/internal/model"
	"order-printer/internal/protocol"
	"order-printer/pkg/driver"
)

// fakeProtocol records writes and answers reads from a queue
type fakeProtocol struct {
	mu       sync.Mutex
	open     bool
	openErr  error
	writes   [][]byte
	replies  [][]byte
	readErr  error
	closeErr error
}

func (f *fakeProtocol) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeProtocol) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return f.closeErr
}

func (f *fakeProtocol) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeProtocol) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeProtocol) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.replies) == 0 {
		return nil, errors.New("no reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeProtocol) Type() model.ConnectionType { return model.ConnectionTypeTCP }

func (f *fakeProtocol) Stats() protocol.ProtocolStats { return protocol.ProtocolStats{} }

const (
	statusOnline  byte = 0x12
	statusOffline byte = 0x1A
)

func newTestPrinter(t *testing.T, proto *fakeProtocol, cfg Config) *Printer {
	t.Helper()
	p, err := New(model.Device{Target: "tcp:test", Name: "Test"}, proto, cfg, zap.NewNop())
	require.NoError(t, err)
	return p
}

func header() []byte {
	return []byte{esc, '@', esc, 't', 0x00}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		b       byte
		online  bool
		wantErr bool
	}{
		{"online", 0x12, true, false},
		{"offline", 0x1A, false, false},
		{"drawer open online", 0x16, true, false},
		{"fixed bits missing", 0x00, false, true},
		{"high bit set", 0x92, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			online, err := parseStatus(tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.online, online)
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"character_set":  "pc858",
		"cut_type":       "PARTIAL",
		"status_timeout": "500ms",
		"raster_symbols": "true",
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.PrintWidth)
	assert.Equal(t, "PC858", cfg.CharacterSet)
	assert.Equal(t, driver.CutPartial, cfg.CutType)
	assert.True(t, cfg.RasterSymbols)
	assert.Equal(t, "500ms", cfg.StatusTimeout.String())

	_, err = ParseConfig(map[string]interface{}{"character_set": "KOI8"}, 48)
	assert.Error(t, err)
	_, err = ParseConfig(map[string]interface{}{"cut_type": "tear"}, 48)
	assert.Error(t, err)
}

func TestPrinterSendWritesBufferOnce(t *testing.T) {
	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	require.NoError(t, p.SetAlign(driver.AlignCenter))
	require.NoError(t, p.AddText("Hi"))
	require.NoError(t, p.AddFeed(2))
	require.NoError(t, p.Cut())

	status, err := p.Send(ctx)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Ready())

	require.Len(t, proto.writes, 2)
	want := append(header(), esc, 'a', 1, 'H', 'i', esc, 'd', 2, gs, 'V', 0)
	assert.Equal(t, want, proto.writes[0])
	assert.Equal(t, cmdStatusRequest, proto.writes[1])
}

func TestPrinterSendWithoutStatusReply(t *testing.T) {
	proto := &fakeProtocol{readErr: errors.New("timeout")}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	status, err := p.Send(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsConnected())
	assert.False(t, status.IsOnline())
}

func TestPrinterSendRequiresConnection(t *testing.T) {
	p := newTestPrinter(t, &fakeProtocol{}, DefaultConfig())
	status, err := p.Send(context.Background())
	assert.Nil(t, status)
	assert.ErrorIs(t, err, protocol.ErrNotOpen)
}

func TestPrinterStatus(t *testing.T) {
	proto := &fakeProtocol{replies: [][]byte{{statusOffline}, {statusOnline}}}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	status, err := p.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsConnected())

	require.NoError(t, p.Connect(ctx))
	status, err = p.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsConnected())
	assert.False(t, status.IsOnline())

	status, err = p.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Ready())
}

func TestPrinterMonitor(t *testing.T) {
	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	var seen []driver.StatusResponse
	unsubscribe := p.Monitor(func(s driver.StatusResponse) { seen = append(seen, s) })

	require.NoError(t, p.Connect(ctx))
	_, err := p.Status(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Disconnect(ctx))

	require.Len(t, seen, 3)
	assert.Equal(t, driver.NewStatus(true, false), seen[0])
	assert.Equal(t, driver.NewStatus(true, true), seen[1])
	assert.Equal(t, driver.NewStatus(false, true), seen[2])

	unsubscribe()
	unsubscribe()
	require.NoError(t, p.Connect(ctx))
	assert.Len(t, seen, 3)
}

func TestPrinterConnectError(t *testing.T) {
	proto := &fakeProtocol{openErr: errors.New("refused")}
	p := newTestPrinter(t, proto, DefaultConfig())
	assert.Error(t, p.Connect(context.Background()))
	assert.False(t, p.IsConnected())
}

func TestPrinterAddLineUsesMagnifiedWidth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrintWidth = 20
	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, cfg)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	require.NoError(t, p.SetSize(2, 2))
	require.NoError(t, p.AddLine("TOTAL", "$5", '.'))
	_, err := p.Send(ctx)
	require.NoError(t, err)

	want := append(header(), gs, '!', 0x11)
	want = append(want, []byte("TOTAL...$5")...)
	assert.Equal(t, want, proto.writes[0])
}

func TestPrinterEncodesCodePage(t *testing.T) {
	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	require.NoError(t, p.AddText("café"))
	_, err := p.Send(ctx)
	require.NoError(t, err)

	assert.Equal(t, append(header(), 'c', 'a', 'f', 0x82), proto.writes[0])
}

func TestPrinterFormatCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(p *Printer) error
		want []byte
	}{
		{"style", func(p *Printer) error {
			return p.SetStyle(driver.Style{Bold: true, Reverse: true})
		}, []byte{esc, 'E', 1, esc, '-', 0, gs, 'B', 1}},
		{"smooth", func(p *Printer) error { return p.SetSmooth(true) }, []byte{gs, 'b', 1}},
		{"align right", func(p *Printer) error { return p.SetAlign(driver.AlignRight) }, []byte{esc, 'a', 2}},
		{"size 3x1", func(p *Printer) error { return p.SetSize(3, 1) }, []byte{gs, '!', 0x20}},
		{"barcode", func(p *Printer) error {
			return p.AddBarcode(driver.Barcode{Data: "AB1", Type: driver.BarcodeCode128})
		}, []byte{gs, 'H', 2, gs, 'w', 3, gs, 'h', 80, gs, 'k', 73, 5, '{', 'B', 'A', 'B', '1'}},
		{"qr", func(p *Printer) error {
			return p.AddSymbol(driver.Symbol{Data: "x", Level: driver.SymbolLevelL, Size: 4})
		}, []byte{
			gs, '(', 'k', 4, 0, 0x31, 0x41, 0x32, 0x00,
			gs, '(', 'k', 3, 0, 0x31, 0x43, 4,
			gs, '(', 'k', 3, 0, 0x31, 0x45, 0x30,
			gs, '(', 'k', 4, 0, 0x31, 0x50, 0x30, 'x',
			gs, '(', 'k', 3, 0, 0x31, 0x51, 0x30,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
			p := newTestPrinter(t, proto, DefaultConfig())
			ctx := context.Background()

			require.NoError(t, p.Connect(ctx))
			require.NoError(t, tt.call(p))
			_, err := p.Send(ctx)
			require.NoError(t, err)
			assert.Equal(t, append(header(), tt.want...), proto.writes[0])
		})
	}
}

func TestPrinterRejectsInvalidInput(t *testing.T) {
	p := newTestPrinter(t, &fakeProtocol{}, DefaultConfig())

	assert.Error(t, p.SetAlign(driver.Align("justify")))
	assert.Error(t, p.SetSize(0, 1))
	assert.Error(t, p.SetSize(9, 1))
	assert.Error(t, p.AddFeed(0))
	assert.Error(t, p.AddBarcode(driver.Barcode{Data: "1", Type: "PDF417"}))
	assert.Error(t, p.AddBarcode(driver.Barcode{Data: "", Type: driver.BarcodeEAN13}))
	assert.Error(t, p.AddSymbol(driver.Symbol{Data: "x", Level: "Z"}))
	assert.Error(t, p.AddImage(driver.Image{Source: "not base64!"}))
}

func TestPrinterAddImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 2))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.Black)
		img.Set(x, 1, color.Black)
	}
	for x := 8; x < 16; x++ {
		img.Set(x, 0, color.White)
		img.Set(x, 1, color.White)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	source := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	require.NoError(t, p.AddImage(driver.Image{Source: source}))
	_, err := p.Send(ctx)
	require.NoError(t, err)

	raster := proto.writes[0][len(header()):]
	assert.Equal(t, []byte{gs, 'v', '0', 0, 2, 0, 2, 0}, raster[:8])
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0x00}, raster[8:])
}

func TestPrinterRasterSymbol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RasterSymbols = true
	proto := &fakeProtocol{replies: [][]byte{{statusOnline}}}
	p := newTestPrinter(t, proto, cfg)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	require.NoError(t, p.AddSymbol(driver.Symbol{Data: "https://example.com", Size: 2}))
	_, err := p.Send(ctx)
	require.NoError(t, err)

	raster := proto.writes[0][len(header()):]
	assert.Equal(t, []byte{gs, 'v', '0', 0}, raster[:4])
}

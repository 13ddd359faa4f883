package protocol

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-printer/internal/model"
)

func TestParseTCPConfig(t *testing.T) {
	cfg, err := ParseTCPConfig(map[string]interface{}{"host": "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.KeepAlive)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	cfg, err = ParseTCPConfig(map[string]interface{}{
		"host":         "printer.local",
		"port":         float64(9101),
		"keep_alive":   false,
		"read_timeout": "2s",
	})
	require.NoError(t, err)
	assert.Equal(t, 9101, cfg.Port)
	assert.False(t, cfg.KeepAlive)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		ct     model.ConnectionType
		config map[string]interface{}
	}{
		{"tcp missing host", model.ConnectionTypeTCP, map[string]interface{}{}},
		{"tcp bad port", model.ConnectionTypeTCP, map[string]interface{}{"host": "h", "port": 70000}},
		{"tcp bad timeout", model.ConnectionTypeTCP, map[string]interface{}{"host": "h", "timeout": "soon"}},
		{"serial missing port", model.ConnectionTypeSerial, map[string]interface{}{}},
		{"serial bad baud", model.ConnectionTypeSerial, map[string]interface{}{"port": "/dev/ttyUSB0", "baud_rate": 1234}},
		{"serial bad parity", model.ConnectionTypeSerial, map[string]interface{}{"port": "/dev/ttyUSB0", "parity": "mark"}},
		{"usb missing product", model.ConnectionTypeUSB, map[string]interface{}{"vendor_id": "04b8"}},
		{"usb bad vendor", model.ConnectionTypeUSB, map[string]interface{}{"vendor_id": "zz", "product_id": "0202"}},
		{"unknown type", model.ConnectionType("BLUETOOTH"), map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proto, err := CreateProtocol(tt.ct, tt.config, zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, proto)
		})
	}
}

func TestParseSerialAndUSBConfig(t *testing.T) {
	sc, err := ParseSerialConfig(map[string]interface{}{"port": "/dev/ttyS0", "baud_rate": "19200", "stop_bits": 2})
	require.NoError(t, err)
	assert.Equal(t, 19200, sc.BaudRate)
	assert.Equal(t, 2, sc.StopBits)
	assert.Equal(t, "none", sc.Parity)

	uc, err := ParseUSBConfig(map[string]interface{}{"vendor_id": "0x04B8", "product_id": "0202", "serial_number": "X1"})
	require.NoError(t, err)
	assert.Equal(t, 1, uc.Endpoint)
	assert.Equal(t, "X1", uc.SerialNumber)

	id, err := parseHexID("0x04B8")
	require.NoError(t, err)
	assert.EqualValues(t, 0x04b8, id)
}

func TestCreateProtocolTypes(t *testing.T) {
	logger := zap.NewNop()

	p, err := CreateProtocol(model.ConnectionTypeTCP, map[string]interface{}{"host": "127.0.0.1"}, logger)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeTCP, p.Type())
	assert.False(t, p.IsOpen())

	p, err = CreateProtocol(model.ConnectionTypeSerial, map[string]interface{}{"port": "/dev/null"}, logger)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeSerial, p.Type())

	p, err = CreateProtocol(model.ConnectionTypeUSB, map[string]interface{}{"vendor_id": "04b8", "product_id": "0202"}, logger)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeUSB, p.Type())
}

func TestTCPConnectionRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 16)
		n, _ := conn.Read(buf)
		received <- buf[:n]
		_, _ = conn.Write([]byte{0x16})
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	tc := NewTCPConnection(&TCPConfig{
		Host:         "127.0.0.1",
		Port:         port,
		Timeout:      time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, zap.NewNop())
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(port), tc.Address())

	ctx := context.Background()
	require.NoError(t, tc.Open(ctx))
	require.True(t, tc.IsOpen())

	require.NoError(t, tc.Write(ctx, []byte{0x10, 0x04, 0x01}))
	assert.Equal(t, []byte{0x10, 0x04, 0x01}, <-received)

	data, err := tc.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x16}, data)

	stats := tc.Stats()
	assert.EqualValues(t, 3, stats.BytesWritten)
	assert.EqualValues(t, 1, stats.BytesRead)
	assert.True(t, stats.IsConnected)

	require.NoError(t, tc.Close())
	assert.False(t, tc.IsOpen())
	assert.False(t, tc.Stats().IsConnected)
	assert.NoError(t, tc.Close())

	err = tc.Write(ctx, []byte{0x0a})
	assert.True(t, errors.Is(err, ErrNotOpen))
}

func TestTCPConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tc := NewTCPConnection(&TCPConfig{Host: "127.0.0.1", Port: port, Timeout: time.Second}, zap.NewNop())
	assert.Error(t, tc.Open(context.Background()))
	assert.False(t, tc.IsOpen())
	assert.EqualValues(t, 1, tc.Stats().ErrorCount)
}

func TestTCPReadKeepsReplyAfterTimeout(t *testing.T) {
	client, printer := net.Pipe()
	defer printer.Close()

	tc := NewTCPConnection(&TCPConfig{Host: "pipe", Port: 9100, ReadTimeout: 5 * time.Second}, zap.NewNop())
	tc.conn = client
	defer tc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err := tc.Read(ctx, 1)
	cancel()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err)

	go func() {
		_, _ = printer.Write([]byte{0x12})
	}()

	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := tc.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12}, data)
	assert.EqualValues(t, 1, tc.Stats().BytesRead)
}

func TestTCPReadExpiredContext(t *testing.T) {
	client, printer := net.Pipe()
	defer printer.Close()

	tc := NewTCPConnection(&TCPConfig{Host: "pipe", Port: 9100}, zap.NewNop())
	tc.conn = client
	defer tc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tc.Read(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDeadlinePicksEarlier(t *testing.T) {
	assert.True(t, deadline(context.Background(), 0).IsZero())

	d := deadline(context.Background(), time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Minute), d, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	cd, _ := ctx.Deadline()
	assert.Equal(t, cd, deadline(ctx, time.Minute))
	assert.Equal(t, cd, deadline(ctx, 0))
}

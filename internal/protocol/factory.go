// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"order-printer/internal/model"
)

// CreateProtocol creates a protocol based on connection type and configuration
func CreateProtocol(connectionType model.ConnectionType, config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	switch connectionType {
	case model.ConnectionTypeSerial:
		cfg, err := ParseSerialConfig(config)
		if err != nil {
			return nil, err
		}
		logger.Info("Creating serial protocol",
			zap.String("port", cfg.Port),
			zap.Int("baud_rate", cfg.BaudRate),
		)
		return NewSerialConnection(cfg, logger), nil

	case model.ConnectionTypeUSB:
		cfg, err := ParseUSBConfig(config)
		if err != nil {
			return nil, err
		}
		logger.Info("Creating USB protocol",
			zap.String("vendor_id", cfg.VendorID),
			zap.String("product_id", cfg.ProductID),
		)
		return NewUSBConnection(cfg, logger), nil

	case model.ConnectionTypeTCP:
		cfg, err := ParseTCPConfig(config)
		if err != nil {
			return nil, err
		}
		logger.Info("Creating TCP protocol",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
		)
		return NewTCPConnection(cfg, logger), nil

	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", connectionType)
	}
}

// SerialConfig addresses a printer on a serial port. Zero fields parse to
// 9600 8N1 with a 5s timeout.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // none, odd or even
	Timeout  time.Duration
}

// USBConfig addresses a USB printer by hex vendor and product ID.
// Endpoint is the bulk OUT endpoint, InEndpoint the bulk IN endpoint used
// for status reads.
type USBConfig struct {
	VendorID     string
	ProductID    string
	Endpoint     int
	InEndpoint   int
	SerialNumber string // optional, picks one of several identical printers
	Timeout      time.Duration
}

// TCPConfig addresses a network printer
type TCPConfig struct {
	Host         string
	Port         int
	KeepAlive    bool
	Timeout      time.Duration // dial
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

var validBaudRates = map[int]bool{
	1200: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true,
}

// ParseSerialConfig reads a serial configuration, applying defaults
func ParseSerialConfig(config map[string]interface{}) (*SerialConfig, error) {
	cfg := &SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  5 * time.Second,
	}

	port, ok := config["port"].(string)
	if !ok || port == "" {
		return nil, fmt.Errorf("serial port is required")
	}
	cfg.Port = port

	var err error
	if cfg.BaudRate, err = intValue(config, "baud_rate", cfg.BaudRate); err != nil {
		return nil, err
	}
	if !validBaudRates[cfg.BaudRate] {
		return nil, fmt.Errorf("invalid baud rate: %d", cfg.BaudRate)
	}
	if cfg.DataBits, err = intValue(config, "data_bits", cfg.DataBits); err != nil {
		return nil, err
	}
	if cfg.StopBits, err = intValue(config, "stop_bits", cfg.StopBits); err != nil {
		return nil, err
	}
	if parity, ok := config["parity"].(string); ok {
		switch parity {
		case "none", "odd", "even":
			cfg.Parity = parity
		default:
			return nil, fmt.Errorf("invalid parity: %s", parity)
		}
	}
	if cfg.Timeout, err = durationValue(config, "timeout", cfg.Timeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseUSBConfig reads a USB configuration, applying defaults
func ParseUSBConfig(config map[string]interface{}) (*USBConfig, error) {
	cfg := &USBConfig{
		Endpoint:   1,
		InEndpoint: 2,
		Timeout:    5 * time.Second,
	}

	var ok bool
	if cfg.VendorID, ok = config["vendor_id"].(string); !ok || cfg.VendorID == "" {
		return nil, fmt.Errorf("USB vendor_id is required")
	}
	if cfg.ProductID, ok = config["product_id"].(string); !ok || cfg.ProductID == "" {
		return nil, fmt.Errorf("USB product_id is required")
	}
	if _, err := parseHexID(cfg.VendorID); err != nil {
		return nil, fmt.Errorf("invalid vendor_id: %w", err)
	}
	if _, err := parseHexID(cfg.ProductID); err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}

	var err error
	if cfg.Endpoint, err = intValue(config, "endpoint", cfg.Endpoint); err != nil {
		return nil, err
	}
	if cfg.InEndpoint, err = intValue(config, "in_endpoint", cfg.InEndpoint); err != nil {
		return nil, err
	}
	if sn, ok := config["serial_number"].(string); ok {
		cfg.SerialNumber = sn
	}
	if cfg.Timeout, err = durationValue(config, "timeout", cfg.Timeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseTCPConfig reads a TCP configuration, applying defaults
func ParseTCPConfig(config map[string]interface{}) (*TCPConfig, error) {
	cfg := &TCPConfig{
		Port:         9100, // raw printing port
		KeepAlive:    true,
		Timeout:      10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	host, ok := config["host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("TCP host is required")
	}
	cfg.Host = host

	var err error
	if cfg.Port, err = intValue(config, "port", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port number: %d", cfg.Port)
	}
	if keepAlive, ok := config["keep_alive"].(bool); ok {
		cfg.KeepAlive = keepAlive
	}
	if cfg.Timeout, err = durationValue(config, "timeout", cfg.Timeout); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = durationValue(config, "read_timeout", cfg.ReadTimeout); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = durationValue(config, "write_timeout", cfg.WriteTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// intValue accepts the numeric shapes JSON, YAML and env decoding produce
func intValue(config map[string]interface{}, key string, def int) (int, error) {
	raw, ok := config[key]
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid %s type %T", key, raw)
	}
}

func durationValue(config map[string]interface{}, key string, def time.Duration) (time.Duration, error) {
	raw, ok := config[key]
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("invalid %s type %T", key, raw)
	}
}

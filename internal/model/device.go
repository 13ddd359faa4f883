// internal/model/device.go
package model

import "strings"

// ConnectionType represents how a printer is attached
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// ParseConnectionType maps a config value such as "tcp" to its type
func ParseConnectionType(s string) (ConnectionType, bool) {
	switch ConnectionType(strings.ToUpper(s)) {
	case ConnectionTypeSerial:
		return ConnectionTypeSerial, true
	case ConnectionTypeUSB:
		return ConnectionTypeUSB, true
	case ConnectionTypeTCP:
		return ConnectionTypeTCP, true
	}
	return "", false
}

// Device is the handle of a configured printer
type Device struct {
	Target string `json:"target"`
	Name   string `json:"name"`
}

// String returns the display name, falling back to the target
func (d Device) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Target
}

// PrinterInfo describes a configured printer for API listings
type PrinterInfo struct {
	Device
	Driver         string         `json:"driver"`
	ConnectionType ConnectionType `json:"connection_type,omitempty"`
	Busy           bool           `json:"busy"`
	Selected       bool           `json:"selected"`
}

// internal/service/printer_session.go
package service

import (
	"sync"

	"order-printer/internal/model"
	"order-printer/internal/queue"
	"order-printer/pkg/driver"
)

// SessionState is a point-in-time copy of the printer session
type SessionState struct {
	Device      *model.Device         `json:"device"`
	Printing    bool                  `json:"printing"`
	LastError   string                `json:"last_error,omitempty"`
	Status      driver.StatusResponse `json:"status"`
	IsConnected bool                  `json:"is_connected"`
}

// PrinterSession tracks the selected printer, whether a job is in flight,
// the last user-facing error and the latest known status.
type PrinterSession struct {
	mutex     sync.RWMutex
	device    *model.Device
	inFlight  int
	lastError string
	status    driver.StatusResponse
}

// NewPrinterSession creates an empty session
func NewPrinterSession() *PrinterSession {
	return &PrinterSession{status: driver.UnknownStatus()}
}

// Select makes device the current printer. Switching printers forgets the
// previous status and error.
func (s *PrinterSession) Select(device model.Device) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.device != nil && s.device.Target == device.Target {
		s.device = &device
		return
	}
	s.device = &device
	s.lastError = ""
	s.status = driver.UnknownStatus()
}

// Clear drops the current printer
func (s *PrinterSession) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.device = nil
	s.lastError = ""
	s.status = driver.UnknownStatus()
}

// Device returns the selected printer
func (s *PrinterSession) Device() (model.Device, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.device == nil {
		return model.Device{}, false
	}
	return *s.device, true
}

// BeginPrinting marks a job in flight and clears the previous error
func (s *PrinterSession) BeginPrinting() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.inFlight++
	s.lastError = ""
}

// EndPrinting marks a job finished and records its outcome
func (s *PrinterSession) EndPrinting(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.lastError = queue.UserMessage(err)
}

// Fail records an error for an attempt that never started
func (s *PrinterSession) Fail(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastError = queue.UserMessage(err)
}

// UpdateStatus caches status if device is the selected printer
func (s *PrinterSession) UpdateStatus(device model.Device, status driver.StatusResponse) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.device == nil || s.device.Target != device.Target {
		return
	}
	s.status = status
}

// Snapshot copies the session state
func (s *PrinterSession) Snapshot() SessionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state := SessionState{
		Printing:    s.inFlight > 0,
		LastError:   s.lastError,
		Status:      s.status,
		IsConnected: s.status.Ready(),
	}
	if s.device != nil {
		d := *s.device
		state.Device = &d
	}
	return state
}

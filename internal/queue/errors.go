// internal/queue/errors.go
package queue

import (
	"errors"
	"strings"
)

var (
	// ErrNoDeviceAvailable is returned when no printer is selected or resolvable
	ErrNoDeviceAvailable = errors.New("no printer available")
	// ErrConnectionTimeout is returned when the printer never satisfied the
	// connect predicate within the attempt and time budget
	ErrConnectionTimeout = errors.New("printer did not come online")
	// ErrExecutionFailure wraps any failure while running a job on a
	// connected printer
	ErrExecutionFailure = errors.New("print execution failed")
	// ErrTeardownFailure wraps a failed disconnect. It is logged, never returned.
	ErrTeardownFailure = errors.New("printer teardown failed")
	// ErrControllerClosed is returned for work submitted to or queued on a
	// closed controller
	ErrControllerClosed = errors.New("queue controller closed")
	// ErrDeviceBusy is returned by Probe while a job holds the printer
	ErrDeviceBusy = errors.New("printer busy")
)

// UserMessage maps an error to a single human-readable line
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDeviceAvailable):
		return "No printer available"
	case errors.Is(err, ErrConnectionTimeout):
		return "Printer did not come online"
	case errors.Is(err, ErrExecutionFailure):
		if cause := executionCause(err.Error()); cause != "" {
			return "Printing failed: " + cause
		}
		return "Printing failed"
	}
	return err.Error()
}

func executionCause(msg string) string {
	sentinel := ErrExecutionFailure.Error()
	idx := strings.Index(msg, sentinel)
	if idx < 0 {
		return msg
	}
	return strings.TrimSpace(strings.TrimPrefix(msg[idx+len(sentinel):], ":"))
}

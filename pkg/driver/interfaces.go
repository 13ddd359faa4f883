// pkg/driver/interfaces.go
package driver

import (
	"context"
)

// Printer is the primitive capability set a receipt printer driver exposes.
// Formatting and content calls only append to the driver's command buffer;
// nothing reaches the device until Send.
type Printer interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	Status(ctx context.Context) (StatusResponse, error)

	// Format state, held until changed
	SetAlign(align Align) error
	SetSize(width, height int) error
	SetStyle(style Style) error
	SetSmooth(enabled bool) error

	// Content
	AddText(text string) error
	AddLine(left, right string, gap rune) error
	AddFeed(lines int) error
	AddImage(img Image) error
	AddBarcode(barcode Barcode) error
	AddSymbol(symbol Symbol) error
	Cut() error

	// Send transmits the buffered job and returns the status read back
	// from the device.
	Send(ctx context.Context) (*StatusResponse, error)

	// Monitor registers a status listener and returns a function that
	// removes it.
	Monitor(onStatus func(StatusResponse)) (unsubscribe func())
}

// Closer is implemented by drivers that hold resources beyond a single
// connection, such as a background status poller.
type Closer interface {
	Close() error
}

// pkg/driver/types.go
package driver

import "fmt"

// Align defines horizontal alignment
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Valid reports whether a is a known alignment
func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// MaxSizeMultiplier is the largest character magnification ESC/POS supports
const MaxSizeMultiplier = 8

// Size is a character magnification, 1x1 being normal text
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// NormalSize is 1x1 character magnification
var NormalSize = Size{Width: 1, Height: 1}

// Validate checks both multipliers are within range
func (s Size) Validate() error {
	if s.Width < 1 || s.Width > MaxSizeMultiplier || s.Height < 1 || s.Height > MaxSizeMultiplier {
		return fmt.Errorf("size %dx%d out of range 1..%d", s.Width, s.Height, MaxSizeMultiplier)
	}
	return nil
}

// Style holds text emphasis flags
type Style struct {
	Bold      bool `json:"bold,omitempty" yaml:"bold,omitempty"`
	Underline bool `json:"underline,omitempty" yaml:"underline,omitempty"`
	Reverse   bool `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

// IsZero reports whether no emphasis is set
func (s Style) IsZero() bool {
	return s == Style{}
}

// CutType defines the type of paper cut
type CutType string

const (
	CutFull    CutType = "full"
	CutPartial CutType = "partial"
)

// BarcodeType defines the barcode symbology
type BarcodeType string

const (
	BarcodeUPCA    BarcodeType = "UPC_A"
	BarcodeEAN13   BarcodeType = "EAN13"
	BarcodeEAN8    BarcodeType = "EAN8"
	BarcodeCode39  BarcodeType = "CODE39"
	BarcodeITF     BarcodeType = "ITF"
	BarcodeCodabar BarcodeType = "CODABAR"
	BarcodeCode93  BarcodeType = "CODE93"
	BarcodeCode128 BarcodeType = "CODE128"
)

// HRIPosition defines where the human readable interpretation is printed
type HRIPosition string

const (
	HRINone  HRIPosition = "none"
	HRIAbove HRIPosition = "above"
	HRIBelow HRIPosition = "below"
	HRIBoth  HRIPosition = "both"
)

// Barcode is a one-dimensional barcode payload
type Barcode struct {
	Data   string      `json:"data" yaml:"data"`
	Type   BarcodeType `json:"type" yaml:"type"`
	HRI    HRIPosition `json:"hri,omitempty" yaml:"hri,omitempty"`
	Width  int         `json:"width,omitempty" yaml:"width,omitempty"`
	Height int         `json:"height,omitempty" yaml:"height,omitempty"`
}

// SymbolType defines the two-dimensional symbology
type SymbolType string

const (
	SymbolQRModel1 SymbolType = "QRCODE_MODEL_1"
	SymbolQRModel2 SymbolType = "QRCODE_MODEL_2"
)

// SymbolLevel is the error correction level of a two-dimensional code
type SymbolLevel string

const (
	SymbolLevelL SymbolLevel = "L"
	SymbolLevelM SymbolLevel = "M"
	SymbolLevelQ SymbolLevel = "Q"
	SymbolLevelH SymbolLevel = "H"
)

// Symbol is a two-dimensional code payload
type Symbol struct {
	Data  string      `json:"data" yaml:"data"`
	Type  SymbolType  `json:"type" yaml:"type"`
	Level SymbolLevel `json:"level,omitempty" yaml:"level,omitempty"`
	Size  int         `json:"size,omitempty" yaml:"size,omitempty"`
}

// Image is a raster payload. Source holds base64 image data, optionally as a
// data URI. Width is the target width in dots.
type Image struct {
	Source string `json:"source" yaml:"source"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
}

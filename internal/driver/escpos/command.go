// internal/driver/escpos/command.go
package escpos

import "order-printer/pkg/driver"

const (
	esc byte = 0x1B
	gs  byte = 0x1D
	dle byte = 0x10
	eot byte = 0x04
)

// Fixed command sequences. Parameterised commands are built by the
// functions below.
var (
	cmdInitialize    = []byte{esc, '@'}       // ESC @
	cmdStatusRequest = []byte{dle, eot, 0x01} // DLE EOT 1
	cmdCutFull       = []byte{gs, 'V', 0x00}  // GS V 0
	cmdCutPartial    = []byte{gs, 'V', 0x01}  // GS V 1
	cmdQRPrint       = []byte{gs, '(', 'k', 0x03, 0x00, 0x31, 0x51, 0x30}
)

// codePages maps configured character sets to ESC t n
var codePages = map[string]byte{
	"PC437": 0x00,
	"PC850": 0x02,
	"PC852": 0x12,
	"PC858": 0x13,
}

func cmdAlign(a driver.Align) []byte {
	n := byte(0)
	switch a {
	case driver.AlignCenter:
		n = 1
	case driver.AlignRight:
		n = 2
	}
	return []byte{esc, 'a', n} // ESC a n
}

// cmdSize encodes a character magnification, 1 to 8 on each axis
func cmdSize(width, height int) []byte {
	return []byte{gs, '!', byte((width-1)<<4 | (height - 1))} // GS ! n
}

// cmdStyle sets bold (ESC E), underline (ESC -) and reverse (GS B)
func cmdStyle(s driver.Style) []byte {
	return []byte{
		esc, 'E', flag(s.Bold),
		esc, '-', flag(s.Underline),
		gs, 'B', flag(s.Reverse),
	}
}

func cmdSmooth(on bool) []byte {
	return []byte{gs, 'b', flag(on)} // GS b n
}

func cmdFeed(lines int) []byte {
	return []byte{esc, 'd', byte(lines)} // ESC d n
}

func cmdCodePage(n byte) []byte {
	return []byte{esc, 't', n} // ESC t n
}

func cmdCut(t driver.CutType) []byte {
	if t == driver.CutPartial {
		return cmdCutPartial
	}
	return cmdCutFull
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// barcodeSystems holds the GS k m values of the length-prefixed format
var barcodeSystems = map[driver.BarcodeType]byte{
	driver.BarcodeUPCA:    65,
	driver.BarcodeEAN13:   67,
	driver.BarcodeEAN8:    68,
	driver.BarcodeCode39:  69,
	driver.BarcodeITF:     70,
	driver.BarcodeCodabar: 71,
	driver.BarcodeCode93:  72,
	driver.BarcodeCode128: 73,
}

var hriPositions = map[driver.HRIPosition]byte{
	driver.HRINone:  0,
	driver.HRIAbove: 1,
	driver.HRIBelow: 2,
	driver.HRIBoth:  3,
}

var qrModels = map[driver.SymbolType]byte{
	driver.SymbolQRModel1: 0x31,
	driver.SymbolQRModel2: 0x32,
}

var qrLevels = map[driver.SymbolLevel]byte{
	driver.SymbolLevelL: 0x30,
	driver.SymbolLevelM: 0x31,
	driver.SymbolLevelQ: 0x32,
	driver.SymbolLevelH: 0x33,
}

// qrFunction frames a GS ( k function 49 call
func qrFunction(fn byte, params ...byte) []byte {
	n := len(params) + 2
	out := []byte{gs, '(', 'k', byte(n), byte(n >> 8), 0x31, fn}
	return append(out, params...)
}

// internal/driver/escpos/image.go
package escpos

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"

	"order-printer/pkg/driver"
)

// darkThreshold is the luminance below which a pixel prints black
const darkThreshold = 128

// decodeImage accepts raw base64 or a data URI
func decodeImage(source string) (image.Image, error) {
	if idx := strings.Index(source, ","); idx != -1 && strings.HasPrefix(source, "data:") {
		source = source[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(source))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// scaleToWidth composites img onto white and scales it to width dots,
// keeping the aspect ratio.
func scaleToWidth(img image.Image, width int) *image.RGBA {
	src := img.Bounds()
	height := src.Dy() * width / src.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if width == src.Dx() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

// cmdRaster encodes img as GS v 0 at normal density, one bit per dot
func cmdRaster(img *image.RGBA) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	widthBytes := (width + 7) / 8

	out := make([]byte, 0, 8+widthBytes*height)
	out = append(out, gs, 'v', '0', 0,
		byte(widthBytes), byte(widthBytes>>8),
		byte(height), byte(height>>8),
	)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x += 8 {
			var b byte
			for bit := 0; bit < 8 && x+bit < width; bit++ {
				c := img.RGBAAt(bounds.Min.X+x+bit, bounds.Min.Y+y)
				gray := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
				if gray < darkThreshold {
					b |= 1 << uint(7-bit)
				}
			}
			out = append(out, b)
		}
	}
	return out
}

// imageWidth resolves the target width in dots for an image payload
func (c Config) imageWidth(requested, natural int) int {
	width := requested
	if width <= 0 {
		width = natural
	}
	if width > c.PaperWidthDots {
		width = c.PaperWidthDots
	}
	return width
}

var qrRecovery = map[driver.SymbolLevel]qrcode.RecoveryLevel{
	driver.SymbolLevelL: qrcode.Low,
	driver.SymbolLevelM: qrcode.Medium,
	driver.SymbolLevelQ: qrcode.High,
	driver.SymbolLevelH: qrcode.Highest,
}

// renderQR draws a QR code with moduleDots dots per module
func renderQR(symbol driver.Symbol, moduleDots int) (image.Image, error) {
	level, ok := qrRecovery[symbol.Level]
	if !ok {
		level = qrcode.Medium
	}
	qr, err := qrcode.New(symbol.Data, level)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return qr.Image(-moduleDots), nil
}

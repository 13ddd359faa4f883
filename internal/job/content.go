package job

import (
	"order-printer/pkg/driver"
)

// Content is one printable item of a section. The set of variants is closed:
// only types in this package implement it.
type Content interface {
	Accept(v Visitor) error
	content()
}

// Visitor handles every content variant. Adding a variant adds a method here,
// so each implementation fails to compile until it handles the new kind.
type Visitor interface {
	VisitText(Text) error
	VisitLine(Line) error
	VisitFeed(Feed) error
	VisitCut(Cut) error
	VisitImage(Image) error
	VisitBarcode(Barcode) error
	VisitSymbol(Symbol) error
}

// Text is emitted as-is.
type Text struct {
	Value string `json:"text"`
}

// Line is a two-column line justified to the print width.
type Line struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Gap   rune   `json:"gap,omitempty"`
}

// Feed advances the paper.
type Feed struct {
	Lines int `json:"lines"`
}

// Cut ends the job.
type Cut struct{}

// Image forwards a raster payload to the driver.
type Image struct {
	driver.Image
}

// Barcode forwards a one-dimensional code to the driver.
type Barcode struct {
	driver.Barcode
}

// Symbol forwards a two-dimensional code to the driver.
type Symbol struct {
	driver.Symbol
}

func (c Text) Accept(v Visitor) error    { return v.VisitText(c) }
func (c Line) Accept(v Visitor) error    { return v.VisitLine(c) }
func (c Feed) Accept(v Visitor) error    { return v.VisitFeed(c) }
func (c Cut) Accept(v Visitor) error     { return v.VisitCut(c) }
func (c Image) Accept(v Visitor) error   { return v.VisitImage(c) }
func (c Barcode) Accept(v Visitor) error { return v.VisitBarcode(c) }
func (c Symbol) Accept(v Visitor) error  { return v.VisitSymbol(c) }

func (Text) content()    {}
func (Line) content()    {}
func (Feed) content()    {}
func (Cut) content()     {}
func (Image) content()   {}
func (Barcode) content() {}
func (Symbol) content()  {}

// NewText returns a text item.
func NewText(s string) Text { return Text{Value: s} }

// NewLine returns a justified line using the default gap symbol.
func NewLine(left, right string) Line { return Line{Left: left, Right: right, Gap: DefaultGap} }

// NewFeed returns a feed of n lines. Non-positive n feeds one line.
func NewFeed(n int) Feed {
	if n < 1 {
		n = 1
	}
	return Feed{Lines: n}
}

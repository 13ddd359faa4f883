package job

import "order-printer/pkg/driver"

// Builder assembles a job one section at a time.
type Builder struct {
	sections []Section
	cur      *Section
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Section starts a new section of the given kind.
func (b *Builder) Section(kind Kind) *Builder {
	b.flush()
	b.cur = &Section{Kind: kind, Items: []Content{}}
	return b
}

// Align sets the alignment directive of the current section.
func (b *Builder) Align(a driver.Align) *Builder {
	b.current().Align = &a
	return b
}

// Size sets the size directive of the current section.
func (b *Builder) Size(width, height int) *Builder {
	b.current().Size = &driver.Size{Width: width, Height: height}
	return b
}

// Style sets the style directive of the current section.
func (b *Builder) Style(s driver.Style) *Builder {
	b.current().Style = &s
	return b
}

// Smooth sets the smoothing directive of the current section.
func (b *Builder) Smooth(on bool) *Builder {
	b.current().Smooth = &on
	return b
}

// Text appends a text item.
func (b *Builder) Text(s string) *Builder {
	return b.add(NewText(s))
}

// Line appends a justified line with the given gap symbol.
func (b *Builder) Line(left, right string, gap rune) *Builder {
	if gap == 0 {
		gap = DefaultGap
	}
	return b.add(Line{Left: left, Right: right, Gap: gap})
}

// Feed appends a feed of n lines.
func (b *Builder) Feed(n int) *Builder {
	return b.add(NewFeed(n))
}

// Image appends a raster image.
func (b *Builder) Image(img driver.Image) *Builder {
	return b.add(Image{Image: img})
}

// Barcode appends a barcode.
func (b *Builder) Barcode(code driver.Barcode) *Builder {
	return b.add(Barcode{Barcode: code})
}

// Symbol appends a two-dimensional code.
func (b *Builder) Symbol(sym driver.Symbol) *Builder {
	return b.add(Symbol{Symbol: sym})
}

// Cut appends the terminal cut.
func (b *Builder) Cut() *Builder {
	return b.add(Cut{})
}

// Build returns the assembled job. The builder should not be reused.
func (b *Builder) Build() *PrintJob {
	b.flush()
	return &PrintJob{Sections: b.sections}
}

func (b *Builder) add(c Content) *Builder {
	s := b.current()
	s.Items = append(s.Items, c)
	return b
}

func (b *Builder) current() *Section {
	if b.cur == nil {
		b.cur = &Section{Kind: KindContent, Items: []Content{}}
	}
	return b.cur
}

func (b *Builder) flush() {
	if b.cur != nil {
		b.sections = append(b.sections, *b.cur)
		b.cur = nil
	}
}

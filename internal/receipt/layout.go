package receipt

import (
	"unicode/utf8"

	"order-printer/internal/config"
)

// LayoutFromConfig maps the receipt config section onto a Layout. Empty
// values keep their defaults.
func LayoutFromConfig(cfg config.ReceiptConfig) Layout {
	layout := Layout{
		Title:           cfg.Title,
		PrintWidth:      cfg.PrintWidth,
		CurrencySymbol:  cfg.CurrencySymbol,
		ShowBreakdown:   cfg.ShowBreakdown,
		ShowCreatedAt:   cfg.ShowCreatedAt,
		BoxInstructions: cfg.BoxInstructions,
	}
	if r, _ := utf8.DecodeRuneInString(cfg.GapSymbol); r != utf8.RuneError {
		layout.GapSymbol = r
	}
	return layout
}

// WithWidth returns a copy of the layout at a different print width
func (l Layout) WithWidth(width int) Layout {
	l.PrintWidth = width
	return l
}

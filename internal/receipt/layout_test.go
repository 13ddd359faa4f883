package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"order-printer/internal/config"
)

func TestLayoutFromConfig(t *testing.T) {
	layout := LayoutFromConfig(config.ReceiptConfig{
		Title:          "KITCHEN",
		PrintWidth:     32,
		CurrencySymbol: "€",
		GapSymbol:      "-",
		ShowBreakdown:  true,
	})

	assert.Equal(t, "KITCHEN", layout.Title)
	assert.Equal(t, 32, layout.PrintWidth)
	assert.Equal(t, "€", layout.CurrencySymbol)
	assert.Equal(t, '-', layout.GapSymbol)
	assert.True(t, layout.ShowBreakdown)
	assert.Equal(t, 40, layout.WithWidth(40).PrintWidth)
	assert.Equal(t, 32, layout.PrintWidth)
}

func TestLayoutFromConfigKeepsDefaults(t *testing.T) {
	c := NewCompiler(LayoutFromConfig(config.ReceiptConfig{}))
	assert.Equal(t, DefaultLayout().Title, c.Layout().Title)
	assert.Equal(t, DefaultLayout().GapSymbol, c.Layout().GapSymbol)
	assert.Equal(t, DefaultLayout().PrintWidth, c.Layout().PrintWidth)
}

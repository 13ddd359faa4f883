// Package receipt turns order documents into print jobs.
package receipt

import (
	"fmt"
	"strconv"
	"strings"

	"order-printer/internal/format"
	"order-printer/internal/job"
	"order-printer/internal/model"
	"order-printer/pkg/driver"
)

const indent = "  "

// Layout controls the cosmetic choices of a receipt
type Layout struct {
	Title           string
	PrintWidth      int
	CurrencySymbol  string
	GapSymbol       rune
	ShowBreakdown   bool
	ShowCreatedAt   bool
	BoxInstructions bool
}

// DefaultLayout is the layout used when none is configured
func DefaultLayout() Layout {
	return Layout{
		Title:          "ORDER RECEIPT",
		PrintWidth:     48,
		CurrencySymbol: format.DefaultCurrencySymbol,
		GapSymbol:      format.DefaultGap,
		ShowBreakdown:  true,
	}
}

// Compiler builds print jobs from orders. It holds no state besides its
// layout and is safe for concurrent use.
type Compiler struct {
	layout Layout
}

// NewCompiler creates a compiler. Zero layout fields take their defaults.
func NewCompiler(layout Layout) *Compiler {
	def := DefaultLayout()
	if layout.Title == "" {
		layout.Title = def.Title
	}
	if layout.PrintWidth <= 0 {
		layout.PrintWidth = def.PrintWidth
	}
	if layout.CurrencySymbol == "" {
		layout.CurrencySymbol = def.CurrencySymbol
	}
	if layout.GapSymbol == 0 {
		layout.GapSymbol = def.GapSymbol
	}
	return &Compiler{layout: layout}
}

// Layout returns the effective layout
func (c *Compiler) Layout() Layout {
	return c.layout
}

// Compile lays out the receipt for order. A nil order compiles as an empty one.
func (c *Compiler) Compile(order *model.OrderDocument) *job.PrintJob {
	if order == nil {
		order = &model.OrderDocument{}
	}

	b := job.NewBuilder()
	c.header(b, order)
	c.items(b, order)
	c.notes(b, order)
	c.totals(b, order)
	return b.Build()
}

func (c *Compiler) money(cents int64) string {
	return format.FormatMoney(cents, c.layout.CurrencySymbol)
}

func (c *Compiler) header(b *job.Builder, order *model.OrderDocument) {
	b.Section(job.KindHeader).Align(driver.AlignCenter).
		Text(c.layout.Title).
		Feed(2).
		Text("Order #" + order.DisplayID())

	if c.layout.ShowCreatedAt {
		if ts := format.FormatDate(order.CreatedAt); ts != "" {
			b.Feed(1).Text(ts)
		}
	}
	b.Feed(2)
}

func (c *Compiler) items(b *job.Builder, order *model.OrderDocument) {
	b.Section(job.KindContent).Align(driver.AlignLeft)

	for _, item := range order.CartItems {
		b.Line(quantified(item.Quantity, item.Name), c.money(item.LineTotal()), c.layout.GapSymbol).
			Feed(1)

		for _, group := range item.ModifierGroups {
			for _, m := range group.Modifiers {
				text := indent + quantified(m.Quantity, m.Name)
				if m.Price > 0 {
					text += fmt.Sprintf(" (%s)", c.money(m.Price))
				}
				b.Text(text).Feed(1)
			}
		}

		if si := strings.TrimSpace(item.SpecialInstructions); si != "" {
			c.instructions(b, si)
		}
	}
}

func (c *Compiler) instructions(b *job.Builder, si string) {
	if c.layout.BoxInstructions {
		rows := format.Box(append([]string{"Special Instructions:"}, si), c.layout.PrintWidth-len(indent))
		for _, row := range format.Indent(rows, indent) {
			b.Text(row).Feed(1)
		}
		return
	}

	b.Text(indent + "Special Instructions:").Feed(1)
	lines := format.Wrap(si, c.layout.PrintWidth-len(indent))
	b.Text(strings.Join(format.Indent(lines, indent), "\n")).Feed(1)
}

func (c *Compiler) notes(b *job.Builder, order *model.OrderDocument) {
	notes := strings.TrimSpace(order.OrderNotes)
	if notes == "" {
		return
	}

	b.Section(job.KindContent).Align(driver.AlignLeft).
		Feed(1).
		Text("Order Notes:").
		Feed(1).
		Text(strings.Join(format.Wrap(notes, c.layout.PrintWidth), "\n")).
		Feed(2)
}

func (c *Compiler) totals(b *job.Builder, order *model.OrderDocument) {
	t := ComputeTotals(order)

	if c.layout.ShowBreakdown {
		b.Section(job.KindContent).Align(driver.AlignLeft).
			Line("Subtotal", c.money(t.Subtotal), c.layout.GapSymbol).Feed(1).
			Line("Tax", c.money(t.Tax), c.layout.GapSymbol).Feed(1)
	}

	b.Section(job.KindFooter).Align(driver.AlignLeft).Size(2, 2).Style(driver.Style{Bold: true}).
		Line("TOTAL", c.money(t.Total), c.layout.GapSymbol).
		Feed(4).
		Cut()
}

func quantified(q int64, name string) string {
	return strconv.FormatInt(q, 10) + "x " + name
}

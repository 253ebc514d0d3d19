package ticker

import (
	"fmt"
	"strings"

	"papertrade/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

type view struct {
	selected    domain.Instrument
	instruments []domain.Instrument
	book        *domain.PriceBook
	orders      []domain.Order
	realized    float64
	unavailable map[domain.Feed]bool
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render draws one status line: per-instrument latest price and open
// P&L, then the account total. Unknown prices show as "--" and their
// P&L as "n/a"; a $0.00 default is never displayed.
func (r *Renderer) Render(v view, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[PAPER] ", ansiDim))

	for idx, inst := range v.instruments {
		if idx > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}

		name := string(inst)
		if inst == v.selected {
			name = "*" + name
		}
		sb.WriteString(name)
		sb.WriteString(" ")

		if v.unavailable[inst.Feed()] {
			sb.WriteString(colorize("feed down", ansiRed))
			sb.WriteString(" ")
			sb.WriteString(colorize("P&L n/a", ansiDim))
			continue
		}

		price, dir, ok := v.book.Quote(inst)
		if !ok {
			sb.WriteString(colorize("--", ansiYellow))
		} else {
			col := ansiYellow
			switch dir {
			case domain.DirectionUp:
				col = ansiGreen
			case domain.DirectionDown:
				col = ansiRed
			}
			sb.WriteString(colorize(fmt.Sprintf("%.2f", price), col))
		}

		sb.WriteString(" ")
		pnl, ok := domain.UnrealizedFor(inst, v.orders, v.book)
		if !ok {
			sb.WriteString(colorize("P&L n/a", ansiDim))
			continue
		}
		col := ansiYellow
		switch {
		case pnl > 0:
			col = ansiGreen
		case pnl < 0:
			col = ansiRed
		}
		sb.WriteString(colorize(fmt.Sprintf("P&L %+.2f", pnl), col))
	}

	total, unpriced := domain.AccountPnL(v.orders, v.book, v.realized)
	totalStr := fmt.Sprintf("total %+.2f", total)
	if unpriced > 0 {
		// some open orders still have no price; the figure is partial
		totalStr += "~"
	}
	col := ansiYellow
	switch {
	case total > 0:
		col = ansiGreen
	case total < 0:
		col = ansiRed
	}
	sb.WriteString(colorize("  |  ", ansiDim))
	sb.WriteString(colorize(totalStr, col))

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

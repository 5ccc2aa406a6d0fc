package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/pirosb3/feedconsole/config"
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// RenderOrderBook prints the symbol, the timestamp and the top levels of each side.
func RenderOrderBook(w io.Writer, u OrderBookUpdate) error {
	return renderOrderBook(w, u, config.DefaultDepth)
}

// OrderBookRenderer is RenderOrderBook with a different number of levels per side.
func OrderBookRenderer(depth int) Renderer[OrderBookUpdate] {
	return func(w io.Writer, u OrderBookUpdate) error {
		return renderOrderBook(w, u, depth)
	}
}

func renderOrderBook(w io.Writer, u OrderBookUpdate, depth int) error {
	var b strings.Builder

	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintf(&b, "Order Book Update - %s\n", u.Symbol)
	fmt.Fprintf(&b, "Timestamp: %s\n", u.Timestamp)
	fmt.Fprintln(&b, lightRule)

	fmt.Fprintln(&b, "BIDS:")
	writeLevels(&b, topLevels(u.Bids, depth))

	fmt.Fprintln(&b, "\nASKS:")
	writeLevels(&b, topLevels(u.Asks, depth))

	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintln(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLevels(b *strings.Builder, levels []Level) {
	for _, l := range levels {
		fmt.Fprintf(b, "  %10s : %s\n", l.Price, l.Quantity)
	}
}

// RenderTrade prints a trade on a single line.
func RenderTrade(w io.Writer, t TradeEvent) error {
	_, err := fmt.Fprintf(w, "TRADE: %s | Price: $%s | Qty: %s | Side: %s | ID: %s\n",
		t.Symbol, t.Price, t.Quantity, t.AggressorSide, t.TradeID)
	return err
}

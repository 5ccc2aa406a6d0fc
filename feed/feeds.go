package feed

import (
	"io"

	"github.com/pirosb3/feedconsole/config"
)

const (
	MarketDataFeed = "market_data"
	TradesFeed     = "trades"
)

// NewMarketData subscribes to order book updates.
func NewMarketData(cfg config.Config, out io.Writer, opts Options) *Subscriber[OrderBookUpdate] {
	opts.Policy = cfg.DecodePolicy
	depth := cfg.Depth
	if depth <= 0 {
		depth = config.DefaultDepth
	}
	return NewSubscriber[OrderBookUpdate](MarketDataFeed, cfg.MarketData, DecodeOrderBook, OrderBookRenderer(depth), out, opts)
}

// NewTrades subscribes to executed trades and tracks the last price per symbol.
func NewTrades(cfg config.Config, out io.Writer, opts Options) *Subscriber[TradeEvent] {
	opts.Policy = cfg.DecodePolicy
	s := NewSubscriber[TradeEvent](TradesFeed, cfg.Trades, DecodeTrade, RenderTrade, out, opts)
	s.observe = func(t TradeEvent) {
		s.metrics.LastTradePrice(t.Symbol, t.Price.Decimal().InexactFloat64())
	}
	return s
}

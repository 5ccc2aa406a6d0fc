package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedconsole"

// Collector holds the per-feed counters. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	received         *prometheus.CounterVec
	rendered         *prometheus.CounterVec
	decodeErrors     *prometheus.CounterVec
	connectionErrors *prometheus.CounterVec
	connected        *prometheus.GaugeVec
	lastTradePrice   *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages read from a feed connection.",
		}, []string{"feed"}),
		rendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rendered_total",
			Help:      "Messages decoded and written to the console.",
		}, []string{"feed"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Messages that were not well-formed.",
		}, []string{"feed"}),
		connectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Failed dials and dropped connections.",
		}, []string{"feed"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_connected",
			Help:      "1 while the feed connection is open.",
		}, []string{"feed"}),
		lastTradePrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_trade_price",
			Help:      "Price of the most recent trade per symbol.",
		}, []string{"symbol"}),
	}
	c.registry.MustRegister(
		c.received,
		c.rendered,
		c.decodeErrors,
		c.connectionErrors,
		c.connected,
		c.lastTradePrice,
	)
	return c
}

func (c *Collector) Received(feed string) {
	if c == nil {
		return
	}
	c.received.WithLabelValues(feed).Inc()
}

func (c *Collector) Rendered(feed string) {
	if c == nil {
		return
	}
	c.rendered.WithLabelValues(feed).Inc()
}

func (c *Collector) DecodeError(feed string) {
	if c == nil {
		return
	}
	c.decodeErrors.WithLabelValues(feed).Inc()
}

func (c *Collector) ConnectionError(feed string) {
	if c == nil {
		return
	}
	c.connectionErrors.WithLabelValues(feed).Inc()
}

func (c *Collector) SetConnected(feed string, up bool) {
	if c == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	c.connected.WithLabelValues(feed).Set(v)
}

func (c *Collector) LastTradePrice(symbol string, price float64) {
	if c == nil {
		return
	}
	c.lastTradePrice.WithLabelValues(symbol).Set(price)
}

// Handler serves the collector's registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

package feed

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pirosb3/feedconsole/config"
	"github.com/pirosb3/feedconsole/datasource"
	"github.com/pirosb3/feedconsole/feedtest"
	"github.com/pirosb3/feedconsole/metrics"
)

const (
	bookBTC  = `{"symbol":"BTC-USD","timestamp":"2024-01-01T00:00:00Z","bids":[["100.5",2],["100.4",3]],"asks":[["100.6",1]]}`
	bookETH  = `{"symbol":"ETH-USD","timestamp":"2024-01-01T00:00:01Z","bids":[["3500.00","1.00000000"]],"asks":[["3500.50","2.00000000"]]}`
	tradeETH = `{"symbol":"ETH-USD","price":"3500.00","quantity":1.5,"aggressor_side":"BUY","trade_id":"T123"}`
	tradeBTC = `{"symbol":"BTC-USD","price":"42000.10","quantity":0.25,"aggressor_side":"SELL","trade_id":"T124"}`
)

// syncBuffer is written by the subscriber goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func endpointOf(srv *feedtest.Server) config.Endpoint {
	return config.Endpoint{Scheme: "ws", Host: srv.Host(), Port: srv.Port(), Path: "/"}
}

func testConfig(marketData, trades config.Endpoint) config.Config {
	cfg := config.Default()
	cfg.MarketData = marketData
	cfg.Trades = trades
	return cfg
}

func runAsync(ctx context.Context, run func(context.Context) error) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- run(ctx) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("subscriber did not stop")
		return nil
	}
}

func TestSubscriber_RendersInArrivalOrder(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Serve(bookBTC, bookETH))
	out := &syncBuffer{}
	logger, _ := logtest.NewNullLogger()

	s := NewMarketData(testConfig(endpointOf(srv), config.Endpoint{}), out, Options{Logger: logger})
	assert.Equal(t, MarketDataFeed, s.Name())

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, s.Run)

	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "Order Book Update") == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitErr(t, errc))

	got := out.String()
	assert.Less(t, strings.Index(got, "Order Book Update - BTC-USD"), strings.Index(got, "Order Book Update - ETH-USD"))
	assert.Contains(t, got, "       100.5 : 2\n")
	assert.Contains(t, got, "   3500.50 : 2.00000000\n")
}

func TestSubscriber_DecodeErrorIsFatal(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Serve(tradeETH, `{"price":"1","quantity":1,"aggressor_side":"BUY","trade_id":"T9"}`, tradeBTC))
	out := &syncBuffer{}
	logger, hook := logtest.NewNullLogger()

	s := NewTrades(testConfig(config.Endpoint{}, endpointOf(srv)), out, Options{Logger: logger})

	err := waitErr(t, runAsync(context.Background(), s.Run))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, TradesFeed, decodeErr.Feed)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, decodeErr.Payload, `"trade_id":"T9"`)

	assert.Contains(t, out.String(), "ID: T123")
	assert.NotContains(t, out.String(), "T124", "messages after a fatal decode error are not rendered")

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, log.ErrorLevel, last.Level)
	assert.Equal(t, TradesFeed, last.Data["feed"])
}

func TestSubscriber_DecodeSkipContinues(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Serve(tradeETH, `{not json`, tradeBTC))
	out := &syncBuffer{}
	logger, hook := logtest.NewNullLogger()

	cfg := testConfig(config.Endpoint{}, endpointOf(srv))
	cfg.DecodePolicy = config.DecodeSkip
	s := NewTrades(cfg, out, Options{Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, s.Run)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ID: T124")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitErr(t, errc))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"TRADE: ETH-USD | Price: $3500.00 | Qty: 1.5 | Side: BUY | ID: T123",
		"TRADE: BTC-USD | Price: $42000.10 | Qty: 0.25 | Side: SELL | ID: T124",
	}, lines)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestSubscriber_ConnectionRefused(t *testing.T) {
	host, port := feedtest.RefusedAddr(t)
	logger, hook := logtest.NewNullLogger()

	s := NewMarketData(testConfig(config.Endpoint{Host: host, Port: port}, config.Endpoint{}), &syncBuffer{}, Options{Logger: logger})

	err := s.Run(context.Background())

	var connErr *datasource.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, MarketDataFeed, connErr.Feed)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
}

func TestSubscriber_DroppedMidStream(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Drop(tradeETH))
	out := &syncBuffer{}
	logger, _ := logtest.NewNullLogger()

	s := NewTrades(testConfig(config.Endpoint{}, endpointOf(srv)), out, Options{Logger: logger})

	err := waitErr(t, runAsync(context.Background(), s.Run))

	var connErr *datasource.ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Contains(t, out.String(), "ID: T123")
}

func TestSubscriber_CancelWhileWaiting(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Serve())
	logger, _ := logtest.NewNullLogger()

	s := NewTrades(testConfig(config.Endpoint{}, endpointOf(srv)), &syncBuffer{}, Options{Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, s.Run)

	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.NoError(t, waitErr(t, errc))
}

func TestSubscriber_Metrics(t *testing.T) {
	srv := feedtest.NewServer(t, feedtest.Serve(tradeETH, tradeBTC))
	out := &syncBuffer{}
	logger, _ := logtest.NewNullLogger()
	collector := metrics.NewCollector()

	s := NewTrades(testConfig(config.Endpoint{}, endpointOf(srv)), out, Options{Logger: logger, Metrics: collector})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, s.Run)

	scrape := func() string {
		rec := httptest.NewRecorder()
		collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		return rec.Body.String()
	}

	var body string
	assert.Eventually(t, func() bool {
		body = scrape()
		return strings.Contains(body, `feedconsole_last_trade_price{symbol="BTC-USD"}`)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitErr(t, errc))

	assert.Contains(t, body, `feedconsole_messages_received_total{feed="trades"} 2`)
	assert.Contains(t, body, `feedconsole_feed_connected{feed="trades"} 1`)
	assert.Contains(t, body, `feedconsole_last_trade_price{symbol="BTC-USD"} 42000.1`)
	assert.Contains(t, body, `feedconsole_last_trade_price{symbol="ETH-USD"} 3500`)
}

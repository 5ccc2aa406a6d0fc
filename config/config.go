package config

import (
	"net"
	"net/url"
	"strconv"
)

// Endpoint identifies one streaming source.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// URL returns the websocket address of the endpoint.
func (e Endpoint) URL() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "ws"
	}
	path := e.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(e.Host, strconv.Itoa(e.Port)), Path: path}
	return u.String()
}

// DecodePolicy decides what a subscriber does with a message it cannot decode.
type DecodePolicy int

const (
	// DecodeFatal ends the subscriber on the first malformed message.
	DecodeFatal DecodePolicy = iota
	// DecodeSkip logs the malformed message and keeps reading.
	DecodeSkip
)

func (p DecodePolicy) String() string {
	switch p {
	case DecodeSkip:
		return "skip"
	default:
		return "fatal"
	}
}

// ExitPolicy decides whether one failed feed takes the other one down with it.
type ExitPolicy int

const (
	// WaitAll lets surviving feeds run until they end on their own or are interrupted.
	WaitAll ExitPolicy = iota
	// ExitOnFirstFailure cancels every feed as soon as one of them fails.
	ExitOnFirstFailure
)

func (p ExitPolicy) String() string {
	switch p {
	case ExitOnFirstFailure:
		return "exit-on-first-failure"
	default:
		return "wait-all"
	}
}

type Config struct {
	MarketData Endpoint
	Trades     Endpoint

	// Depth is the number of levels rendered per book side.
	Depth int

	DecodePolicy DecodePolicy
	ExitPolicy   ExitPolicy

	// MetricsAddr is where /metrics is served. Empty disables the listener.
	MetricsAddr string
}

const (
	MarketDataPort = 8081
	TradesPort     = 8082
	DefaultDepth   = 5
	MetricsAddr    = "localhost:9108"
)

// Default returns the fixed settings the client runs with.
func Default() Config {
	return Config{
		MarketData:   Endpoint{Scheme: "ws", Host: "localhost", Port: MarketDataPort, Path: "/"},
		Trades:       Endpoint{Scheme: "ws", Host: "localhost", Port: TradesPort, Path: "/"},
		Depth:        DefaultDepth,
		DecodePolicy: DecodeFatal,
		ExitPolicy:   WaitAll,
		MetricsAddr:  MetricsAddr,
	}
}

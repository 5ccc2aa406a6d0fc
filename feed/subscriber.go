package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/pirosb3/feedconsole/config"
	"github.com/pirosb3/feedconsole/datasource"
	"github.com/pirosb3/feedconsole/metrics"
)

// Decoder turns one wire message into a typed value.
type Decoder[T any] func([]byte) (T, error)

// Renderer writes one decoded value as console text.
type Renderer[T any] func(io.Writer, T) error

type Options struct {
	Policy  config.DecodePolicy
	Dialer  *websocket.Dialer
	Metrics *metrics.Collector
	Logger  *log.Logger
}

// Subscriber owns one feed connection. Every message is decoded and rendered
// before the next one is read.
type Subscriber[T any] struct {
	name     string
	endpoint config.Endpoint
	decode   Decoder[T]
	render   Renderer[T]
	out      io.Writer

	policy  config.DecodePolicy
	dialer  *websocket.Dialer
	metrics *metrics.Collector
	log     *log.Entry

	// observe runs after a message has been written out.
	observe func(T)
}

func NewSubscriber[T any](name string, endpoint config.Endpoint, decode Decoder[T], render Renderer[T], out io.Writer, opts Options) *Subscriber[T] {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Subscriber[T]{
		name:     name,
		endpoint: endpoint,
		decode:   decode,
		render:   render,
		out:      out,
		policy:   opts.Policy,
		dialer:   opts.Dialer,
		metrics:  opts.Metrics,
		log:      logger.WithField("feed", name),
	}
}

func (s *Subscriber[T]) Name() string { return s.name }

// Run connects once and renders messages until the connection fails, a message
// cannot be decoded under DecodeFatal, or ctx is cancelled. Cancellation is not an
// error and returns nil.
func (s *Subscriber[T]) Run(ctx context.Context) error {
	url := s.endpoint.URL()
	logger := s.log.WithField("url", url)

	logger.Infoln("Connecting")
	sock, err := datasource.Dial(ctx, s.dialer, s.name, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.metrics.ConnectionError(s.name)
		logger.WithField("err", err.Error()).Errorln("Could not connect to feed")
		return err
	}
	defer sock.Close()

	s.metrics.SetConnected(s.name, true)
	defer s.metrics.SetConnected(s.name, false)
	logger.Infoln("Connected, waiting for messages")

	var buf bytes.Buffer
	for {
		data, err := sock.Receive()
		if err != nil {
			if ctx.Err() != nil {
				logger.Infoln("Disconnected")
				return nil
			}
			s.metrics.ConnectionError(s.name)
			logger.WithField("err", err.Error()).Errorln("Feed connection lost")
			return err
		}
		s.metrics.Received(s.name)

		msg, err := s.decode(data)
		if err != nil {
			decodeErr := s.decodeError(data, err)
			s.metrics.DecodeError(s.name)
			if s.policy == config.DecodeSkip {
				logger.WithField("err", decodeErr.Err.Error()).Warningln("Skipping malformed message")
				continue
			}
			logger.WithField("err", decodeErr.Err.Error()).WithField("payload", decodeErr.Payload).Errorln("Malformed message, stopping feed")
			return decodeErr
		}

		// One write per message keeps the two feeds from interleaving on the console.
		buf.Reset()
		if err := s.render(&buf, msg); err != nil {
			return fmt.Errorf("%s feed: render: %w", s.name, err)
		}
		if _, err := s.out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("%s feed: write: %w", s.name, err)
		}
		s.metrics.Rendered(s.name)

		if s.observe != nil {
			s.observe(msg)
		}
	}
}

func (s *Subscriber[T]) decodeError(data []byte, err error) *DecodeError {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		decodeErr.Feed = s.name
		return decodeErr
	}
	return &DecodeError{Feed: s.name, Err: err, Payload: excerpt(data)}
}

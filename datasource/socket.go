package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const closeGracePeriod = time.Second

// ConnectionError reports an unreachable endpoint or a connection dropped mid-stream.
type ConnectionError struct {
	Feed string
	URL  string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s feed: connection to %s failed: %v", e.Feed, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FeedSocket is a read-only websocket connection owned by a single subscriber.
type FeedSocket struct {
	feed string
	url  string
	conn *websocket.Conn

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Dial connects to url once. The returned socket is closed when ctx is done, which
// unblocks a pending Receive.
func Dial(ctx context.Context, dialer *websocket.Dialer, feed, url string) (*FeedSocket, error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %s)", err, resp.Status)
		}
		return nil, &ConnectionError{Feed: feed, URL: url, Err: err}
	}

	s := &FeedSocket{
		feed: feed,
		url:  url,
		conn: conn,
		done: make(chan struct{}),
	}
	go s.watch(ctx)
	return s, nil
}

func (s *FeedSocket) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		log.WithField("feed", s.feed).Debugln("Parent context closed, closing connection")
		s.Close()
	case <-s.done:
	}
}

// Receive blocks until the next text or binary message arrives.
func (s *FeedSocket) Receive() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, &ConnectionError{Feed: s.feed, URL: s.url, Err: err}
	}
	return data, nil
}

// Close sends a close frame and releases the connection. It is safe to call more
// than once and concurrently with Receive.
func (s *FeedSocket) Close() error {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); err != nil {
			log.WithField("feed", s.feed).WithField("err", err.Error()).Debugln("Could not send close frame")
		}
		s.closeErr = s.conn.Close()
		close(s.done)
	})
	return s.closeErr
}

func (s *FeedSocket) URL() string { return s.url }

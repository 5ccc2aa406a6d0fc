// Package feedtest provides websocket feed servers for tests.
package feedtest

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Handler drives one accepted feed connection. The connection is closed when it returns.
type Handler func(conn net.Conn)

type Server struct {
	*httptest.Server
}

// NewServer starts a websocket server that runs handler for every client.
func NewServer(t testing.TB, handler Handler) *Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return &Server{Server: srv}
}

// URL returns the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Host and Port split the listener address.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Listener.Addr().String())
	return host
}

func (s *Server) Port() int {
	return s.Listener.Addr().(*net.TCPAddr).Port
}

// Send writes each payload as one text frame.
func Send(conn net.Conn, payloads ...string) error {
	for _, p := range payloads {
		if err := wsutil.WriteServerText(conn, []byte(p)); err != nil {
			return err
		}
	}
	return nil
}

// Hold blocks until the client goes away.
func Hold(conn net.Conn) {
	for {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			return
		}
	}
}

// Serve sends the payloads and then holds the connection open.
func Serve(payloads ...string) Handler {
	return func(conn net.Conn) {
		if err := Send(conn, payloads...); err != nil {
			return
		}
		Hold(conn)
	}
}

// Drop sends the payloads and then closes the connection without a close frame.
func Drop(payloads ...string) Handler {
	return func(conn net.Conn) {
		Send(conn, payloads...)
	}
}

// RefusedAddr returns a loopback host and port with nothing listening on it.
func RefusedAddr(t testing.TB) (string, int) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().(*net.TCPAddr)
	l.Close()
	return addr.IP.String(), addr.Port
}

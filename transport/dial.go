package transport

import (
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// ReadTimeout bounds each non-blocking-style Read poll. The loop that
// drives the client calls Read frequently, so this just needs to be short
// enough that a single read doesn't stall the whole tick.
const ReadTimeout = 50 * time.Millisecond

// DialTransport is a Transport over net.Conn, selecting tcp, tls (ssl) or
// websocket (ws/wss) dialing from the configured scheme. It is safe for
// one writer and one reader to use concurrently, matching the single
// client-task scheduling model the core assumes.
type DialTransport struct {
	Scheme    string // "tcp", "ssl", "ws", "wss"
	TLSConfig *tls.Config
	// WSPath is the request path used for ws/wss dials; "/mqtt" if empty.
	WSPath string

	mu   sync.Mutex
	conn net.Conn
}

// NewDialTransport builds a transport for the given scheme.
func NewDialTransport(scheme string, tlsConfig *tls.Config) *DialTransport {
	return &DialTransport{Scheme: scheme, TLSConfig: tlsConfig}
}

func (t *DialTransport) Connect(hostOrIP string, port int) error {
	addr := net.JoinHostPort(hostOrIP, strconv.Itoa(port))
	conn, err := t.dial(addr)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *DialTransport) dial(addr string) (net.Conn, error) {
	switch t.Scheme {
	case "tcp", "":
		return net.DialTimeout("tcp", addr, 10*time.Second)
	case "ssl", "tls":
		return tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, t.TLSConfig)
	case "ws", "wss":
		path := t.WSPath
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: t.Scheme, Host: addr, Path: path}
		originScheme := "http"
		if t.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: addr}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, err
		}
		cfg.Protocol = []string{"mqtt"}
		if t.Scheme == "wss" {
			cfg.TlsConfig = t.TLSConfig
		}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return ws, nil
	default:
		return net.DialTimeout("tcp", addr, 10*time.Second)
	}
}

func (t *DialTransport) Write(b []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, errors.New("transport: not connected")
	}
	return conn.Write(b)
}

func (t *DialTransport) Read(buf []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, errors.New("transport: not connected")
	}
	_ = conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

func (t *DialTransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *DialTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

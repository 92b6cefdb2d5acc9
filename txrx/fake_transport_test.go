package txrx

import (
	"bytes"
	"sync"
)

// loopbackTransport is a fake transport.Transport over two in-memory
// buffers: writes to one side land in the other's read queue. Used to
// drive a Transmitter against a Receiver in the same process without a
// real socket.
type loopbackTransport struct {
	mu        sync.Mutex
	outbound  bytes.Buffer // bytes this side has written
	inbound   bytes.Buffer // bytes available for this side to read
	connected bool
}

func newLoopbackPair() (a, b *loopbackTransport) {
	a = &loopbackTransport{connected: true}
	b = &loopbackTransport{connected: true}
	return a, b
}

func (t *loopbackTransport) Connect(hostOrIP string, port int) error {
	t.connected = true
	return nil
}

func (t *loopbackTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outbound.Write(p)
}

func (t *loopbackTransport) Read(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inbound.Len() == 0 {
		return 0, nil
	}
	return t.inbound.Read(buf)
}

func (t *loopbackTransport) Stop() error {
	t.connected = false
	return nil
}

func (t *loopbackTransport) Connected() bool { return t.connected }

// deliver moves everything src has written into dst's read queue, as if
// it crossed the network.
func deliver(src, dst *loopbackTransport) {
	src.mu.Lock()
	b := src.outbound.Bytes()
	cp := append([]byte(nil), b...)
	src.outbound.Reset()
	src.mu.Unlock()

	dst.mu.Lock()
	dst.inbound.Write(cp)
	dst.mu.Unlock()
}

type fakeClock struct{ ms int64 }

func (c *fakeClock) NowMillis() int64 { return c.ms }

type memStoreTxRx struct{ data map[string][]byte }

func newMemStoreTxRx() *memStoreTxRx { return &memStoreTxRx{data: make(map[string][]byte)} }

func (s *memStoreTxRx) Get(path string) ([]byte, error) { return s.data[path], nil }
func (s *memStoreTxRx) Put(path string, value []byte) error {
	s.data[path] = append([]byte(nil), value...)
	return nil
}

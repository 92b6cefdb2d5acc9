package txrx

import (
	"io"
	"testing"

	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/pid"
)

func TestSendConnectionRequestGoesToQueueFront(t *testing.T) {
	a, _ := newLoopbackPair()
	tx := NewTransmitter(a, &fakeClock{}, pid.New())

	tx.Publish("topic/a", []byte("hi"), 0, false)
	if err := tx.SendConnectionRequest(ConnectParams{ClientID: "dev1", CleanSession: true, KeepAliveSec: 60}); err != nil {
		t.Fatalf("SendConnectionRequest: %v", err)
	}

	cur := tx.queue.Current()
	if cur == nil || cur.Pkt.Kind() != packet.KindConnect {
		t.Fatalf("queue head = %+v, want CONNECT at front", cur)
	}
}

func TestPublishAllocatesIDOnlyForQoSAboveZero(t *testing.T) {
	tx := NewTransmitter(&loopbackTransport{connected: true}, &fakeClock{}, pid.New())

	id0, err := tx.Publish("t", []byte("x"), 0, false)
	if err != nil {
		t.Fatalf("Publish qos0: %v", err)
	}
	if id0 != 0 {
		t.Fatalf("qos0 id = %d, want 0", id0)
	}

	id1, err := tx.Publish("t", []byte("x"), 1, false)
	if err != nil {
		t.Fatalf("Publish qos1: %v", err)
	}
	if id1 == 0 {
		t.Fatalf("qos1 id = 0, want nonzero")
	}
}

func TestPumpDrainsQueueInOrder(t *testing.T) {
	a, b := newLoopbackPair()
	tx := NewTransmitter(a, &fakeClock{}, pid.New())

	tx.Publish("first", []byte("1"), 0, false)
	tx.Publish("second", []byte("2"), 0, false)

	for tx.QueueLen() > 0 {
		if err := tx.Pump(); err != nil {
			t.Fatalf("Pump: %v", err)
		}
	}

	deliver(a, b)
	first, err := packet.Unpack(bytesReaderOf(b))
	if err != nil {
		t.Fatalf("Unpack first: %v", err)
	}
	pub, ok := first.(*packet.PUBLISH)
	if !ok || pub.Topic != "first" {
		t.Fatalf("first packet = %+v, want PUBLISH topic=first", first)
	}
}

func TestSetDupAndRequeueSetsDupFlag(t *testing.T) {
	tx := NewTransmitter(&loopbackTransport{connected: true}, &fakeClock{}, pid.New())
	p := &packet.PUBLISH{Topic: "t", QoS: 1, PacketID: 7, Payload: []byte("x")}
	tx.SetDupAndRequeue(p)
	if !p.Dup {
		t.Fatal("SetDupAndRequeue did not set Dup")
	}
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want 1", tx.QueueLen())
	}
}

func TestRetransmitStaleResendsUnackedPublishWithDup(t *testing.T) {
	a, _ := newLoopbackPair()
	clock := &fakeClock{ms: 1000}
	tx := NewTransmitter(a, clock, pid.New())

	id, err := tx.Publish("topic/a", []byte("hi"), 1, false)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := tx.Pump(); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want 1 (sent, awaiting ack)", tx.QueueLen())
	}

	clock.ms += 5000
	tx.RetransmitStale(10_000)
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d after below-threshold tick, want unchanged 1", tx.QueueLen())
	}

	clock.ms += 6000
	tx.RetransmitStale(10_000)
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d after stale retransmit, want 1 (requeued, not duplicated)", tx.QueueLen())
	}
	o, ok := tx.Find(id)
	if !ok {
		t.Fatalf("Find(%d) after RetransmitStale: not found", id)
	}
	pub, ok := o.Pkt.(*packet.PUBLISH)
	if !ok {
		t.Fatalf("requeued packet type = %T, want *packet.PUBLISH", o.Pkt)
	}
	if !pub.Dup {
		t.Fatal("RetransmitStale did not set Dup on the requeued publish")
	}
	if pub.PacketID != id {
		t.Fatalf("requeued packet id = %d, want unchanged %d", pub.PacketID, id)
	}
}

func TestRetransmitStaleDisabledByNonPositiveTimeout(t *testing.T) {
	a, _ := newLoopbackPair()
	clock := &fakeClock{ms: 1000}
	tx := NewTransmitter(a, clock, pid.New())

	id, err := tx.Publish("topic/a", []byte("hi"), 1, false)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := tx.Pump(); err != nil {
		t.Fatalf("Pump: %v", err)
	}

	clock.ms += 100_000
	tx.RetransmitStale(0)
	cur, ok := tx.Find(id)
	if !ok {
		t.Fatal("queue drained by RetransmitStale(0), want untouched")
	}
	if pub, ok := cur.Pkt.(*packet.PUBLISH); !ok || pub.Dup {
		t.Fatalf("RetransmitStale(0) touched the queued publish, want it left alone")
	}
}

func TestOnKeepaliveTickSendsPingAfterIdle(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	tx := NewTransmitter(&loopbackTransport{connected: true}, clock, pid.New())
	tx.Status.LastClientActivity = 0

	tx.OnKeepaliveTick(500)
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want 1 after idle keepalive tick", tx.QueueLen())
	}
	if !tx.Status.PingOutstanding {
		t.Fatal("PingOutstanding not set after keepalive ping")
	}

	tx.OnKeepaliveTick(500)
	if tx.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want unchanged 1 while a ping is outstanding", tx.QueueLen())
	}
}

// bytesReaderOf drains everything buffered in t's inbound side into a
// fresh reader, for assertions against what arrived.
func bytesReaderOf(t *loopbackTransport) *packetBufReader {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := append([]byte(nil), t.inbound.Bytes()...)
	return &packetBufReader{buf: b}
}

type packetBufReader struct {
	buf []byte
	off int
}

func (r *packetBufReader) Read(p []byte) (int, error) {
	if r.off >= len(r.buf) {
		return 0, io.EOF
	}
	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

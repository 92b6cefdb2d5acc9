package txrx

import (
	"testing"

	"github.com/nodewire/mqttc/packet"
)

func outbound(id uint16) *OutboundPacket {
	return &OutboundPacket{Pkt: packet.NewPUBACK(id)}
}

func TestQueuePushBackOrdersFIFO(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.PushBack(outbound(2))
	q.PushBack(outbound(3))

	if q.Current().ID() != 1 {
		t.Fatalf("Current().ID() = %d, want 1", q.Current().ID())
	}
	q.Advance()
	if q.Current().ID() != 2 {
		t.Fatalf("Current().ID() = %d, want 2", q.Current().ID())
	}
}

func TestQueuePushFrontSendsBeforeAnythingQueuedAlready(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.PushBack(outbound(2))

	q.PushFront(outbound(99))
	if q.Current().ID() != 99 {
		t.Fatalf("Current().ID() = %d, want 99 at the front of an untouched queue", q.Current().ID())
	}
	q.Advance()
	if q.Current().ID() != 1 {
		t.Fatalf("Current().ID() = %d, want 1 next", q.Current().ID())
	}
}

func TestQueuePushFrontPreservesCursorOverAlreadyDispatchedItems(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.PushBack(outbound(2))
	q.Advance() // id 1 already dispatched; cursor now on id 2

	q.PushFront(outbound(99))
	if q.Current().ID() != 99 {
		t.Fatalf("Current().ID() = %d, want 99 ahead of the unsent id 2", q.Current().ID())
	}
	q.Advance()
	if q.Current().ID() != 2 {
		t.Fatalf("Current().ID() = %d, want 2 next: the already-dispatched id 1 must not be sent again", q.Current().ID())
	}
}

func TestQueueRemoveCurrentDoesNotAdvance(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.PushBack(outbound(2))

	q.RemoveCurrent()
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	if q.Current().ID() != 2 {
		t.Fatalf("Current().ID() = %d, want 2 to slide into the cursor", q.Current().ID())
	}
}

func TestQueueCurrentNilWhenExhausted(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.Advance()
	if q.Current() != nil {
		t.Fatal("Current() should be nil once the cursor passes the last item")
	}
}

func TestQueueFind(t *testing.T) {
	var q Queue
	q.PushBack(outbound(1))
	q.PushBack(outbound(2))

	o, ok := q.Find(2)
	if !ok || o.ID() != 2 {
		t.Fatalf("Find(2) = %+v, %v", o, ok)
	}
	if _, ok := q.Find(99); ok {
		t.Fatal("Find(99) should report not found")
	}
}

func TestQueueIDsInUseSkipsZero(t *testing.T) {
	var q Queue
	q.PushBack(&OutboundPacket{Pkt: &packet.PINGREQ{}})
	q.PushBack(outbound(5))

	ids := q.IDsInUse()
	if len(ids) != 1 || !ids[5] {
		t.Fatalf("IDsInUse() = %v, want {5: true}", ids)
	}
}

func TestOutboundPacketRemovable(t *testing.T) {
	cases := []struct {
		name string
		pkt  packet.Packet
		want bool
	}{
		{"pingreq", &packet.PINGREQ{}, true},
		{"qos0 publish", &packet.PUBLISH{Topic: "t", QoS: 0}, true},
		{"puback", packet.NewPUBACK(1), true},
		{"pubcomp", packet.NewPUBCOMP(1), true},
		{"qos1 publish awaiting ack", &packet.PUBLISH{Topic: "t", QoS: 1, PacketID: 1}, false},
		{"pubrec awaiting pubrel", packet.NewPUBREC(1), false},
	}
	for _, c := range cases {
		o := &OutboundPacket{Pkt: c.pkt}
		if got := o.Removable(); got != c.want {
			t.Errorf("%s: Removable() = %v, want %v", c.name, got, c.want)
		}
	}
}

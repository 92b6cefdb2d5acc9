// Package txrx pairs the transmitter and receiver halves of the protocol
// pipeline around a shared transport: outbound queueing and retransmission
// on one side, frame assembly and acknowledgement dispatch on the other.
package txrx

import (
	"github.com/nodewire/mqttc/packet"
)

// OutboundPacket is a queued Packet plus bookkeeping for partial sends and
// retransmission.
type OutboundPacket struct {
	Pkt          packet.Packet
	LastSentUnix int64 // unix millis of the last byte written for this packet
	BytesSent    int

	wire []byte // built lazily by Transmitter.Pump on first write attempt
}

// ID reports the packet id, 0 for packets that carry none.
func (o *OutboundPacket) ID() uint16 { return o.Pkt.ID() }

// Removable reports whether this packet can be dropped once fully sent:
// id-less packets (PINGREQ, DISCONNECT, QoS 0 PUBLISH) and completed
// acknowledgements (PUBACK, PUBCOMP) are removable; everything still
// awaiting a reply from the broker is not.
func (o *OutboundPacket) Removable() bool {
	if o.Pkt.ID() == 0 {
		return true
	}
	switch o.Pkt.Kind() {
	case packet.KindPuback, packet.KindPubcomp:
		return true
	}
	return false
}

// Queue is an ordered sequence of OutboundPacket with a cursor into the
// packet currently being transmitted. Supports push-back (normal
// enqueue), push-front (CONNECT priority), advance, and removing the
// packet the cursor currently points at — the deque-plus-cursor shape the
// reference client's queue mixes into an intrusive list, reimplemented
// here as a plain slice.
type Queue struct {
	items  []*OutboundPacket
	cursor int
}

// PushBack appends a packet to the tail of the queue.
func (q *Queue) PushBack(o *OutboundPacket) {
	q.items = append(q.items, o)
}

// PushFront inserts a packet at the cursor, ahead of every packet not yet
// sent, for CONNECT, which must reach the broker before any packet queued
// earlier. Packets already sent and awaiting acknowledgement stay behind
// the cursor and are not sent again.
func (q *Queue) PushFront(o *OutboundPacket) {
	q.items = append(q.items, nil)
	copy(q.items[q.cursor+1:], q.items[q.cursor:])
	q.items[q.cursor] = o
}

// Current returns the packet the cursor points at, or nil if the queue is
// exhausted.
func (q *Queue) Current() *OutboundPacket {
	if q.cursor >= len(q.items) {
		return nil
	}
	return q.items[q.cursor]
}

// Advance moves the cursor to the next queued packet. Each OutboundPacket
// keeps its own BytesSent, so the new current packet starts from its own
// count.
func (q *Queue) Advance() {
	q.cursor++
}

// RemoveCurrent drops the packet the cursor points at, without advancing
// past it — the next packet slides into the cursor's position.
func (q *Queue) RemoveCurrent() {
	if q.cursor >= len(q.items) {
		return
	}
	q.items = append(q.items[:q.cursor], q.items[q.cursor+1:]...)
}

// Len reports how many packets remain queued, including already-sent ones
// still awaiting acknowledgement.
func (q *Queue) Len() int { return len(q.items) }

// Find returns the outbound packet carrying id, if any is still queued.
func (q *Queue) Find(id uint16) (*OutboundPacket, bool) {
	for _, o := range q.items {
		if o.Pkt.ID() == id {
			return o, true
		}
	}
	return nil, false
}

// IDsInUse reports every non-zero packet id currently queued, for the PID
// allocator's collision check.
func (q *Queue) IDsInUse() map[uint16]bool {
	ids := make(map[uint16]bool, len(q.items))
	for _, o := range q.items {
		if id := o.Pkt.ID(); id != 0 {
			ids[id] = true
		}
	}
	return ids
}

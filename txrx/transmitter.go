package txrx

import (
	"errors"
	"log"

	"github.com/nodewire/mqttc/metrics"
	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/pid"
	"github.com/nodewire/mqttc/transport"
)

// ErrNotConnected reports an operation attempted without a live
// transport. No Transmitter method returns it.
var ErrNotConnected = errors.New("txrx: transport not connected")

// ConnectParams carries what Transmitter needs to build a CONNECT packet;
// the client facade owns the full Config and narrows it down here.
type ConnectParams struct {
	ClientID     string
	CleanSession bool
	KeepAliveSec uint16
	Username     string
	Password     string
	HasUsername  bool
	HasPassword  bool
	Will         *packet.Will
}

// Transmitter owns the outbound queue and drives writes to the transport.
// All of its methods except pump-internal helpers are meant to be called
// under the caller's single client-wide mutex, matching the reference
// client's single-writer assumption.
type Transmitter struct {
	Transport transport.Transport
	Clock     transport.Clock
	PIDs      *pid.Registry

	queue  Queue
	Status Status

	clientID string
}

// NewTransmitter builds a Transmitter over the given transport, clock and
// packet id registry.
func NewTransmitter(t transport.Transport, clock transport.Clock, pids *pid.Registry) *Transmitter {
	return &Transmitter{Transport: t, Clock: clock, PIDs: pids}
}

// SendConnectionRequest builds a CONNECT from params and pushes it to the
// front of the queue, ahead of anything already queued.
func (tx *Transmitter) SendConnectionRequest(p ConnectParams) error {
	tx.clientID = p.ClientID
	c := &packet.CONNECT{
		ClientID:     p.ClientID,
		CleanSession: p.CleanSession,
		KeepAliveSec: p.KeepAliveSec,
		Username:     p.Username,
		Password:     p.Password,
		HasUsername:  p.HasUsername,
		HasPassword:  p.HasPassword,
		Will:         p.Will,
	}
	if _, err := c.Build(); err != nil {
		log.Printf("txrx: connect build failed: client_id=%s, error=%v", p.ClientID, err)
		return err
	}
	tx.queue.PushFront(&OutboundPacket{Pkt: c})
	return nil
}

// Publish builds and enqueues a PUBLISH, allocating a packet id for QoS >
// 0. Returns the chosen id (0 for QoS 0).
func (tx *Transmitter) Publish(topic string, payload []byte, qos uint8, retain bool) (uint16, error) {
	p := &packet.PUBLISH{Topic: topic, QoS: qos, Retain: retain, Payload: payload}
	if qos > 0 {
		p.PacketID = tx.PIDs.Next()
	}
	if _, err := p.Build(); err != nil {
		if qos > 0 {
			tx.PIDs.Release(p.PacketID)
		}
		log.Printf("txrx: publish build failed: client_id=%s, topic=%s, error=%v", tx.clientID, topic, err)
		return 0, err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
	log.Printf("txrx: publish queued: client_id=%s, topic=%s, qos=%d, size=%d", tx.clientID, topic, qos, len(payload))
	return p.PacketID, nil
}

// PublishStreamed is Publish for a payload sourced from a pull callback
// rather than an inline slice, for messages larger than any single write
// buffer should hold in memory at once.
func (tx *Transmitter) PublishStreamed(topic string, src packet.PayloadSource, payloadLen int, qos uint8, retain bool) (uint16, error) {
	p := &packet.PUBLISH{Topic: topic, QoS: qos, Retain: retain, Source: src, PayloadLen: payloadLen}
	if qos > 0 {
		p.PacketID = tx.PIDs.Next()
	}
	if _, err := p.Build(); err != nil {
		if qos > 0 {
			tx.PIDs.Release(p.PacketID)
		}
		return 0, err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
	return p.PacketID, nil
}

// Subscribe builds and enqueues a SUBSCRIBE, allocating a packet id.
func (tx *Transmitter) Subscribe(topics []packet.TopicFilter) (uint16, error) {
	var list packet.SubscriptionList
	for _, tf := range topics {
		if err := list.Add(tf.Topic(), tf.QoS); err != nil {
			return 0, err
		}
	}
	s := &packet.SUBSCRIBE{PacketID: tx.PIDs.Next(), Subscriptions: list}
	if _, err := s.Build(); err != nil {
		tx.PIDs.Release(s.PacketID)
		return 0, err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: s})
	return s.PacketID, nil
}

// Unsubscribe builds and enqueues an UNSUBSCRIBE, allocating a packet id.
func (tx *Transmitter) Unsubscribe(topics []string) (uint16, error) {
	var list packet.SubscriptionList
	for _, t := range topics {
		if err := list.Add(t, 0); err != nil {
			return 0, err
		}
	}
	u := &packet.UNSUBSCRIBE{PacketID: tx.PIDs.Next(), Topics: list}
	if _, err := u.Build(); err != nil {
		tx.PIDs.Release(u.PacketID)
		return 0, err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: u})
	return u.PacketID, nil
}

// Disconnect enqueues a DISCONNECT.
func (tx *Transmitter) Disconnect() error {
	d := &packet.DISCONNECT{}
	if _, err := d.Build(); err != nil {
		return err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: d})
	return nil
}

// Ping enqueues a PINGREQ and marks one outstanding.
func (tx *Transmitter) Ping() error {
	p := &packet.PINGREQ{}
	if _, err := p.Build(); err != nil {
		return err
	}
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
	tx.Status.Apply(Update{PingOutstanding: boolPtr(true)})
	return nil
}

// enqueueAck is used by the Receiver to queue PUBACK/PUBREC/PUBREL/PUBCOMP
// replies without going through the public send operations above, which
// all allocate a fresh id.
func (tx *Transmitter) enqueueAck(p packet.Packet) {
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
}

// Requeue pushes an already-built packet back onto the queue unchanged,
// used by the receiver to turn a PUBREC into a PUBREL carrying the same
// id (MQTT v3.1.1 QoS 2, step 2).
func (tx *Transmitter) Requeue(p packet.Packet) {
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
}

// SetDupAndRequeue marks a held QoS 1/2 PUBLISH for retransmission: sets
// DUP and re-enqueues it, preserving its packet id.
func (tx *Transmitter) SetDupAndRequeue(p *packet.PUBLISH) {
	p.SetDup()
	tx.queue.PushBack(&OutboundPacket{Pkt: p})
}

// Pump writes as much of the current packet as the transport accepts in
// one call. When the packet is fully sent it is dropped if removable, or
// the cursor advances past it (awaiting its acknowledgement) otherwise.
func (tx *Transmitter) Pump() error {
	cur := tx.queue.Current()
	if cur == nil {
		return nil
	}
	if cur.wire == nil {
		wire, err := cur.Pkt.Build()
		if err != nil {
			return err
		}
		cur.wire = wire
	}
	wire := cur.wire
	if cur.BytesSent >= len(wire) {
		tx.finishCurrent(cur)
		return nil
	}

	var chunk []byte
	var err error
	if pub, ok := cur.Pkt.(*packet.PUBLISH); ok {
		chunk, _, err = pub.ChunkAt(wire, cur.BytesSent)
		if err != nil {
			return err
		}
	} else {
		chunk = wire[cur.BytesSent:]
	}

	n, err := tx.Transport.Write(chunk)
	if n > 0 {
		cur.BytesSent += n
		metrics.BytesSent.Add(float64(n))
		now := tx.Clock.NowMillis()
		tx.Status.Apply(Update{LastClientActivity: int64Ptr(now)})
	}
	if err != nil {
		return err
	}
	if cur.BytesSent >= len(wire) {
		tx.finishCurrent(cur)
	}
	return nil
}

func (tx *Transmitter) finishCurrent(cur *OutboundPacket) {
	metrics.PacketsSent.Inc()
	if cur.Removable() {
		tx.queue.RemoveCurrent()
		return
	}
	cur.LastSentUnix = tx.Clock.NowMillis()
	tx.queue.Advance()
}

// RetransmitStale re-sends every queued QoS 1/2 PUBLISH that was fully
// sent more than timeoutMs ago without yet being acknowledged: it is
// pulled out of the queue, has DUP set, and is pushed to the back to be
// sent again. A non-positive timeoutMs disables this check, matching the
// reference configuration's message_retransmit_timeout knob.
func (tx *Transmitter) RetransmitStale(timeoutMs int64) {
	if timeoutMs <= 0 {
		return
	}
	now := tx.Clock.NowMillis()
	var stale []*packet.PUBLISH
	for _, o := range tx.queue.items {
		pub, ok := o.Pkt.(*packet.PUBLISH)
		if !ok || pub.PacketID == 0 {
			continue
		}
		if o.LastSentUnix == 0 || now-o.LastSentUnix < timeoutMs {
			continue
		}
		stale = append(stale, pub)
	}
	for _, pub := range stale {
		log.Printf("txrx: retransmitting unacked publish: client_id=%s, id=%d", tx.clientID, pub.PacketID)
		tx.RemoveByID(pub.PacketID)
		tx.SetDupAndRequeue(pub)
	}
}

// OnKeepaliveTick enqueues a PINGREQ if keep_alive_ms have passed without
// client activity and none is already outstanding.
func (tx *Transmitter) OnKeepaliveTick(keepAliveMillis int64) {
	if keepAliveMillis <= 0 || tx.Status.PingOutstanding {
		return
	}
	now := tx.Clock.NowMillis()
	if now-tx.Status.LastClientActivity < keepAliveMillis {
		return
	}
	if err := tx.Ping(); err != nil {
		log.Printf("txrx: keepalive ping failed: client_id=%s, error=%v", tx.clientID, err)
	}
}

// Find returns the outbound packet carrying id, if still queued.
func (tx *Transmitter) Find(id uint16) (*OutboundPacket, bool) { return tx.queue.Find(id) }

// RemoveByID drops the queued packet carrying id, wherever it sits in the
// queue (not necessarily the cursor), used once its acknowledgement
// chain completes.
func (tx *Transmitter) RemoveByID(id uint16) {
	for i, o := range tx.queue.items {
		if o.Pkt.ID() == id {
			tx.queue.items = append(tx.queue.items[:i], tx.queue.items[i+1:]...)
			if tx.queue.cursor > i {
				tx.queue.cursor--
			}
			return
		}
	}
}

// QueueLen reports how many packets remain queued.
func (tx *Transmitter) QueueLen() int { return tx.queue.Len() }

package txrx

import (
	"bytes"
	"errors"
	"io"
	"log"

	"github.com/nodewire/mqttc/fsm"
	"github.com/nodewire/mqttc/metrics"
	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/pid"
	"github.com/nodewire/mqttc/transport"
)

// readChunkSize bounds a single transport.Read call; frame reassembly
// across calls means this need not fit a whole packet.
const readChunkSize = 4096

// Receiver reads bytes from the transport, reassembles whole control
// packets, and dispatches each to its protocol handler. It shares a
// Transmitter with its owning client so acknowledgement replies are
// queued through the one outbound path.
type Receiver struct {
	Transport  transport.Transport
	Clock      transport.Clock
	PIDs       *pid.Registry
	Tx         *Transmitter
	InFlight   *InFlight
	Callbacks  Callbacks
	RaiseEvent func(fsm.Event)

	buf []byte
	tmp [readChunkSize]byte
}

func (r *Receiver) raise(e fsm.Event) {
	if r.RaiseEvent != nil {
		r.RaiseEvent(e)
	}
}

// Pump reads whatever the transport currently has available, appends it
// to the reassembly buffer, and dispatches every whole packet the buffer
// now contains. A trailing partial packet is left in the buffer for the
// next Pump.
func (r *Receiver) Pump() error {
	n, err := r.Transport.Read(r.tmp[:])
	if n > 0 {
		r.buf = append(r.buf, r.tmp[:n]...)
		metrics.BytesReceived.Add(float64(n))
		now := r.Clock.NowMillis()
		r.Tx.Status.Apply(Update{LastServerActivity: int64Ptr(now)})
	}
	if err != nil {
		return err
	}

	for {
		consumed, pkt, perr := tryParsePacket(r.buf)
		if perr != nil {
			r.buf = nil
			r.raise(fsm.BadProtocol)
			r.Callbacks.errorf(perr)
			return perr
		}
		if pkt == nil {
			return nil // incomplete frame, wait for more bytes
		}
		r.buf = r.buf[consumed:]
		metrics.PacketsReceived.Inc()
		r.dispatch(pkt)
	}
}

// tryParsePacket attempts to decode one control packet from the front of
// buf. It returns (0, nil, nil) when buf doesn't yet hold a whole frame,
// and never mutates buf itself — the caller advances past what was
// consumed only on success.
func tryParsePacket(buf []byte) (consumed int, pkt packet.Packet, err error) {
	if len(buf) == 0 {
		return 0, nil, nil
	}
	reader := bytes.NewReader(buf)
	pkt, err = packet.Unpack(reader)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	return len(buf) - reader.Len(), pkt, nil
}

func (r *Receiver) dispatch(pkt packet.Packet) {
	switch p := pkt.(type) {
	case *packet.CONNACK:
		r.onConnack(p)
	case *packet.PUBLISH:
		r.onPublish(p)
	case *packet.PUBACK:
		r.onPuback(p)
	case *packet.PUBREC:
		r.onPubrec(p)
	case *packet.PUBREL:
		r.onPubrel(p)
	case *packet.PUBCOMP:
		r.onPubcomp(p)
	case *packet.SUBACK:
		r.onSuback(p)
	case *packet.UNSUBACK:
		r.onUnsuback(p)
	case *packet.PINGRESP:
		r.onPingresp()
	default:
		log.Printf("txrx: dispatch: unhandled packet kind %d", pkt.Kind())
	}
}

func (r *Receiver) onConnack(p *packet.CONNACK) {
	if p.ReturnCode != packet.Accepted {
		log.Printf("txrx: connect refused: code=%s", p.ReturnCode)
		r.raise(fsm.BadProtocol)
		r.Callbacks.connect(p.SessionPresent, p.ReturnCode)
		return
	}
	r.raise(fsm.Connected_)
	r.Callbacks.connect(p.SessionPresent, p.ReturnCode)
}

func (r *Receiver) onPublish(p *packet.PUBLISH) {
	switch p.QoS {
	case 0:
		r.deliver(p)
	case 1:
		r.deliver(p)
		r.Tx.enqueueAck(packet.NewPUBACK(p.PacketID))
	case 2:
		r.InFlight.Put(p)
		r.Tx.enqueueAck(packet.NewPUBREC(p.PacketID))
	}
}

func (r *Receiver) deliver(p *packet.PUBLISH) {
	r.Callbacks.message(Message{
		Topic:      p.Topic,
		Payload:    p.Payload,
		QoS:        p.QoS,
		Retain:     p.Retain,
		Dup:        p.Dup,
		Index:      0,
		Length:     len(p.Payload),
		TotalBytes: len(p.Payload),
	})
}

func (r *Receiver) onPuback(p *packet.PUBACK) {
	if _, ok := r.Tx.Find(p.ID()); !ok {
		r.Callbacks.errorf(packet.ErrAckOfUnknown)
		return
	}
	r.Tx.RemoveByID(p.ID())
	r.PIDs.Release(p.ID())
	r.raise(fsm.Published)
	r.Callbacks.publish(p.ID())
}

func (r *Receiver) onPubrec(p *packet.PUBREC) {
	if _, ok := r.Tx.Find(p.ID()); !ok {
		r.Callbacks.errorf(packet.ErrAckOfUnknown)
		return
	}
	r.Tx.RemoveByID(p.ID())
	r.Tx.Requeue(packet.NewPUBREL(p.ID()))
}

func (r *Receiver) onPubrel(p *packet.PUBREL) {
	if held, ok := r.InFlight.Take(p.ID()); ok {
		r.deliver(held)
	}
	if o, ok := r.Tx.Find(p.ID()); ok && o.Pkt.Kind() == packet.KindPubrec {
		r.Tx.RemoveByID(p.ID())
	}
	r.Tx.enqueueAck(packet.NewPUBCOMP(p.ID()))
}

func (r *Receiver) onPubcomp(p *packet.PUBCOMP) {
	r.Tx.RemoveByID(p.ID())
	r.PIDs.Release(p.ID())
	r.raise(fsm.Published)
	r.Callbacks.publish(p.ID())
}

func (r *Receiver) onSuback(p *packet.SUBACK) {
	r.Tx.RemoveByID(p.ID())
	r.PIDs.Release(p.ID())
	r.raise(fsm.Subscribed)
	r.Callbacks.subscribe(p.ID(), p.Results)
}

func (r *Receiver) onUnsuback(p *packet.UNSUBACK) {
	r.Tx.RemoveByID(p.ID())
	r.PIDs.Release(p.ID())
	r.raise(fsm.Unsubscribed)
	r.Callbacks.unsubscribe(p.ID())
}

func (r *Receiver) onPingresp() {
	r.Tx.Status.Apply(Update{PingOutstanding: boolPtr(false)})
	r.Callbacks.pingResp()
}

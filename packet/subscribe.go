package packet

import "bytes"

// SUBSCRIBE requests one or more topic subscriptions (MQTT v3.1.1 §3.8);
// reserved flags 0x02.
type SUBSCRIBE struct {
	PacketID      uint16
	Subscriptions SubscriptionList
}

func (p *SUBSCRIBE) Kind() byte     { return KindSubscribe }
func (p *SUBSCRIBE) ID() uint16     { return p.PacketID }

// Build serializes the SUBSCRIBE packet: packet id, then per topic a
// length-prefixed topic filter and a QoS byte.
func (p *SUBSCRIBE) Build() ([]byte, error) {
	if p.PacketID == 0 {
		return nil, ErrMalformedParameter
	}
	if p.Subscriptions.Len() == 0 {
		return nil, ErrMalformedParameter
	}
	body := GetBuffer()
	defer PutBuffer(body)
	putUint16(body, p.PacketID)
	for i := 0; i < p.Subscriptions.Len(); i++ {
		tf := p.Subscriptions.At(i)
		if err := putString(body, tf.Topic()); err != nil {
			return nil, err
		}
		body.WriteByte(tf.QoS)
	}

	fh := FixedHeader{Kind: KindSubscribe, QoS: 1, RemainingLength: uint32(body.Len())}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// UNSUBSCRIBE requests removal of one or more topic subscriptions (MQTT
// v3.1.1 §3.10); reserved flags 0x02.
type UNSUBSCRIBE struct {
	PacketID uint16
	Topics   SubscriptionList
}

func (p *UNSUBSCRIBE) Kind() byte { return KindUnsubscribe }
func (p *UNSUBSCRIBE) ID() uint16 { return p.PacketID }

func (p *UNSUBSCRIBE) Build() ([]byte, error) {
	if p.PacketID == 0 {
		return nil, ErrMalformedParameter
	}
	if p.Topics.Len() == 0 {
		return nil, ErrMalformedParameter
	}
	body := GetBuffer()
	defer PutBuffer(body)
	putUint16(body, p.PacketID)
	for i := 0; i < p.Topics.Len(); i++ {
		if err := putString(body, p.Topics.At(i).Topic()); err != nil {
			return nil, err
		}
	}

	fh := FixedHeader{Kind: KindUnsubscribe, QoS: 1, RemainingLength: uint32(body.Len())}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

package packet

import "bytes"

// SUBACK acknowledges a SUBSCRIBE, carrying one result per requested topic
// (MQTT v3.1.1 §3.9): a granted QoS (0/1/2) or SubscribeFailure (0x80).
type SUBACK struct {
	PacketID uint16
	Results  []SubscribeResult
}

func (p *SUBACK) Kind() byte { return KindSuback }
func (p *SUBACK) ID() uint16 { return p.PacketID }

// Build serializes the SUBACK: packet id, then one result byte per topic.
func (p *SUBACK) Build() ([]byte, error) {
	body := &bytes.Buffer{}
	putUint16(body, p.PacketID)
	for _, r := range p.Results {
		body.WriteByte(byte(r))
	}
	fh := FixedHeader{Kind: KindSuback, RemainingLength: uint32(body.Len())}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func decodeSUBACK(body *bytes.Buffer) (*SUBACK, error) {
	id, err := getUint16(body)
	if err != nil {
		return nil, err
	}
	if body.Len() == 0 {
		return nil, ErrMalformedResponse
	}
	results := make([]SubscribeResult, 0, body.Len())
	for body.Len() > 0 {
		b, _ := body.ReadByte()
		if b != 0 && b != 1 && b != 2 && b != byte(SubscribeFailure) {
			return nil, ErrMalformedResponse
		}
		results = append(results, SubscribeResult(b))
	}
	return &SUBACK{PacketID: id, Results: results}, nil
}

// UNSUBACK acknowledges an UNSUBSCRIBE (MQTT v3.1.1 §3.11).
type UNSUBACK struct {
	PacketID uint16
}

func (p *UNSUBACK) Kind() byte { return KindUnsuback }
func (p *UNSUBACK) ID() uint16 { return p.PacketID }

// Build serializes the UNSUBACK: remaining length 2, the packet id.
func (p *UNSUBACK) Build() ([]byte, error) {
	buf := &bytes.Buffer{}
	fh := FixedHeader{Kind: KindUnsuback, RemainingLength: 2}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	putUint16(buf, p.PacketID)
	return buf.Bytes(), nil
}

func decodeUNSUBACK(body *bytes.Buffer) (*UNSUBACK, error) {
	if body.Len() != 2 {
		return nil, ErrMalformedResponse
	}
	id, err := getUint16(body)
	if err != nil {
		return nil, err
	}
	return &UNSUBACK{PacketID: id}, nil
}

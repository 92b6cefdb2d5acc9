package packet

import (
	"bytes"
)

// Connect flag bits (MQTT v3.1.1 §3.1.2.2).
const (
	connectFlagUsername     = 0x80
	connectFlagPassword     = 0x40
	connectFlagWillRetain   = 0x20
	connectFlagWill         = 0x04
	connectFlagCleanSession = 0x02
)

// Will describes a last-will-and-testament message, published by the
// broker if the client disconnects ungracefully.
type Will struct {
	Topic   string
	Payload []byte
	QoS     uint8
	Retain  bool
}

// CONNECT is the client's connection request (MQTT v3.1.1 §3.1).
type CONNECT struct {
	ClientID      string
	CleanSession  bool
	KeepAliveSec  uint16
	Username      string
	Password      string
	HasUsername   bool
	HasPassword   bool
	Will          *Will
}

func (p *CONNECT) Kind() byte        { return KindConnect }
func (p *CONNECT) ID() uint16 { return 0 }

// Build serializes the CONNECT packet into an owned buffer of exact wire
// size.
func (p *CONNECT) Build() ([]byte, error) {
	if len(p.ClientID) == 0 {
		return nil, ErrMalformedParameter
	}

	body := GetBuffer()
	defer PutBuffer(body)

	if err := putString(body, ProtocolName); err != nil {
		return nil, err
	}
	body.WriteByte(ProtocolLevel)

	var flags byte
	if p.CleanSession {
		flags |= connectFlagCleanSession
	}
	if p.Will != nil {
		flags |= connectFlagWill
		flags |= (p.Will.QoS & 0x3) << 3
		if p.Will.Retain {
			flags |= connectFlagWillRetain
		}
	}
	if p.HasUsername {
		flags |= connectFlagUsername
	}
	if p.HasPassword {
		flags |= connectFlagPassword
	}
	body.WriteByte(flags)

	putUint16(body, p.KeepAliveSec)

	if err := putString(body, p.ClientID); err != nil {
		return nil, err
	}
	if p.Will != nil {
		if err := putString(body, p.Will.Topic); err != nil {
			return nil, err
		}
		if err := putBytes(body, p.Will.Payload); err != nil {
			return nil, err
		}
	}
	if p.HasUsername {
		if err := putString(body, p.Username); err != nil {
			return nil, err
		}
	}
	if p.HasPassword {
		if err := putBytes(body, []byte(p.Password)); err != nil {
			return nil, err
		}
	}

	header := FixedHeader{Kind: KindConnect, RemainingLength: uint32(body.Len())}
	out := make([]byte, 0, header.size()+body.Len())
	buf := bytes.NewBuffer(out)
	if err := header.Pack(buf); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

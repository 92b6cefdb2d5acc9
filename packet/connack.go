package packet

import "bytes"

// CONNACK acknowledges a connection request (MQTT v3.1.1 §3.2).
type CONNACK struct {
	SessionPresent bool
	ReturnCode     ReturnCode
}

func (p *CONNACK) Kind() byte        { return KindConnack }
func (p *CONNACK) ID() uint16 { return 0 }

// Build serializes the CONNACK: the acknowledge flags (bit 0 is
// session-present) followed by the return code.
func (p *CONNACK) Build() ([]byte, error) {
	var flags byte
	if p.SessionPresent {
		flags = 0x01
	}
	return []byte{KindConnack << 4, 0x02, flags, byte(p.ReturnCode)}, nil
}

func decodeCONNACK(body *bytes.Buffer) (*CONNACK, error) {
	if body.Len() != 2 {
		return nil, ErrMalformedResponse
	}
	flags, _ := body.ReadByte()
	if flags&0xFE != 0 {
		return nil, ErrConnackForbiddenFlags
	}
	code, _ := body.ReadByte()
	return &CONNACK{SessionPresent: flags&0x01 != 0, ReturnCode: ReturnCode(code)}, nil
}

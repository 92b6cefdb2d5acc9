package packet

import "bytes"

// PINGREQ keeps the connection alive (MQTT v3.1.1 §3.12): fixed header
// only, remaining length 0.
type PINGREQ struct{}

func (PINGREQ) Kind() byte { return KindPingreq }
func (PINGREQ) ID() uint16 { return 0 }

func (PINGREQ) Build() ([]byte, error) {
	fh := FixedHeader{Kind: KindPingreq, RemainingLength: 0}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PINGRESP answers a PINGREQ (MQTT v3.1.1 §3.13): fixed header only.
type PINGRESP struct{}

func (PINGRESP) Kind() byte { return KindPingresp }
func (PINGRESP) ID() uint16 { return 0 }

func (PINGRESP) Build() ([]byte, error) {
	fh := FixedHeader{Kind: KindPingresp, RemainingLength: 0}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePINGRESP(body *bytes.Buffer) (*PINGRESP, error) {
	if body.Len() != 0 {
		return nil, ErrMalformedResponse
	}
	return &PINGRESP{}, nil
}

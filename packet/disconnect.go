package packet

import "bytes"

// DISCONNECT is a graceful connection termination notice (MQTT v3.1.1
// §3.14): fixed header only, remaining length 0.
type DISCONNECT struct{}

func (DISCONNECT) Kind() byte { return KindDisconnect }
func (DISCONNECT) ID() uint16 { return 0 }

func (DISCONNECT) Build() ([]byte, error) {
	fh := FixedHeader{Kind: KindDisconnect, RemainingLength: 0}
	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

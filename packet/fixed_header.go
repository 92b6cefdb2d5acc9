package packet

import (
	"fmt"
	"io"
)

// FixedHeader is the 2-to-5 byte header every MQTT control packet starts
// with: the packet type and flags in byte 1, then the variable-length
// remaining-length field.
//
//	byte 1   | type (bits 7-4) | flags (bits 3-0) |
//	byte 2.. | remaining length (1-4 bytes)        |
type FixedHeader struct {
	Kind            byte
	Dup             uint8
	QoS             uint8
	Retain          uint8
	RemainingLength uint32
}

func (h FixedHeader) String() string {
	return fmt.Sprintf("%s: len=%d", Kind[h.Kind], h.RemainingLength)
}

// Pack writes the fixed header to w.
func (h FixedHeader) Pack(w io.Writer) error {
	enc, err := encodeRemainingLength(h.RemainingLength)
	if err != nil {
		return err
	}
	b := make([]byte, 1, 1+len(enc))
	b[0] = h.Kind<<4 | h.Dup<<3 | h.QoS<<1 | h.Retain
	b = append(b, enc...)
	_, err = w.Write(b)
	return err
}

// size reports the wire size of this fixed header (type+flags byte plus
// the remaining-length field), not counting RemainingLength itself.
func (h FixedHeader) size() int {
	return 1 + remainingLengthSize(h.RemainingLength)
}

// reservedFlags are the fixed flag bits mandated for packet types whose
// flags are not application-selectable (MQTT v3.1.1 §2.2.2).
var reservedFlags = map[byte]byte{
	KindPubrel:      0x02,
	KindSubscribe:   0x02,
	KindUnsubscribe: 0x02,
}

// decodeFixedHeader reads a fixed header from r and validates its flags.
func decodeFixedHeader(r io.Reader) (FixedHeader, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return FixedHeader{}, err
	}
	h := FixedHeader{
		Kind:   b[0] >> 4,
		Dup:    (b[0] & 0x08) >> 3,
		QoS:    (b[0] & 0x06) >> 1,
		Retain: b[0] & 0x01,
	}
	flags := b[0] & 0x0F
	switch h.Kind {
	case KindPublish:
		if h.QoS == 3 {
			return h, ErrProtocolViolationQosRange
		}
	default:
		if want, ok := reservedFlags[h.Kind]; ok {
			if flags != want {
				return h, ErrMalformedFlags
			}
		} else if flags != 0 {
			return h, ErrMalformedFlags
		}
	}
	rl, err := decodeRemainingLength(r)
	if err != nil {
		return h, err
	}
	h.RemainingLength = rl
	return h, nil
}

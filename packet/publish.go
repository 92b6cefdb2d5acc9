package packet

import "bytes"

// PayloadSource lazily yields PUBLISH payload bytes by absolute offset,
// for payloads larger than any single write buffer. It mirrors a pull
// iterator: given a destination, the maximum number of bytes wanted, and
// the payload-relative offset, it fills dst and returns how many bytes it
// produced (0 only at end of payload).
type PayloadSource func(dst []byte, maxLen int, offset int) (n int)

// PUBLISH carries an application message (MQTT v3.1.1 §3.3). Payload is
// either an inline byte slice or a lazily-pulled Source; exactly one of
// Payload/Source should be set. When Source is set, PayloadLen must carry
// the total payload length up front since Source has no Len of its own.
type PUBLISH struct {
	Topic      string
	PacketID   uint16
	QoS        uint8
	Dup        bool
	Retain     bool
	Payload    []byte
	Source     PayloadSource
	PayloadLen int

	payloadStart int // offset within the built wire buffer where payload begins
	payloadEnd   int // payloadStart + payload length

	chunk       []byte // memoized window last pulled from Source
	chunkOffset int     // payload-relative offset where chunk begins
}

func (p *PUBLISH) Kind() byte        { return KindPublish }
func (p *PUBLISH) ID() uint16 { return p.PacketID }

// SetDup sets the DUP bit, as done on retransmission of a QoS>0 message.
func (p *PUBLISH) SetDup() { p.Dup = true }

// PayloadStart and PayloadEnd report the payload's byte range within the
// buffer Build returned, for transports that stream a lazily-pulled
// payload instead of copying it eagerly.
func (p *PUBLISH) PayloadStart() int { return p.payloadStart }
func (p *PUBLISH) PayloadEnd() int   { return p.payloadEnd }

func (p *PUBLISH) payloadLen() int {
	if p.Source != nil {
		return p.PayloadLen
	}
	return len(p.Payload)
}

// Build serializes the PUBLISH packet. If Source is set, the payload
// region of the returned buffer is reserved but left zero; callers read
// it via ChunkAt instead of trusting those bytes.
func (p *PUBLISH) Build() ([]byte, error) {
	if len(p.Topic) == 0 {
		return nil, ErrMalformedParameter
	}
	if p.QoS > 2 {
		return nil, ErrProtocolViolationQosRange
	}
	if p.QoS == 0 {
		p.PacketID = 0
	} else if p.PacketID == 0 {
		return nil, ErrMalformedParameter
	}

	head := GetBuffer()
	defer PutBuffer(head)
	if err := putString(head, p.Topic); err != nil {
		return nil, err
	}
	if p.QoS > 0 {
		putUint16(head, p.PacketID)
	}

	plen := p.payloadLen()
	fh := FixedHeader{Kind: KindPublish, RemainingLength: uint32(head.Len() + plen)}
	if p.Dup {
		fh.Dup = 1
	}
	fh.QoS = p.QoS
	if p.Retain {
		fh.Retain = 1
	}

	buf := &bytes.Buffer{}
	if err := fh.Pack(buf); err != nil {
		return nil, err
	}
	buf.Write(head.Bytes())

	p.payloadStart = buf.Len()
	p.payloadEnd = p.payloadStart + plen
	if p.Source == nil {
		buf.Write(p.Payload)
	} else {
		buf.Write(make([]byte, plen))
	}
	return buf.Bytes(), nil
}

// ChunkAt returns a contiguous slice of wire available starting at the
// given absolute offset into wire (the buffer Build returned), plus the
// count of bytes still available from that offset. Within the payload
// region of a Source-backed PUBLISH, it invokes Source on a memoized-
// window miss rather than trusting wire's placeholder bytes.
func (p *PUBLISH) ChunkAt(wire []byte, offset int) ([]byte, int, error) {
	size := len(wire)
	if offset < 0 || offset > size {
		return nil, 0, ErrMalformedParameter
	}
	if offset == size {
		return nil, 0, nil
	}
	if p.Source == nil || offset < p.payloadStart {
		return wire[offset:], size - offset, nil
	}

	payloadOff := offset - p.payloadStart
	total := p.payloadEnd - p.payloadStart
	if p.chunk == nil || payloadOff < p.chunkOffset || payloadOff >= p.chunkOffset+len(p.chunk) {
		want := TxBufferMaxSize
		if total-payloadOff < want {
			want = total - payloadOff
		}
		dst := make([]byte, want)
		n := p.Source(dst, want, payloadOff)
		if n <= 0 {
			return nil, 0, ErrMalformedResponse
		}
		p.chunk, p.chunkOffset = dst[:n], payloadOff
	}
	within := payloadOff - p.chunkOffset
	avail := p.chunk[within:]
	return avail, total - payloadOff, nil
}

func decodePUBLISH(fh FixedHeader, body *bytes.Buffer) (*PUBLISH, error) {
	topic, err := getString(body)
	if err != nil {
		return nil, err
	}
	p := &PUBLISH{Topic: topic, QoS: fh.QoS, Dup: fh.Dup != 0, Retain: fh.Retain != 0}
	if p.QoS > 0 {
		id, err := getUint16(body)
		if err != nil {
			return nil, err
		}
		p.PacketID = id
	}
	p.Payload = append([]byte(nil), body.Bytes()...)
	p.PayloadLen = len(p.Payload)
	return p, nil
}

package packet

import (
	"bytes"
	"testing"
)

func TestPubrelReservedFlags(t *testing.T) {
	raw, err := NewPUBREL(7).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if raw[0] != 0x60|0x02 {
		t.Fatalf("type/flags byte = %02X, want 62", raw[0])
	}
}

func TestPubackBuildAndDecode(t *testing.T) {
	raw, err := NewPUBACK(42).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, err := Unpack(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	ack, ok := p.(*PUBACK)
	if !ok {
		t.Fatalf("got %T, want *PUBACK", p)
	}
	if ack.ID() != 42 {
		t.Fatalf("ID() = %d, want 42", ack.ID())
	}
}

// TestQoS2Exchange walks the four-packet QoS 2 handshake: PUBLISH, PUBREC,
// PUBREL, PUBCOMP, all correlated by packet id 7.
func TestQoS2Exchange(t *testing.T) {
	const pid = 7

	pub := &PUBLISH{Topic: "a", PacketID: pid, QoS: 2, Payload: []byte("x")}
	if _, err := pub.Build(); err != nil {
		t.Fatalf("PUBLISH.Build: %v", err)
	}

	pubrecRaw, err := NewPUBREC(pid).Build()
	if err != nil {
		t.Fatalf("PUBREC.Build: %v", err)
	}
	recPkt, err := Unpack(bytes.NewReader(pubrecRaw))
	if err != nil {
		t.Fatalf("Unpack PUBREC: %v", err)
	}
	rec, ok := recPkt.(*PUBREC)
	if !ok || rec.ID() != pid {
		t.Fatalf("got %#v, want PUBREC(%d)", recPkt, pid)
	}

	pubrelRaw, err := NewPUBREL(rec.ID()).Build()
	if err != nil {
		t.Fatalf("PUBREL.Build: %v", err)
	}
	if pubrelRaw[0]&0x0F != 0x02 {
		t.Fatalf("PUBREL flags = %02X, want 02", pubrelRaw[0]&0x0F)
	}

	pubcompRaw, err := NewPUBCOMP(pid).Build()
	if err != nil {
		t.Fatalf("PUBCOMP.Build: %v", err)
	}
	compPkt, err := Unpack(bytes.NewReader(pubcompRaw))
	if err != nil {
		t.Fatalf("Unpack PUBCOMP: %v", err)
	}
	comp, ok := compPkt.(*PUBCOMP)
	if !ok || comp.ID() != pid {
		t.Fatalf("got %#v, want PUBCOMP(%d)", compPkt, pid)
	}
}

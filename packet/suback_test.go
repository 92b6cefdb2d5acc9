package packet

import (
	"bytes"
	"testing"
)

func TestDecodeSuback(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00, 0x0A, 0x00, 0x01, 0x80})
	ack, err := decodeSUBACK(body)
	if err != nil {
		t.Fatalf("decodeSUBACK: %v", err)
	}
	if ack.PacketID != 10 {
		t.Fatalf("PacketID = %d, want 10", ack.PacketID)
	}
	want := []SubscribeResult{0, 1, SubscribeFailure}
	if len(ack.Results) != len(want) {
		t.Fatalf("Results = %v, want %v", ack.Results, want)
	}
	for i := range want {
		if ack.Results[i] != want[i] {
			t.Errorf("Results[%d] = %v, want %v", i, ack.Results[i], want[i])
		}
	}
}

func TestDecodeSubackRejectsBadResultCode(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00, 0x01, 0x03})
	if _, err := decodeSUBACK(body); err != ErrMalformedResponse {
		t.Fatalf("got %v, want ErrMalformedResponse", err)
	}
}

func TestDecodeSubackRequiresAtLeastOneResult(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00, 0x01})
	if _, err := decodeSUBACK(body); err != ErrMalformedResponse {
		t.Fatalf("got %v, want ErrMalformedResponse", err)
	}
}

func TestDecodeUnsuback(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00, 0x04})
	ack, err := decodeUNSUBACK(body)
	if err != nil {
		t.Fatalf("decodeUNSUBACK: %v", err)
	}
	if ack.PacketID != 4 {
		t.Fatalf("PacketID = %d, want 4", ack.PacketID)
	}
}

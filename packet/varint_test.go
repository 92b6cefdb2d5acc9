package packet

import (
	"bytes"
	"testing"
)

func TestEncodeRemainingLengthEdges(t *testing.T) {
	cases := []struct {
		n    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xFF, 0x7F}},
		{2097151, []byte{0xFF, 0xFF, 0x7F}},
		{268435455, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, c := range cases {
		got, err := encodeRemainingLength(c.n)
		if err != nil {
			t.Fatalf("encode(%d): %v", c.n, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("encode(%d) = % X, want % X", c.n, got, c.want)
		}
		if s := remainingLengthSize(c.n); s != len(c.want) {
			t.Errorf("remainingLengthSize(%d) = %d, want %d", c.n, s, len(c.want))
		}
	}
}

func TestRemainingLengthRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 126, 127, 128, 16382, 16383, 16384, 2097150, 2097151, 2097152, 268435454, 268435455} {
		enc, err := encodeRemainingLength(n)
		if err != nil {
			t.Fatalf("encode(%d): %v", n, err)
		}
		got, err := decodeRemainingLength(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("decode(% X): %v", enc, err)
		}
		if got != n {
			t.Errorf("round trip %d -> % X -> %d", n, enc, got)
		}
	}
}

func TestEncodeRemainingLengthOverflow(t *testing.T) {
	if _, err := encodeRemainingLength(268435456); err == nil {
		t.Fatal("expected error for out-of-range remaining length")
	}
}

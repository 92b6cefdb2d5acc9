package packet

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestConnectBuild(t *testing.T) {
	p := &CONNECT{ClientID: "abc", CleanSession: true, KeepAliveSec: 60}
	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want, err := hex.DecodeString("100F0004" + "4D515454" + "0402003C" + "00036162" + "63")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestConnectWillQoSMasked(t *testing.T) {
	p := &CONNECT{
		ClientID: "x",
		Will:     &Will{Topic: "t", Payload: []byte("p"), QoS: 0xFF},
	}
	raw, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	flags := raw[9]
	if flags&0xC0 != 0 {
		t.Fatalf("will qos bits leaked outside bits 4-3: flags=%08b", flags)
	}
}

func TestConnectRequiresClientID(t *testing.T) {
	p := &CONNECT{}
	if _, err := p.Build(); err != ErrMalformedParameter {
		t.Fatalf("got %v, want ErrMalformedParameter", err)
	}
}

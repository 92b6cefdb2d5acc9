package packet

import (
	"bytes"
	"testing"
)

func TestDecodeConnackAccepted(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00, 0x00})
	ack, err := decodeCONNACK(body)
	if err != nil {
		t.Fatalf("decodeCONNACK: %v", err)
	}
	if ack.SessionPresent || ack.ReturnCode != Accepted {
		t.Fatalf("got %+v", ack)
	}
}

func TestDecodeConnackSessionPresent(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x01, 0x00})
	ack, err := decodeCONNACK(body)
	if err != nil {
		t.Fatalf("decodeCONNACK: %v", err)
	}
	if !ack.SessionPresent {
		t.Fatal("want SessionPresent true")
	}
}

func TestDecodeConnackForbiddenFlags(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x02, 0x00})
	if _, err := decodeCONNACK(body); err != ErrConnackForbiddenFlags {
		t.Fatalf("got %v, want ErrConnackForbiddenFlags", err)
	}
}

func TestDecodeConnackWrongLength(t *testing.T) {
	body := bytes.NewBuffer([]byte{0x00})
	if _, err := decodeCONNACK(body); err != ErrMalformedResponse {
		t.Fatalf("got %v, want ErrMalformedResponse", err)
	}
}

func TestConnackRefusedCodes(t *testing.T) {
	cases := []struct {
		code ReturnCode
		want string
	}{
		{UnacceptableProtocolVersion, "unacceptable protocol version"},
		{IdentifierRejected, "client identifier rejected"},
		{ServerUnavailable, "server unavailable"},
		{BadUsernameOrPassword, "malformed username or password"},
		{NotAuthorized, "not authorized"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Errorf("%v.String() = %q, want %q", c.code, got, c.want)
		}
	}
}

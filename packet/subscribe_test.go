package packet

import (
	"bytes"
	"testing"
)

func TestSubscribeTwoTopicsBuild(t *testing.T) {
	subs := SubscriptionList{}
	subs.Add("x", 0)
	subs.Add("y/#", 1)
	p := &SUBSCRIBE{PacketID: 10, Subscriptions: subs}
	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []byte{0x82, 0x0C, 0x00, 0x0A, 0x00, 0x01, 0x78, 0x00, 0x00, 0x03, 0x79, 0x2F, 0x23, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestSubscribeRequiresTopics(t *testing.T) {
	p := &SUBSCRIBE{PacketID: 1}
	if _, err := p.Build(); err != ErrMalformedParameter {
		t.Fatalf("got %v, want ErrMalformedParameter", err)
	}
}

func TestSubscribeRequiresPacketID(t *testing.T) {
	subs := SubscriptionList{}
	subs.Add("x", 0)
	p := &SUBSCRIBE{Subscriptions: subs}
	if _, err := p.Build(); err != ErrMalformedParameter {
		t.Fatalf("got %v, want ErrMalformedParameter", err)
	}
}

func TestUnsubscribeBuild(t *testing.T) {
	topics := SubscriptionList{}
	topics.Add("a", 0)
	p := &UNSUBSCRIBE{PacketID: 4, Topics: topics}
	raw, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if raw[0] != 0xA0|0x02 {
		t.Fatalf("type/flags byte = %02X, want A2", raw[0])
	}
}

package txrx

import (
	"sync"

	"github.com/nodewire/mqttc/packet"
)

// InFlight holds QoS 2 PUBLISH packets received from the broker between
// this client's PUBREC and the broker's PUBREL: the message must not be delivered to the application until the
// PUBREL confirms the broker also saw the PUBREC round trip complete.
type InFlight struct {
	mu   *sync.Mutex
	held map[uint16]*packet.PUBLISH
}

// NewInFlight builds an empty InFlight tracker.
func NewInFlight() *InFlight {
	return &InFlight{mu: new(sync.Mutex), held: make(map[uint16]*packet.PUBLISH)}
}

// Put remembers pub under its packet id, awaiting PUBREL.
func (f *InFlight) Put(pub *packet.PUBLISH) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[pub.PacketID] = pub
}

// Take returns and forgets the PUBLISH held under id, if any.
func (f *InFlight) Take(id uint16) (*packet.PUBLISH, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pub, ok := f.held[id]
	if ok {
		delete(f.held, id)
	}
	return pub, ok
}

package txrx

import "github.com/nodewire/mqttc/packet"

// Message is the application-facing view of a received PUBLISH, with
// index/length/total fields describing which slice of the payload it
// carries. The Receiver delivers every payload whole, in one Message with
// Index 0 and Length equal to TotalBytes.
type Message struct {
	Topic      string
	Payload    []byte
	QoS        uint8
	Retain     bool
	Dup        bool
	Index      int
	Length     int
	TotalBytes int
}

// Callbacks is the set of hooks the Receiver invokes as packets arrive. A
// nil field is simply not called. The client facade owns the actual
// callback-hub fan-out (user callbacks plus internal bookkeeping); this
// struct is how it wires itself into the receiver without the txrx
// package importing the facade and creating an import cycle.
type Callbacks struct {
	OnConnect     func(sessionPresent bool, code packet.ReturnCode)
	OnMessage     func(Message)
	OnPublish     func(id uint16)
	OnSubscribe   func(id uint16, results []packet.SubscribeResult)
	OnUnsubscribe func(id uint16)
	OnPingResp    func()
	OnError       func(err error)
}

func (c Callbacks) connect(sessionPresent bool, code packet.ReturnCode) {
	if c.OnConnect != nil {
		c.OnConnect(sessionPresent, code)
	}
}

func (c Callbacks) message(m Message) {
	if c.OnMessage != nil {
		c.OnMessage(m)
	}
}

func (c Callbacks) publish(id uint16) {
	if c.OnPublish != nil {
		c.OnPublish(id)
	}
}

func (c Callbacks) subscribe(id uint16, results []packet.SubscribeResult) {
	if c.OnSubscribe != nil {
		c.OnSubscribe(id, results)
	}
}

func (c Callbacks) unsubscribe(id uint16) {
	if c.OnUnsubscribe != nil {
		c.OnUnsubscribe(id)
	}
}

func (c Callbacks) pingResp() {
	if c.OnPingResp != nil {
		c.OnPingResp()
	}
}

func (c Callbacks) errorf(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

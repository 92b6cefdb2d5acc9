package mqttc

import (
	"log"
	"sync"

	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/txrx"
)

// callbackHub maintains one vector of user-registered callbacks per
// protocol event, the way the facade's §4.6 responsibility is worded, and
// fires all of them in registration order.
type callbackHub struct {
	mu sync.Mutex

	onConnect     []func(sessionPresent bool, code packet.ReturnCode)
	onMessage     []func(txrx.Message)
	onPublish     []func(id uint16)
	onSubscribe   []func(id uint16, results []packet.SubscribeResult)
	onUnsubscribe []func(id uint16)
	onDisconnect  []func(reason txrx.DisconnectReason)
	onError       []func(error)

	logger *log.Logger
}

func (h *callbackHub) addConnect(fn func(bool, packet.ReturnCode)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConnect = append(h.onConnect, fn)
}

func (h *callbackHub) addMessage(fn func(txrx.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = append(h.onMessage, fn)
}

func (h *callbackHub) addPublish(fn func(uint16)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPublish = append(h.onPublish, fn)
}

func (h *callbackHub) addSubscribe(fn func(uint16, []packet.SubscribeResult)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSubscribe = append(h.onSubscribe, fn)
}

func (h *callbackHub) addUnsubscribe(fn func(uint16)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUnsubscribe = append(h.onUnsubscribe, fn)
}

func (h *callbackHub) addDisconnect(fn func(txrx.DisconnectReason)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = append(h.onDisconnect, fn)
}

func (h *callbackHub) addError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

func (h *callbackHub) fireConnect(sessionPresent bool, code packet.ReturnCode) {
	h.mu.Lock()
	fns := append([]func(bool, packet.ReturnCode){}, h.onConnect...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(sessionPresent, code)
	}
}

func (h *callbackHub) fireMessage(m txrx.Message) {
	h.mu.Lock()
	fns := append([]func(txrx.Message){}, h.onMessage...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

func (h *callbackHub) firePublish(id uint16) {
	h.mu.Lock()
	fns := append([]func(uint16){}, h.onPublish...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (h *callbackHub) fireSubscribe(id uint16, results []packet.SubscribeResult) {
	h.mu.Lock()
	fns := append([]func(uint16, []packet.SubscribeResult){}, h.onSubscribe...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(id, results)
	}
}

func (h *callbackHub) fireUnsubscribe(id uint16) {
	h.mu.Lock()
	fns := append([]func(uint16){}, h.onUnsubscribe...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (h *callbackHub) fireDisconnect(reason txrx.DisconnectReason) {
	h.mu.Lock()
	fns := append([]func(txrx.DisconnectReason){}, h.onDisconnect...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

func (h *callbackHub) firePingResp() {
	// No user-facing vector for PINGRESP; logged for observability only,
	// matching the reference client's practice of logging every ack it
	// doesn't otherwise surface to the application.
	if h.logger != nil {
		h.logger.Printf("mqttc: pingresp received")
	}
}

func (h *callbackHub) fireError(err error) {
	h.mu.Lock()
	fns := append([]func(error){}, h.onError...)
	h.mu.Unlock()
	if len(fns) == 0 && h.logger != nil {
		h.logger.Printf("mqttc: unhandled error: %v", err)
		return
	}
	for _, fn := range fns {
		fn(err)
	}
}

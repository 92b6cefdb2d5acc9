// Package fsm implements the client's deterministic connection state
// machine: a declarative transition table plus three hard-coded
// cross-cutting rules, with the current state persisted after every
// change so a process restart can resume where it left off.
package fsm

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/nodewire/mqttc/metrics"
	"github.com/nodewire/mqttc/transport"
)

// Persistence is the key/value store the machine reads its transition
// table from and writes its current state to.
type Persistence = transport.Store

// State names every state the machine can occupy.
type State string

const (
	Disconnected       State = "disconnected"
	ConnectingTCP1     State = "connectingTcp1"
	ConnectingTCP2     State = "connectingTcp2"
	ConnectingMQTT     State = "connectingMqtt"
	Connected          State = "connected"
	MQTTOk             State = "mqtt_ok"
	DisconnectingMQTT1 State = "disconnectingMqtt1"
	DisconnectingMQTT2 State = "disconnectingMqtt2"
	DisconnectingTCP1  State = "disconnectingTcp1"
	DisconnectingTCP2  State = "disconnectingTcp2"
	Reconnect          State = "reconnect"
	Timeout            State = "timeout"
	Hibernate          State = "hibernate"
)

// States lists every member of the enumerated state set, in declaration
// order. Used to validate persisted/loaded state names and to drive
// metrics.SetState.
var States = []State{
	Disconnected, ConnectingTCP1, ConnectingTCP2, ConnectingMQTT, Connected,
	MQTTOk, DisconnectingMQTT1, DisconnectingMQTT2, DisconnectingTCP1,
	DisconnectingTCP2, Reconnect, Timeout, Hibernate,
}

// StateNames is States rendered as plain strings, for metrics.SetState.
func StateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = string(s)
	}
	return names
}

func isKnownState(s State) bool {
	for _, known := range States {
		if known == s {
			return true
		}
	}
	return false
}

// Event names every event the machine responds to.
type Event string

const (
	BeforeConnect Event = "BEFORE_CONNECT"
	Connected_    Event = "CONNECTED"
	Disconnected_ Event = "DISCONNECTED"
	Subscribed    Event = "SUBSCRIBED"
	Unsubscribed  Event = "UNSUBSCRIBED"
	Published     Event = "PUBLISHED"
	Data          Event = "DATA"
	Deleted       Event = "DELETED"
	Retry         Event = "RETRY"
	RetryOK       Event = "RETRY_OK"
	TCP1OK        Event = "TCP1_OK"
	TCP2OK        Event = "TCP2_OK"
	MQTTOk_       Event = "MQTT_OK"
	MaxRetries    Event = "MAX_RETRIES"
	ErrorEvt      Event = "ERROR"
	BrokerDown    Event = "BROKER_DOWN"
	BadProtocol   Event = "BAD_PROTOCOL"
	SystemFault   Event = "SYSTEM_FAULT"
	Restart       Event = "RESTART"
	Reset         Event = "RESET"
	None          Event = "NONE"
)

func isKnownEvent(e Event) bool {
	switch e {
	case BeforeConnect, Connected_, Disconnected_, Subscribed, Unsubscribed,
		Published, Data, Deleted, Retry, RetryOK, TCP1OK, TCP2OK, MQTTOk_,
		MaxRetries, ErrorEvt, BrokerDown, BadProtocol, SystemFault, Restart,
		Reset, None:
		return true
	}
	return false
}

// DefaultMaxRetries is used when Config.MaxRetries is left at zero.
const DefaultMaxRetries = 3

// Config tunes the machine; MaxRetries resolves the open question over
// whether the retry cap is configurable by exposing what the reference
// behavior hard-codes as a default.
type Config struct {
	MaxRetries int
	Store      Persistence
}

// Machine is a thread-safe, table-driven state machine. current and
// retryCount are atomic so any goroutine may read them; only the owning
// client loop calls Fire.
type Machine struct {
	current    atomic.Value // State
	retryCount atomic.Int32
	maxRetries int32

	mu    sync.Mutex
	table []Transition
	store Persistence
}

// New builds a Machine starting in Disconnected (or the last persisted
// state, if cfg.Store holds one), with its transition table loaded from
// cfg.Store.
func New(cfg Config) *Machine {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	m := &Machine{maxRetries: int32(maxRetries), store: cfg.Store}
	m.current.Store(Disconnected)

	if cfg.Store != nil {
		table, err := LoadTable(cfg.Store)
		if err != nil {
			log.Printf("fsm: transition table load failed, starting with an empty table: %v", err)
		}
		m.table = table

		if s, err := LoadState(cfg.Store); err == nil && s != "" {
			m.current.Store(s)
		}
	}
	return m
}

// Current returns the state the machine currently occupies.
func (m *Machine) Current() State { return m.current.Load().(State) }

// RetryCount returns the current retry counter.
func (m *Machine) RetryCount() int { return int(m.retryCount.Load()) }

// Fire applies event to the machine: the three cross-cutting rules run
// first; if none claims the event, the transition table is scanned
// linearly for the first matching (from, event) whose guard passes.
// Returns the resulting state.
func (m *Machine) Fire(event Event) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.Current()

	switch event {
	case SystemFault:
		return m.commit(from, event, Hibernate, ActionNone)
	case BrokerDown:
		return m.commit(from, event, Disconnected, ActionNone)
	case Retry:
		if m.retryCount.Load() >= m.maxRetries {
			return m.commit(from, event, Timeout, ActionNone)
		}
		m.retryCount.Add(1)
		return m.commit(from, event, Reconnect, ActionNone)
	}

	for _, t := range m.table {
		if t.From != from || t.Event != event {
			continue
		}
		if t.Guard != "" && !evalGuard(t.Guard, m) {
			continue
		}
		return m.commit(from, event, t.To, t.Action)
	}

	if event == Disconnected_ && from != Reconnect {
		m.retryCount.Store(0)
	}
	return from
}

// commit updates current state and the FSM state gauge, applies the
// DISCONNECTED retry-count reset rule, logs the transition, runs the
// action, and persists.
func (m *Machine) commit(from State, event Event, to State, action Action) State {
	if !isKnownState(to) {
		to = Disconnected
	}
	m.current.Store(to)
	metrics.SetState(StateNames(), string(to))

	if event == Disconnected_ && from != Reconnect {
		m.retryCount.Store(0)
	}

	log.Printf("fsm: %s -(%s)-> %s", from, event, to)
	applyAction(action, m)

	if m.store != nil {
		if err := SaveState(m.store, to); err != nil {
			log.Printf("fsm: state persist failed: state=%s, error=%v", to, err)
		}
	}
	return to
}

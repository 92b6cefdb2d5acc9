package fsm

import "encoding/json"

// Action tags a small enum of effects a transition may run once the state
// has been updated. Kept as data rather than closures so the transition
// table stays a plain, serializable value.
type Action string

const (
	ActionNone             Action = ""
	ActionLog              Action = "log"
	ActionClearRetryCount  Action = "clear_retry_count"
	ActionResetSession     Action = "reset_session"
	ActionNotifyDisconnect Action = "notify_disconnect"
)

// Guard tags a small enum of predicates a transition may require before it
// fires. Unrecognized guard strings evaluate false, so a typo in a loaded
// table disables the transition rather than silently always firing it.
type Guard string

const (
	GuardNone             Guard = ""
	GuardRetryCountLtMax  Guard = "retry_count_lt_max"
	GuardRetryCountAtZero Guard = "retry_count_at_zero"
)

// Transition is one row of the declarative table: in From, on Event, move
// to To, gated by Guard (if set), then run Action (if set).
type Transition struct {
	From   State
	Event  Event
	To     State
	Action Action
	Guard  Guard
}

// wireTransition mirrors the JSON schema `{ current_state, event,
// next_state, action?, guard? }` the persisted document uses.
type wireTransition struct {
	CurrentState string `json:"current_state"`
	Event        string `json:"event"`
	NextState    string `json:"next_state"`
	Action       string `json:"action,omitempty"`
	Guard        string `json:"guard,omitempty"`
}

type wireTable struct {
	Transitions []wireTransition `json:"transitions"`
}

// deviceSettingsPath and currentStatePath are the two documents the
// persistence adaptor exposes, per the external-interfaces contract.
const (
	deviceSettingsPath = "/device_settings.json"
	currentStatePath   = "/current_state.json"
)

// LoadTable reads and decodes the transition table from store. Unknown
// state/event strings map to their safe defaults (disconnected / NONE)
// rather than failing the whole load, matching the persistence contract.
func LoadTable(store Persistence) ([]Transition, error) {
	raw, err := store.Get(deviceSettingsPath)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return DefaultTable(), nil
	}

	var wt wireTable
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, err
	}

	table := make([]Transition, 0, len(wt.Transitions))
	for _, w := range wt.Transitions {
		table = append(table, Transition{
			From:   safeState(w.CurrentState),
			Event:  safeEvent(w.Event),
			To:     safeState(w.NextState),
			Action: Action(w.Action),
			Guard:  Guard(w.Guard),
		})
	}
	return table, nil
}

// SaveTable encodes table and writes it to store, for an embedder that
// wants to rewrite its device settings document (the contract marks this
// rewrite as optional).
func SaveTable(store Persistence, table []Transition) error {
	wt := wireTable{Transitions: make([]wireTransition, 0, len(table))}
	for _, t := range table {
		wt.Transitions = append(wt.Transitions, wireTransition{
			CurrentState: string(t.From),
			Event:        string(t.Event),
			NextState:    string(t.To),
			Action:       string(t.Action),
			Guard:        string(t.Guard),
		})
	}
	raw, err := json.Marshal(wt)
	if err != nil {
		return err
	}
	return store.Put(deviceSettingsPath, raw)
}

type wireState struct {
	State string `json:"state"`
}

// LoadState reads the single-key current-state document. Returns "" with
// a nil error if the document doesn't exist yet (first run).
func LoadState(store Persistence) (State, error) {
	raw, err := store.Get(currentStatePath)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	var ws wireState
	if err := json.Unmarshal(raw, &ws); err != nil {
		return "", err
	}
	return safeState(ws.State), nil
}

// SaveState overwrites the current-state document, called after every
// transition so a restart can resume from where the process left off.
func SaveState(store Persistence, s State) error {
	raw, err := json.Marshal(wireState{State: string(s)})
	if err != nil {
		return err
	}
	return store.Put(currentStatePath, raw)
}

func safeState(s string) State {
	st := State(s)
	if !isKnownState(st) {
		return Disconnected
	}
	return st
}

func safeEvent(e string) Event {
	ev := Event(e)
	if !isKnownEvent(ev) {
		return None
	}
	return ev
}

// DefaultTable is the transition table the client runs with before any
// device_settings.json has been written, covering the connect, normal
// operation, graceful disconnect and reconnect paths named in the state
// and event enumerations.
func DefaultTable() []Transition {
	return []Transition{
		{From: Disconnected, Event: BeforeConnect, To: ConnectingTCP1, Action: ActionLog},
		{From: ConnectingTCP1, Event: TCP1OK, To: ConnectingTCP2, Action: ActionNone},
		{From: ConnectingTCP2, Event: TCP2OK, To: ConnectingMQTT, Action: ActionNone},
		{From: ConnectingMQTT, Event: Connected_, To: Connected, Action: ActionClearRetryCount},
		{From: Connected, Event: MQTTOk_, To: MQTTOk, Action: ActionNone},

		{From: MQTTOk, Event: Data, To: MQTTOk, Action: ActionNone},
		{From: MQTTOk, Event: Published, To: MQTTOk, Action: ActionNone},
		{From: MQTTOk, Event: Subscribed, To: MQTTOk, Action: ActionNone},
		{From: MQTTOk, Event: Unsubscribed, To: MQTTOk, Action: ActionNone},

		{From: MQTTOk, Event: Restart, To: DisconnectingMQTT1, Action: ActionLog},
		{From: Connected, Event: Restart, To: DisconnectingMQTT1, Action: ActionLog},
		{From: DisconnectingMQTT1, Event: Deleted, To: DisconnectingMQTT2, Action: ActionNone},
		{From: DisconnectingMQTT2, Event: RetryOK, To: DisconnectingTCP1, Action: ActionNone},
		{From: DisconnectingTCP1, Event: TCP1OK, To: DisconnectingTCP2, Action: ActionNone},
		{From: DisconnectingTCP2, Event: TCP2OK, To: Disconnected, Action: ActionNotifyDisconnect},

		{From: Reconnect, Event: RetryOK, To: ConnectingTCP1, Action: ActionLog, Guard: GuardRetryCountLtMax},
		{From: Timeout, Event: Reset, To: Disconnected, Action: ActionClearRetryCount},
		{From: Hibernate, Event: Reset, To: Disconnected, Action: ActionClearRetryCount},
	}
}

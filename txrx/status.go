package txrx

// DisconnectReason names why the session ended, surfaced to the user
// on_disconnect callback.
type DisconnectReason string

const (
	ReasonUserOK                       DisconnectReason = "USER_OK"
	ReasonUnacceptableProtocolVersion  DisconnectReason = "MQTT_UNACCEPTABLE_PROTOCOL_VERSION"
	ReasonIdentifierRejected           DisconnectReason = "MQTT_IDENTIFIER_REJECTED"
	ReasonServerUnavailable            DisconnectReason = "MQTT_SERVER_UNAVAILABLE"
	ReasonMalformedCredentials         DisconnectReason = "MQTT_MALFORMED_CREDENTIALS"
	ReasonNotAuthorized                DisconnectReason = "MQTT_NOT_AUTHORIZED"
	ReasonTLSBadFingerprint            DisconnectReason = "TLS_BAD_FINGERPRINT"
	ReasonTCPConnectionLost            DisconnectReason = "TCP_CONNECTION_LOST"
)

// Status tracks transmit-side session bookkeeping: keep-alive state,
// activity timestamps and the last disconnect reason. How far the current
// packet has progressed is kept on its OutboundPacket (BytesSent).
type Status struct {
	PingOutstanding     bool
	LastClientActivity  int64 // unix millis of last byte sent to the broker
	LastServerActivity  int64 // unix millis of last byte received
	LastDisconnectReason DisconnectReason
}

// Update is a sparse assignment over Status: every non-nil field
// overrides its counterpart, every nil field leaves Status untouched.
// This replaces per-field heap allocation of a full Status with a record
// of what actually changed, applied with "set if present".
type Update struct {
	PingOutstanding      *bool
	LastClientActivity   *int64
	LastServerActivity   *int64
	LastDisconnectReason *DisconnectReason
}

// Apply merges u into s, field by field.
func (s *Status) Apply(u Update) {
	if u.PingOutstanding != nil {
		s.PingOutstanding = *u.PingOutstanding
	}
	if u.LastClientActivity != nil {
		s.LastClientActivity = *u.LastClientActivity
	}
	if u.LastServerActivity != nil {
		s.LastServerActivity = *u.LastServerActivity
	}
	if u.LastDisconnectReason != nil {
		s.LastDisconnectReason = *u.LastDisconnectReason
	}
}

func boolPtr(b bool) *bool                           { return &b }
func int64Ptr(n int64) *int64                        { return &n }
func reasonPtr(r DisconnectReason) *DisconnectReason { return &r }

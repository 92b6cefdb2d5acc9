package mqttc

import (
	"crypto/tls"
	"log"
	"math/rand"
	"time"

	"github.com/golang-io/requests"
	"github.com/nodewire/mqttc/packet"
)

// clientIDAlphabet matches MQTT v3.1.1's mandated client-id character set.
const clientIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomClientID generates an 8-23 character alphanumeric client id,
// within the 1-23 range MQTT v3.1.1 §3.1.3.1 guarantees every broker
// accepts. It mixes in
// requests.GenId() as one entropy source alongside math/rand, the same
// split the reference client's own ID field assembly uses ("mqtt-" +
// requests.GenId()).
func randomClientID() string {
	var mix int64
	for _, b := range []byte(requests.GenId()) {
		mix = mix*131 + int64(b)
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano() ^ mix))
	n := 8 + r.Intn(16) // 8..23
	b := make([]byte, n)
	for i := range b {
		b[i] = clientIDAlphabet[r.Intn(len(clientIDAlphabet))]
	}
	return string(b)
}

// LastWill describes a CONNECT's will message.
type LastWill struct {
	Topic   string
	QoS     uint8
	Retain  bool
	Payload []byte
}

// Config is the flat, functional-options-populated configuration a Client
// is built from; any field left at its zero value takes the stated
// default.
type Config struct {
	Host string
	Port int

	Transport string // "tcp", "ssl", "ws", "wss"
	TLSConfig *tls.Config
	WSPath    string

	ClientID     string
	CleanSession bool
	KeepAliveMs  int64

	ReconnectTimeoutMs int64
	NetworkTimeoutMs   int64
	MaxRetries         int

	DisableAutoReconnect       bool
	DisableKeepalive           bool
	RefreshConnectionAfterMs   int64
	MessageRetransmitTimeoutMs int64

	Username    string
	Password    string
	HasUsername bool
	HasPassword bool

	Will *LastWill

	StoragePath string // directory FileStore resolves device_settings.json/current_state.json under

	Logger *log.Logger
}

// Option mutates a Config under construction, following the reference
// client's functional-options shape (Option func(*Options)).
type Option func(*Config)

// newConfig builds a Config from opts, filling every default §6 names.
func newConfig(opts ...Option) Config {
	cfg := Config{
		Host:                       "127.0.0.1",
		Port:                       1883,
		Transport:                  "tcp",
		ClientID:                   randomClientID(),
		CleanSession:               true,
		KeepAliveMs:                60_000,
		ReconnectTimeoutMs:         2_000,
		NetworkTimeoutMs:           5_000,
		MaxRetries:                 3,
		MessageRetransmitTimeoutMs: 10_000,
		StoragePath:                ".",
		Logger:                     log.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithBroker sets the broker host/IP and port.
func WithBroker(host string, port int) Option {
	return func(c *Config) { c.Host, c.Port = host, port }
}

// WithTransport selects the transport scheme: tcp, ssl, ws or wss.
func WithTransport(scheme string) Option {
	return func(c *Config) { c.Transport = scheme }
}

// WithTLS sets the TLS configuration used by the ssl/wss transports.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Config) { c.TLSConfig = cfg }
}

// WithWebSocketPath sets the HTTP path used by the ws/wss transports.
func WithWebSocketPath(path string) Option {
	return func(c *Config) { c.WSPath = path }
}

// WithClientID overrides the generated random client id.
func WithClientID(id string) Option {
	return func(c *Config) { c.ClientID = id }
}

// WithCleanSession sets the CONNECT clean-session flag.
func WithCleanSession(clean bool) Option {
	return func(c *Config) { c.CleanSession = clean }
}

// WithKeepAlive sets the keep-alive interval in milliseconds; 0 disables
// PINGREQ.
func WithKeepAlive(ms int64) Option {
	return func(c *Config) { c.KeepAliveMs = ms }
}

// WithMaxRetries overrides the reconnect ladder's retry cap before the
// state machine gives up and moves to timeout.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithReconnectTimeout sets the back-off between RETRY events, in
// milliseconds.
func WithReconnectTimeout(ms int64) Option {
	return func(c *Config) { c.ReconnectTimeoutMs = ms }
}

// WithNetworkTimeout sets the maximum wait for the broker's CONNACK, in
// milliseconds. No timeout is applied to an outstanding PINGRESP.
func WithNetworkTimeout(ms int64) Option {
	return func(c *Config) { c.NetworkTimeoutMs = ms }
}

// WithCredentials sets the CONNECT username/password.
func WithCredentials(username, password string) Option {
	return func(c *Config) {
		c.Username, c.HasUsername = username, true
		c.Password, c.HasPassword = password, true
	}
}

// WithAutoReconnect controls whether ConnectAndSubscribe re-dials after a
// dropped connection or a failed handshake. Disabling it makes a single
// connection attempt and returns on its outcome, matching the reference
// configuration's disable_auto_reconnect knob.
func WithAutoReconnect(enabled bool) Option {
	return func(c *Config) { c.DisableAutoReconnect = !enabled }
}

// WithKeepaliveEnabled controls whether the steady-state loop sends
// PINGREQ on inactivity, matching the reference configuration's
// disable_keepalive knob. Disabling it leaves KeepAliveMs in the CONNECT
// packet (the broker still times the session out) but this client never
// sends a PINGREQ of its own.
func WithKeepaliveEnabled(enabled bool) Option {
	return func(c *Config) { c.DisableKeepalive = !enabled }
}

// WithRefreshConnection sets an interval, in milliseconds, after which the
// steady-state loop proactively tears down and re-establishes the
// connection even without a detected fault, matching the reference
// configuration's refresh_connection_after_ms knob. 0 disables the
// refresh.
func WithRefreshConnection(ms int64) Option {
	return func(c *Config) { c.RefreshConnectionAfterMs = ms }
}

// WithMessageRetransmitTimeout sets how long a QoS 1/2 PUBLISH may sit
// fully sent but unacknowledged before the transmitter sets its DUP flag
// and resends it, matching the reference configuration's
// message_retransmit_timeout knob. A non-positive value disables
// retransmission-on-timeout.
func WithMessageRetransmitTimeout(ms int64) Option {
	return func(c *Config) { c.MessageRetransmitTimeoutMs = ms }
}

// WithLastWill sets the CONNECT will message.
func WithLastWill(w LastWill) Option {
	return func(c *Config) { c.Will = &w }
}

// WithStoragePath sets the directory the file-backed Store resolves its
// two documents under.
func WithStoragePath(dir string) Option {
	return func(c *Config) { c.StoragePath = dir }
}

// WithLogger overrides the default log.Default() sink.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func (c Config) will() *packet.Will {
	if c.Will == nil {
		return nil
	}
	return &packet.Will{Topic: c.Will.Topic, Payload: c.Will.Payload, QoS: c.Will.QoS, Retain: c.Will.Retain}
}

func (c Config) keepAliveSec() uint16 {
	sec := c.KeepAliveMs / 1000
	if sec > 0xFFFF {
		sec = 0xFFFF
	}
	return uint16(sec)
}

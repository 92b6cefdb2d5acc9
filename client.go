// Package mqttc is an MQTT v3.1.1 client for resource-constrained,
// networked devices: a packet codec, a packet-id allocator, a transmit/
// receive pipeline and a declarative connection state machine, talking to
// concrete transports, persistence and clocks only through interfaces.
package mqttc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nodewire/mqttc/fsm"
	"github.com/nodewire/mqttc/metrics"
	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/pid"
	"github.com/nodewire/mqttc/transport"
	"github.com/nodewire/mqttc/txrx"
	"golang.org/x/sync/errgroup"
)

// tickInterval bounds how often the steady-state loop pumps the
// transport, so a pump never has to wait long for either direction to
// make progress.
const tickInterval = 20 * time.Millisecond

// ErrMaxRetriesExceeded is returned by ConnectAndSubscribe when the state
// machine's reconnect ladder reaches its cap without a successful CONNACK.
var ErrMaxRetriesExceeded = errors.New("mqttc: max retries exceeded")

// errRefreshConnection unwinds steadyState when RefreshConnectionAfterMs
// elapses; ConnectAndSubscribe treats it as a request to cycle the
// connection rather than a transport fault.
var errRefreshConnection = errors.New("mqttc: refreshing connection")

// Client is an MQTT v3.1.1 client. Its zero value is not usable; build one
// with New. A Client is safe for concurrent Publish/Subscribe/Unsubscribe
// calls while ConnectAndSubscribe runs its loop — both paths serialize on
// the same mutex, matching the single-client-wide-mutex concurrency model.
type Client struct {
	config Config

	transport transport.Transport
	store     transport.Store
	clock     transport.Clock
	pids      *pid.Registry

	tx       *txrx.Transmitter
	rx       *txrx.Receiver
	inFlight *txrx.InFlight
	fsm      *fsm.Machine
	hub      *callbackHub

	mu sync.Mutex
}

// New builds a Client from opts. It does not dial; call ConnectAndSubscribe
// to establish a session.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	dial := transport.NewDialTransport(cfg.Transport, cfg.TLSConfig)
	dial.WSPath = cfg.WSPath
	var store transport.Store
	if fs, err := transport.NewFileStore(cfg.StoragePath); err != nil {
		cfg.Logger.Printf("mqttc: storage path unavailable, state will not persist across restarts: path=%s, error=%v", cfg.StoragePath, err)
	} else {
		store = fs
	}
	clock := transport.SystemClock{}
	pids := pid.New()

	c := &Client{
		config:    cfg,
		transport: dial,
		store:     store,
		clock:     clock,
		pids:      pids,
		inFlight:  txrx.NewInFlight(),
		hub:       &callbackHub{logger: cfg.Logger},
		fsm:       fsm.New(fsm.Config{MaxRetries: cfg.MaxRetries, Store: store}),
	}
	c.tx = txrx.NewTransmitter(dial, clock, pids)
	c.rx = &txrx.Receiver{
		Transport:  dial,
		Clock:      clock,
		PIDs:       pids,
		Tx:         c.tx,
		InFlight:   c.inFlight,
		RaiseEvent: func(e fsm.Event) { c.fsm.Fire(e) },
		Callbacks: txrx.Callbacks{
			OnConnect:     c.hub.fireConnect,
			OnMessage:     c.hub.fireMessage,
			OnPublish:     c.hub.firePublish,
			OnSubscribe:   c.hub.fireSubscribe,
			OnUnsubscribe: c.hub.fireUnsubscribe,
			OnPingResp:    c.hub.firePingResp,
			OnError:       c.hub.fireError,
		},
	}

	cfg.Logger.Printf("mqttc: client created: client_id=%s, broker=%s:%d, transport=%s", cfg.ClientID, cfg.Host, cfg.Port, cfg.Transport)
	metrics.Register()
	return c
}

// ID returns the client id this Client connects with.
func (c *Client) ID() string { return c.config.ClientID }

// State returns the connection state machine's current state.
func (c *Client) State() fsm.State { return c.fsm.Current() }

// OnConnect registers a callback invoked on every CONNACK.
func (c *Client) OnConnect(fn func(sessionPresent bool, code packet.ReturnCode)) { c.hub.addConnect(fn) }

// OnMessage registers a callback invoked for every delivered PUBLISH.
func (c *Client) OnMessage(fn func(txrx.Message)) { c.hub.addMessage(fn) }

// OnPublish registers a callback invoked when a QoS 1/2 publish completes.
func (c *Client) OnPublish(fn func(id uint16)) { c.hub.addPublish(fn) }

// OnSubscribe registers a callback invoked on SUBACK.
func (c *Client) OnSubscribe(fn func(id uint16, results []packet.SubscribeResult)) {
	c.hub.addSubscribe(fn)
}

// OnUnsubscribe registers a callback invoked on UNSUBACK.
func (c *Client) OnUnsubscribe(fn func(id uint16)) { c.hub.addUnsubscribe(fn) }

// OnDisconnect registers a callback invoked when Disconnect is called or
// an established connection is lost. A connection refresh cycle does not
// invoke it.
func (c *Client) OnDisconnect(fn func(reason txrx.DisconnectReason)) { c.hub.addDisconnect(fn) }

// OnError registers a callback invoked on transport and protocol errors
// that don't otherwise reach one of the callbacks above.
func (c *Client) OnError(fn func(error)) { c.hub.addError(fn) }

// Publish enqueues a PUBLISH and returns its packet id (0 for QoS 0).
func (c *Client) Publish(topic string, payload []byte, qos uint8, retain bool) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx.Publish(topic, payload, qos, retain)
}

// PublishStreamed is Publish for a payload sourced from a pull callback.
func (c *Client) PublishStreamed(topic string, src packet.PayloadSource, payloadLen int, qos uint8, retain bool) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx.PublishStreamed(topic, src, payloadLen, qos, retain)
}

// Subscribe enqueues a SUBSCRIBE for the given topic filters.
func (c *Client) Subscribe(filters []packet.TopicFilter) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx.Subscribe(filters)
}

// Unsubscribe enqueues an UNSUBSCRIBE for the given topics.
func (c *Client) Unsubscribe(topics []string) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx.Unsubscribe(topics)
}

// Disconnect enqueues a graceful DISCONNECT and drains the queue before
// closing the transport.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if err := c.tx.Disconnect(); err != nil {
		c.mu.Unlock()
		return err
	}
	for c.tx.QueueLen() > 0 {
		if err := c.tx.Pump(); err != nil {
			break
		}
	}
	c.mu.Unlock()

	reason := txrx.ReasonUserOK
	c.hub.fireDisconnect(reason)
	c.fsm.Fire(fsm.Disconnected_)
	return c.transport.Stop()
}

// dialAndHandshake dials the broker and exchanges CONNECT/CONNACK,
// blocking until the session is established or config.NetworkTimeoutMs
// elapses.
func (c *Client) dialAndHandshake(ctx context.Context) error {
	c.fsm.Fire(fsm.BeforeConnect)
	if err := c.transport.Connect(c.config.Host, c.config.Port); err != nil {
		c.config.Logger.Printf("mqttc: dial failed: client_id=%s, broker=%s:%d, error=%v", c.config.ClientID, c.config.Host, c.config.Port, err)
		c.fsm.Fire(fsm.BrokerDown)
		return err
	}
	metrics.ActiveConn.Set(1)
	// The dial above covers both the TCP handshake and, for ssl/wss, the
	// TLS handshake; connectingTcp1/connectingTcp2 collapse onto the one
	// blocking Connect call rather than modeling them as separate steps.
	c.fsm.Fire(fsm.TCP1OK)
	c.fsm.Fire(fsm.TCP2OK)

	c.mu.Lock()
	err := c.tx.SendConnectionRequest(txrx.ConnectParams{
		ClientID:     c.config.ClientID,
		CleanSession: c.config.CleanSession,
		KeepAliveSec: c.config.keepAliveSec(),
		Username:     c.config.Username,
		Password:     c.config.Password,
		HasUsername:  c.config.HasUsername,
		HasPassword:  c.config.HasPassword,
		Will:         c.config.will(),
	})
	c.mu.Unlock()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(time.Duration(c.config.NetworkTimeoutMs) * time.Millisecond)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.mu.Lock()
		_ = c.tx.Pump()
		rxErr := c.rx.Pump()
		state := c.fsm.Current()
		c.mu.Unlock()

		if state == fsm.Connected || state == fsm.MQTTOk {
			c.fsm.Fire(fsm.MQTTOk_)
			c.config.Logger.Printf("mqttc: connected: client_id=%s", c.config.ClientID)
			return nil
		}
		if state == fsm.Disconnected || state == fsm.Hibernate {
			return fmt.Errorf("mqttc: connect refused: state=%s", state)
		}
		if rxErr != nil {
			return rxErr
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mqttc: timed out waiting for CONNACK: client_id=%s", c.config.ClientID)
		}
		time.Sleep(tickInterval)
	}
}

// steadyState pumps the receiver and transmitter, ticks the keep-alive
// timer, and watches for cancellation, as three concurrent goroutines,
// plus a fourth refresh timer when RefreshConnectionAfterMs is set — it
// returns when the transport drops, ctx is done, or the refresh timer
// fires.
func (c *Client) steadyState(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				c.mu.Lock()
				err := c.rx.Pump()
				c.mu.Unlock()
				if err != nil {
					return err
				}
			}
		}
	})

	group.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				c.mu.Lock()
				err := c.tx.Pump()
				if !c.config.DisableKeepalive {
					c.tx.OnKeepaliveTick(c.config.KeepAliveMs)
				}
				c.tx.RetransmitStale(c.config.MessageRetransmitTimeoutMs)
				c.mu.Unlock()
				if err != nil {
					return err
				}
			}
		}
	})

	group.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	if c.config.RefreshConnectionAfterMs > 0 {
		group.Go(func() error {
			timer := time.NewTimer(time.Duration(c.config.RefreshConnectionAfterMs) * time.Millisecond)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return errRefreshConnection
			}
		})
	}

	return group.Wait()
}

// ConnectAndSubscribe dials the broker, subscribes to filters once
// connected, and runs the client loop until ctx is cancelled or the
// reconnect ladder's retry cap is reached. It reconnects automatically on
// transport loss, replaying CONNECT and the subscription list, the way
// the reference client's connectAndSubscribe keeps a device attached
// across flaky links.
func (c *Client) ConnectAndSubscribe(ctx context.Context, filters []packet.TopicFilter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.dialAndHandshake(ctx); err != nil {
			metrics.ActiveConn.Set(0)
			if c.config.DisableAutoReconnect {
				return err
			}
			state := c.fsm.Fire(fsm.Retry)
			metrics.Reconnects.Inc()
			if state == fsm.Timeout {
				return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, err)
			}
			c.config.Logger.Printf("mqttc: reconnecting in %dms: client_id=%s, retry_count=%d", c.config.ReconnectTimeoutMs, c.config.ClientID, c.fsm.RetryCount())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(c.config.ReconnectTimeoutMs) * time.Millisecond):
			}
			continue
		}

		if len(filters) > 0 {
			if _, err := c.Subscribe(filters); err != nil {
				c.hub.fireError(err)
			}
		}

		err := c.steadyState(ctx)
		metrics.ActiveConn.Set(0)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if errors.Is(err, errRefreshConnection) {
			c.config.Logger.Printf("mqttc: refreshing connection: client_id=%s", c.config.ClientID)
			c.fsm.Fire(fsm.Disconnected_)
			_ = c.transport.Stop()
			continue
		}

		c.config.Logger.Printf("mqttc: connection lost: client_id=%s, error=%v", c.config.ClientID, err)
		c.tx.Status.Apply(txrx.Update{LastDisconnectReason: reasonPtr(txrx.ReasonTCPConnectionLost)})
		c.hub.fireDisconnect(txrx.ReasonTCPConnectionLost)
		c.hub.fireError(err)
		c.fsm.Fire(fsm.Disconnected_)
		_ = c.transport.Stop()
		if c.config.DisableAutoReconnect {
			return err
		}
	}
}

func reasonPtr(r txrx.DisconnectReason) *txrx.DisconnectReason { return &r }

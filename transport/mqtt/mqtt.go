// Package mqtt bridges Lotus topics onto an MQTT broker using paho.golang.
// Outbound events are published as JSON; inbound events and asynchronously
// delivered tool results are routed to caller-supplied handlers.
package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
)

// Config holds broker connection settings.
type Config struct {
	// Broker is the broker URL, e.g. mqtt://host:1883 or mqtts://host:8883.
	Broker string
	// ClientID identifies this node to the broker.
	ClientID string
	Username string
	Password string
	// KeepAlive in seconds; defaults to 30.
	KeepAlive uint16
}

// Handlers receive inbound traffic. Nil handlers skip the corresponding
// subscription.
type Handlers struct {
	// OnInboundEvent is called for every event on the inbound events topic.
	OnInboundEvent func(ev core.InboundEvent)
	// OnToolResult is called for every asynchronously delivered tool result.
	OnToolResult func(ev core.ToolResultEvent)
}

// Transport connects Lotus to an MQTT broker. It implements core.Publisher
// for the outbound topics and dispatches subscribed topics to Handlers.
type Transport struct {
	cfg      Config
	handlers Handlers
	logger   logging.Logger
	cm       *autopaho.ConnectionManager
}

// New creates a Transport but does not connect; call Start.
func New(cfg Config, handlers Handlers, logger logging.Logger) *Transport {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 30
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "lotus-" + core.NewID()[:8]
	}
	return &Transport{cfg: cfg, handlers: handlers, logger: logger}
}

var _ core.Publisher = (*Transport)(nil)

// Start connects to the broker and subscribes the handler topics. It returns
// once the connection manager is running; reconnects are handled in the
// background for the lifetime of ctx.
func (t *Transport) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(t.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       t.cfg.KeepAlive,
		ConnectUsername: t.cfg.Username,
		ConnectPassword: []byte(t.cfg.Password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			t.logger.Info("mqtt connected to broker", "broker", t.cfg.Broker)
			if err := t.subscribe(ctx, cm); err != nil {
				t.logger.Error("mqtt subscribe failed", "error", err.Error())
			}
		},
		OnConnectError: func(err error) {
			t.logger.Warn("mqtt connection error", "error", err.Error())
		},
		ClientConfig: paho.ClientConfig{
			ClientID: t.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					t.dispatch(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	t.cm = cm

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background.
		t.logger.Warn("mqtt initial connection timed out, retrying in background", "error", err.Error())
	}

	return nil
}

// Stop disconnects from the broker.
func (t *Transport) Stop(ctx context.Context) error {
	if t.cm == nil {
		return nil
	}
	return t.cm.Disconnect(ctx)
}

// Publish implements core.Publisher, marshaling payload as JSON at QoS 1.
func (t *Transport) Publish(ctx context.Context, topic string, payload any) error {
	if t.cm == nil {
		return fmt.Errorf("mqtt transport not started")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}

	if _, err := t.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: data,
		QoS:     1,
	}); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}

	return nil
}

func (t *Transport) subscribe(ctx context.Context, cm *autopaho.ConnectionManager) error {
	var subs []paho.SubscribeOptions
	if t.handlers.OnInboundEvent != nil {
		subs = append(subs, paho.SubscribeOptions{Topic: core.TopicInboundEvents, QoS: 1})
	}
	if t.handlers.OnToolResult != nil {
		subs = append(subs, paho.SubscribeOptions{Topic: core.TopicToolResults, QoS: 1})
	}
	if len(subs) == 0 {
		return nil
	}

	_, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs})
	return err
}

func (t *Transport) dispatch(topic string, payload []byte) {
	switch topic {
	case core.TopicInboundEvents:
		if t.handlers.OnInboundEvent == nil {
			return
		}
		var ev core.InboundEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.logger.Warn("mqtt inbound event payload invalid", "error", err.Error(), "size", len(payload))
			return
		}
		t.handlers.OnInboundEvent(ev)

	case core.TopicToolResults:
		if t.handlers.OnToolResult == nil {
			return
		}
		var ev core.ToolResultEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.logger.Warn("mqtt tool result payload invalid", "error", err.Error(), "size", len(payload))
			return
		}
		t.handlers.OnToolResult(ev)

	default:
		t.logger.Debug("mqtt message on unhandled topic", "topic", topic, "size", len(payload))
	}
}

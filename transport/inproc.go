// Package transport provides pub/sub transports for Lotus events. The
// in-process Bus is suitable for tests, examples and single-binary embedding;
// the mqtt subpackage bridges the same topics onto an MQTT broker.
package transport

import (
	"context"
	"sync"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
)

// Message is one published payload paired with its topic.
type Message struct {
	Topic   string
	Payload any
}

// Bus is an in-process publish/subscribe fan-out implementing core.Publisher.
// Delivery blocks on full subscriber buffers until the publish context is
// cancelled; subscribers that fall behind stall their publishers rather than
// silently losing events.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string][]chan Message
	bufferSize int
	logger     logging.Logger
}

// BusOptions configures a Bus.
type BusOptions struct {
	// BufferSize sets per-subscription channel buffering.
	BufferSize int
	// Logger receives structured logs. Defaults to NoOp.
	Logger logging.Logger
}

// NewBus constructs an in-process bus with optional overrides.
func NewBus(optFns ...func(o *BusOptions)) *Bus {
	opts := BusOptions{
		BufferSize: 64,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{
		subs:       make(map[string][]chan Message),
		bufferSize: opts.BufferSize,
		logger:     opts.Logger,
	}
}

var _ core.Publisher = (*Bus)(nil)

// Publish delivers payload to every current subscriber of topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	targets := make([]chan Message, len(b.subs[topic]))
	copy(targets, b.subs[topic])
	b.mu.RUnlock()

	msg := Message{Topic: topic, Payload: payload}
	for _, ch := range targets {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.logger.Debug("bus published", "topic", topic, "subscribers", len(targets))

	return nil
}

// Subscribe registers interest in a topic. The returned cancel function
// removes the subscription; the channel is left open so concurrent publishes
// can never hit a closed channel, it simply stops receiving.
func (b *Bus) Subscribe(topic string) (<-chan Message, func()) {
	ch := make(chan Message, b.bufferSize)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.subs[topic]
			for i, sub := range subs {
				if sub == ch {
					b.subs[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}

	return ch, cancel
}

package core

import "context"

// Publisher is the outbound half of the pub/sub transport. Payloads are
// JSON-serializable values; adapters own encoding and delivery semantics.
// Durability is a transport responsibility, not a core one.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	ch1, cancel1 := bus.Subscribe(core.TopicResponses)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(core.TopicResponses)
	defer cancel2()

	payload := core.NewResponseEvent("s1", "hello")
	require.NoError(t, bus.Publish(context.Background(), core.TopicResponses, payload))

	for _, ch := range []<-chan Message{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal(t, core.TopicResponses, msg.Topic)
			assert.Equal(t, payload, msg.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive message")
		}
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := NewBus()
	thoughts, cancel := bus.Subscribe(core.TopicThoughts)
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), core.TopicResponses, "other"))

	select {
	case <-thoughts:
		t.Fatal("message leaked across topics")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(core.TopicThoughts)
	cancel()
	cancel() // double cancel is safe

	require.NoError(t, bus.Publish(context.Background(), core.TopicThoughts, "dropped"))

	select {
	case <-ch:
		t.Fatal("cancelled subscription received message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), "nobody/home", 42))
}

func TestBus_PublishHonorsContextWhenBufferFull(t *testing.T) {
	bus := NewBus(func(o *BusOptions) { o.BufferSize = 1 })
	_, cancel := bus.Subscribe(core.TopicThoughts)
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), core.TopicThoughts, 1))

	ctx, done := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer done()
	err := bus.Publish(ctx, core.TopicThoughts, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblekit/pebble2/event"
)

func TestSubscribeDeliversInRegistrationOrder(t *testing.T) {
	b := event.NewBus()
	var order []int
	b.Subscribe("k", func(any) { order = append(order, 1) })
	b.Subscribe("k", func(any) { order = append(order, 2) })
	b.Subscribe("k", func(any) { order = append(order, 3) })

	b.Broadcast("k", "ping")
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := event.NewBus()
	count := 0
	unsub := b.Subscribe("k", func(any) { count++ })
	b.Broadcast("k", nil)
	unsub()
	b.Broadcast("k", nil)
	assert.Equal(t, 1, count)
}

func TestHandlerCanUnsubscribeSelfMidBroadcast(t *testing.T) {
	b := event.NewBus()
	var unsub func()
	calls := 0
	unsub = b.Subscribe("k", func(any) {
		calls++
		unsub()
	})
	b.Broadcast("k", nil) // snapshot already taken; this call still fires once
	b.Broadcast("k", nil) // unsubscribed by now, should not fire again
	assert.Equal(t, 1, calls)
}

func TestWaitForEventAutoUnsubscribes(t *testing.T) {
	b := event.NewBus()
	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Broadcast("k", "hello")
	}()
	got, err := b.WaitForEvent(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	// A second broadcast should reach nobody: the wait already unsubscribed.
	b.Broadcast("k", "ignored")
}

func TestWaitForEventTimeout(t *testing.T) {
	b := event.NewBus()
	_, err := b.WaitForEvent(context.Background(), "k", 10*time.Millisecond)
	assert.ErrorIs(t, err, event.ErrTimeout)
}

func TestQueueGetAndClose(t *testing.T) {
	b := event.NewBus()
	q := b.QueueEvents("k", 4)
	b.Broadcast("k", 1)
	b.Broadcast("k", 2)

	v1, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	q.Close()
	q.Close() // idempotent

	// Close still lets Get drain what was already queued.
	v2, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	_, err = q.Get(time.Second)
	assert.Error(t, err)
}

func TestQueueIter(t *testing.T) {
	b := event.NewBus()
	q := b.QueueEvents("k", 4)
	b.Broadcast("k", "a")
	b.Broadcast("k", "b")
	q.Close()

	var got []any
	q.Iter(func(ev any) bool {
		got = append(got, ev)
		return true
	})
	assert.Equal(t, []any{"a", "b"}, got)
}

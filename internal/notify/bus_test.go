package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()

	ch, cancel := bus.Subscribe("note-update:1")
	defer cancel()

	bus.Publish("note-update:1", "notes updated for user 1")

	evt := receive(t, ch)
	assert.Equal(t, "note-update:1", evt.Topic)
	assert.Equal(t, "notes updated for user 1", evt.Payload)
}

func TestBusTopicIsolation(t *testing.T) {
	bus := New()

	ch1, cancel1 := bus.Subscribe("note-update:1")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("note-update:2")
	defer cancel2()

	bus.Publish("note-update:2", "notes updated for user 2")

	evt := receive(t, ch2)
	assert.Equal(t, "note-update:2", evt.Topic)

	select {
	case evt := <-ch1:
		t.Fatalf("unexpected event on other topic: %+v", evt)
	default:
	}
}

func TestBusNoReplay(t *testing.T) {
	bus := New()

	// Published before anyone subscribes: gone.
	bus.Publish("note-update:1", "early")

	ch, cancel := bus.Subscribe("note-update:1")
	defer cancel()

	select {
	case evt := <-ch:
		t.Fatalf("subscriber saw event from before subscription: %+v", evt)
	default:
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := New()

	ch, cancel := bus.Subscribe("note-update:1")
	cancel()

	// Publishing after cancel must not panic or deliver.
	bus.Publish("note-update:1", "late")

	_, open := <-ch
	require.False(t, open, "channel should be closed after cancel")
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := New()

	_, cancel := bus.Subscribe("note-update:1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		// More events than the subscriber buffer holds; Publish must not
		// block even though nobody is reading.
		for i := 0; i < 100; i++ {
			bus.Publish("note-update:1", "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestBusFanOut(t *testing.T) {
	bus := New()

	ch1, cancel1 := bus.Subscribe("note-update:7")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("note-update:7")
	defer cancel2()

	bus.Publish("note-update:7", "notes updated for user 7")

	assert.Equal(t, "notes updated for user 7", receive(t, ch1).Payload)
	assert.Equal(t, "notes updated for user 7", receive(t, ch2).Payload)
}

package eventbus

import (
	"testing"
	"time"

	"pkt.systems/tabstack/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("s1")
	defer cancel()

	event := schema.NavEvent{SessionID: "s1", Type: schema.NavEventSelected, ActiveTab: "home"}
	bus.OnNavEvent(event)

	select {
	case got := <-ch:
		if got.Type != schema.NavEventSelected {
			t.Fatalf("expected selected event, got %v", got.Type)
		}
		if got.ActiveTab != event.ActiveTab {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishIsSessionScoped(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("s1")
	defer cancel()
	bus.OnNavEvent(schema.NavEvent{SessionID: "s2", Type: schema.NavEventHistory})
	select {
	case got := <-ch:
		t.Fatalf("unexpected event for other session: %+v", got)
	default:
	}
	if bus.Sessions() != 1 {
		t.Fatalf("expected one session, got %d", bus.Sessions())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("s1")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if bus.Sessions() != 0 {
		t.Fatalf("expected session removed")
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe("s1")
	defer cancel()

	bus.OnNavEvent(schema.NavEvent{SessionID: "s1"})
	done := make(chan struct{})
	go func() {
		bus.OnNavEvent(schema.NavEvent{SessionID: "s1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}

package observer

import (
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("match-1", []EventType{EventTypeSnapshot})
	defer b.Unsubscribe(sub)

	// Give the broadcaster goroutine a moment to register the subscription.
	time.Sleep(10 * time.Millisecond)

	b.BroadcastSnapshot("match-1", map[string]interface{}{"cycle": 5})

	select {
	case evt := <-sub.Channel:
		if evt.Type != EventTypeSnapshot || evt.SessionID != "match-1" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestSubscribeFiltersOtherSessions(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("match-1", nil)
	defer b.Unsubscribe(sub)
	time.Sleep(10 * time.Millisecond)

	b.BroadcastSnapshot("match-2", map[string]interface{}{"cycle": 1})

	select {
	case evt := <-sub.Channel:
		t.Fatalf("unexpected event for a different session: %+v", evt)
	case <-time.After(100 * time.Millisecond):
		// expected: nothing arrives
	}
}

func TestSubscribeFiltersEventType(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("", []EventType{EventTypeMatch})
	defer b.Unsubscribe(sub)
	time.Sleep(10 * time.Millisecond)

	b.BroadcastAff("m", 1, 'x')

	select {
	case evt := <-sub.Channel:
		t.Fatalf("unexpected aff event delivered to a match-only subscriber: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastMatchEventMergesDetails(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("", nil)
	defer b.Unsubscribe(sub)
	time.Sleep(10 * time.Millisecond)

	b.BroadcastMatchEvent("m", "finished", map[string]interface{}{"winner": 3})

	select {
	case evt := <-sub.Channel:
		if evt.Data["event"] != "finished" || evt.Data["winner"] != 3 {
			t.Errorf("data = %+v", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for match event")
	}
}

func TestSubscriptionCountTracksActiveSubs(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	if b.SubscriptionCount() != 0 {
		t.Fatalf("SubscriptionCount = %d, want 0", b.SubscriptionCount())
	}
	sub := b.Subscribe("", nil)
	time.Sleep(10 * time.Millisecond)
	if b.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount = %d, want 1", b.SubscriptionCount())
	}
	b.Unsubscribe(sub)
	time.Sleep(10 * time.Millisecond)
	if b.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount = %d, want 0 after unsubscribe", b.SubscriptionCount())
	}
}

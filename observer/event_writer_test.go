package observer

import (
	"testing"
	"time"
)

func TestAffWriterHandlerBuffersBytes(t *testing.T) {
	w := NewAffWriter(nil, "m")
	h := w.Handler()

	h('H')
	h('i')

	got := w.GetBufferAndClear()
	if string(got) != "Hi" {
		t.Errorf("buffer = %q, want %q", got, "Hi")
	}

	if again := w.GetBufferAndClear(); len(again) != 0 {
		t.Errorf("buffer should be empty after GetBufferAndClear, got %q", again)
	}
}

func TestAffWriterHandlerBroadcasts(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("m", []EventType{EventTypeAff})
	defer b.Unsubscribe(sub)
	time.Sleep(10 * time.Millisecond)

	w := NewAffWriter(b, "m")
	w.Handler()('z')

	select {
	case evt := <-sub.Channel:
		if evt.Type != EventTypeAff || evt.SessionID != "m" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for aff broadcast")
	}
}

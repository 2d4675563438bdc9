package hub

import (
	"encoding/json"
	"testing"
)

func TestDirectChannelIsSymmetric(t *testing.T) {
	if DirectChannel(7, 3) != DirectChannel(3, 7) {
		t.Fatal("both parties must land on the same channel")
	}
	if DirectChannel(1, 2) == GroupChannel(1) {
		t.Fatal("direct and group channels must not collide")
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := make(Client, 1)
	b := make(Client, 1)
	h.Subscribe("group:1", a)
	h.Subscribe("group:1", b)

	other := make(Client, 1)
	h.Subscribe("group:2", other)

	h.Broadcast("group:1", Event{Type: "message", Payload: "hi"})

	for _, client := range []Client{a, b} {
		select {
		case raw := <-client:
			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ev.Type != "message" {
				t.Fatalf("type = %q, want message", ev.Type)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	select {
	case <-other:
		t.Fatal("event leaked to another channel")
	default:
	}
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := NewHub()
	c := make(Client, 1)
	h.Subscribe("dm:1:2", c)
	h.Unsubscribe("dm:1:2", c)

	if _, ok := <-c; ok {
		t.Fatal("client channel should be closed")
	}

	// Broadcasting to the now-empty channel is a no-op.
	h.Broadcast("dm:1:2", Event{Type: "message"})
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	full := make(Client) // unbuffered and never read
	h.Subscribe("group:9", full)

	done := make(chan struct{})
	go func() {
		h.Broadcast("group:9", Event{Type: "message"})
		close(done)
	}()
	<-done
}

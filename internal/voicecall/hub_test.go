package voicecall

import (
	"testing"
	"time"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ActiveClients() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d active clients, got %d", want, hub.ActiveClients())
}

func TestBroadcastDropsStalledClientOnce(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	// Unbuffered send channel with no reader: the first delivery attempt
	// must evict the client instead of panicking.
	client := &Client{
		Hub:    hub,
		UserID: "user-1",
		Send:   make(chan []byte),
	}
	hub.register <- client
	waitForClients(t, hub, 1)

	hub.Broadcast(map[string]interface{}{"type": "activity", "event": "QUERY_ANSWERED"})
	waitForClients(t, hub, 0)

	// A second sweep after eviction must be a no-op, not a double close.
	hub.Broadcast(map[string]interface{}{"type": "activity", "event": "QUERY_ANSWERED"})
	hub.Send("user-1", map[string]interface{}{"type": "activity"})

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Errorf("expected send channel closed after eviction, got a frame")
		}
	case <-time.After(2 * time.Second):
		t.Errorf("send channel was never closed for the evicted client")
	}
}

func TestSendReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	target := &Client{Hub: hub, UserID: "user-1", Send: make(chan []byte, 1)}
	other := &Client{Hub: hub, UserID: "user-2", Send: make(chan []byte, 1)}
	hub.register <- target
	hub.register <- other
	waitForClients(t, hub, 2)

	hub.Send("user-1", map[string]interface{}{"type": "activity"})

	select {
	case <-target.Send:
	case <-time.After(2 * time.Second):
		t.Fatalf("target never received the frame")
	}

	select {
	case frame := <-other.Send:
		t.Errorf("frame leaked to another user: %s", frame)
	default:
	}
}

package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   nil,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger)

	c1 := mockClient(hub, "alice")
	c2 := mockClient(hub, "bob")
	c3 := mockClient(hub, "alice")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}
	if got := hub.UserClientCount("alice"); got != 2 {
		t.Fatalf("expected 2 clients for alice, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c3)

	if got := hub.UserClientCount("alice"); got != 0 {
		t.Fatalf("expected 0 clients for alice, got %d", got)
	}
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(testLogger)
	c := mockClient(hub, "alice")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestPublishReachesOnlyOwner(t *testing.T) {
	hub := NewHub(testLogger)

	alice1 := mockClient(hub, "alice")
	alice2 := mockClient(hub, "alice")
	bob := mockClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	hub.Publish("alice", NewMessage("note", "created", "n-1", map[string]any{"title": "Hello"}))

	for _, c := range []*Client{alice1, alice2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "note_created" {
				t.Errorf("expected type note_created, got %s", got.Type)
			}
			if got.ID != "n-1" {
				t.Errorf("expected id n-1, got %s", got.ID)
			}
			payload, _ := got.Data.(map[string]any)
			if payload["title"] != "Hello" {
				t.Errorf("expected data title Hello, got %v", got.Data)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case data := <-bob.send:
		t.Fatalf("bob received another user's message: %s", data)
	default:
	}
}

func TestPublishNoClients(t *testing.T) {
	hub := NewHub(testLogger)
	// Should not panic
	hub.Publish("nobody", NewMessage("note", "deleted", "n-1", nil))
}

func TestPublishFullBuffer(t *testing.T) {
	hub := NewHub(testLogger)

	c := mockClient(hub, "alice")
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Publish("alice", NewMessage("note", "updated", "fill", nil))
	}

	// This should drop the message, not panic or block
	hub.Publish("alice", NewMessage("note", "updated", "dropped", nil))

	count := 0
	for len(c.send) > 0 {
		<-c.send
		count++
	}
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("note", "updated", "n-5", nil)
	if msg.Type != "note_updated" {
		t.Errorf("expected type note_updated, got %s", msg.Type)
	}
	if msg.Entity != "note" {
		t.Errorf("expected entity note, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != "n-5" {
		t.Errorf("expected id n-5, got %s", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger)
	var wg sync.WaitGroup

	// Spawn goroutines that register, publish, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "user-a"
			if i%2 == 0 {
				user = "user-b"
			}
			c := mockClient(hub, user)
			hub.Register(c)
			hub.Publish(user, NewMessage("note", "created", "x", nil))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newClient() *Client {
	return &Client{ID: uuid.New().String(), Send: make(chan []byte, 4)}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := newClient(), newClient()
	hub.Register(a)
	hub.Register(b)

	id := uuid.New()
	hub.AssessmentChanged(id)

	for _, client := range []*Client{a, b} {
		select {
		case data := <-client.Send:
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ev.Type != "changed" || ev.Topic != TopicAssessments || ev.ResourceID != id.String() {
				t.Errorf("event = %+v", ev)
			}
		default:
			t.Fatalf("client %s received nothing", client.ID)
		}
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := &Client{ID: "slow", Send: make(chan []byte)} // unbuffered, never read
	hub.Register(slow)

	// Must not block.
	hub.AssessmentChanged(uuid.New())
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newClient()
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
	if _, open := <-c.Send; open {
		t.Error("Send channel not closed")
	}

	// Double unregister is a no-op.
	hub.Unregister(c)
}

package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.employees)
	assert.NotNil(t, hub.firehose)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func runHub(t *testing.T, hub *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client := &Client{
		hub:        hub,
		employeeID: "emp-001",
		send:       make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.Subscribers("emp-001"))

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.Subscribers("emp-001"))
}

func TestHub_BroadcastToEmployee(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client := &Client{
		hub:        hub,
		employeeID: "emp-001",
		send:       make(chan []byte, 10),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	testData := map[string]string{"state": "processing"}
	hub.Broadcast("emp-001", EventAttemptState, testData)

	select {
	case msg := <-client.send:
		var event Event
		err := json.Unmarshal(msg, &event)
		assert.NoError(t, err)
		assert.Equal(t, EventAttemptState, event.Type)
		assert.Equal(t, "emp-001", event.EmployeeID)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_EmployeeIsolation(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client1 := &Client{
		hub:        hub,
		employeeID: "emp-001",
		send:       make(chan []byte, 10),
	}

	client2 := &Client{
		hub:        hub,
		employeeID: "emp-002",
		send:       make(chan []byte, 10),
	}

	hub.register <- client1
	hub.register <- client2
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("emp-001", EventAttemptCompleted, map[string]string{"verdict": "verified"})

	select {
	case <-client1.send:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("client1 should receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not receive emp-001 events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_FirehoseSeesEverything(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	firehose := &Client{
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.register <- firehose
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("emp-001", EventAttemptCompleted, map[string]string{"verdict": "verified"})
	hub.Broadcast("", EventQualityTick, map[string]float64{"score": 0.82})

	received := 0
	deadline := time.After(1 * time.Second)
	for received < 2 {
		select {
		case <-firehose.send:
			received++
		case <-deadline:
			t.Fatalf("firehose received %d of 2 events", received)
		}
	}
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	// Buffer of one, never drained.
	client := &Client{
		hub:        hub,
		employeeID: "emp-001",
		send:       make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("emp-001", EventAttemptState, "a")
	hub.Broadcast("emp-001", EventAttemptState, "b")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 0, hub.Subscribers("emp-001"))
}

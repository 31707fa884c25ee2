// Package ws streams live verification progress to dashboard clients.
// Clients subscribe to one employee's feed or, with no employee id, to
// the firehose of every attempt.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Hub struct {
	clients    map[*Client]bool
	employees  map[string]map[*Client]bool
	firehose   map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		employees:  make(map[string]map[*Client]bool),
		firehose:   make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if client.employeeID == "" {
		h.firehose[client] = true
		return
	}
	if h.employees[client.employeeID] == nil {
		h.employees[client.employeeID] = make(map[*Client]bool)
	}
	h.employees[client.employeeID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.firehose, client)
	if set := h.employees[client.employeeID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.employees, client.employeeID)
		}
	}
	close(client.send)
}

func (h *Hub) deliver(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	send := func(client *Client) {
		select {
		case client.send <- message:
		default:
			// Slow consumer, drop it.
			delete(h.clients, client)
			delete(h.firehose, client)
			if set := h.employees[client.employeeID]; set != nil {
				delete(set, client)
			}
			close(client.send)
		}
	}

	for client := range h.firehose {
		send(client)
	}
	if event.EmployeeID != "" {
		for client := range h.employees[event.EmployeeID] {
			send(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.employees = make(map[string]map[*Client]bool)
	h.firehose = make(map[*Client]bool)
}

// Broadcast queues one event, dropping it when the hub is saturated.
func (h *Hub) Broadcast(employeeID string, eventType EventType, data interface{}) {
	event := Event{
		EmployeeID: employeeID,
		Type:       eventType,
		Data:       data,
		Timestamp:  time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

// Subscribers counts clients watching one employee's feed.
func (h *Hub) Subscribers(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if employeeID == "" {
		return len(h.firehose)
	}
	return len(h.employees[employeeID])
}

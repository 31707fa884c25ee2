package ws

import (
	"context"

	"github.com/civicworks/presence/internal/checkin"
)

// Forward pumps orchestrator events into the hub until the context is
// cancelled or the channel closes. Quality snapshots are kiosk-level,
// not tied to one employee, so they go out unkeyed.
func Forward(ctx context.Context, hub *Hub, events <-chan checkin.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Snapshot != nil {
				hub.Broadcast("", EventQualityTick, ev)
				continue
			}
			hub.Broadcast("", EventAttemptState, ev)
		}
	}
}

// Notifier adapts the hub to the narrow interfaces handlers accept.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) AttemptCompleted(employeeID string, result checkin.Result) {
	n.hub.Broadcast(employeeID, EventAttemptCompleted, result)
}

func (n *Notifier) EnrollmentProgress(employeeID string, data interface{}) {
	n.hub.Broadcast(employeeID, EventEnrollmentProgress, data)
}

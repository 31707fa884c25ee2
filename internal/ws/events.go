package ws

import (
	"time"
)

type EventType string

const (
	EventQualityTick        EventType = "quality.tick"
	EventAttemptState       EventType = "attempt.state"
	EventAttemptCompleted   EventType = "attempt.completed"
	EventEnrollmentProgress EventType = "enrollment.progress"
)

// Event is one frame pushed to subscribed dashboard clients. An empty
// EmployeeID means the event is not tied to one person and only reaches
// firehose subscribers.
type Event struct {
	EmployeeID string      `json:"employee_id,omitempty"`
	Type       EventType   `json:"type"`
	Data       interface{} `json:"data"`
	Timestamp  time.Time   `json:"timestamp"`
}

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantHasError  bool
	}{
		{
			name: "location sampled event",
			event: Event{
				AttemptID:  uuid.New(),
				EmployeeID: "emp-1",
				EventType:  EventLocationSampled,
				Success:    true,
				Metadata: map[string]string{
					"pings": "4",
				},
			},
			wantEventType: string(EventLocationSampled),
		},
		{
			name: "spoofing flagged event",
			event: Event{
				AttemptID:  uuid.New(),
				EmployeeID: "emp-1",
				EventType:  EventSpoofingFlagged,
				Success:    false,
				Metadata: map[string]string{
					"indicators": "2",
				},
			},
			wantEventType: string(EventSpoofingFlagged),
		},
		{
			name: "failed face verification",
			event: Event{
				AttemptID:  uuid.New(),
				EmployeeID: "emp-2",
				EventType:  EventFaceVerified,
				Success:    false,
				Error:      "face not recognized",
			},
			wantEventType: string(EventFaceVerified),
			wantHasError:  true,
		},
		{
			name: "check-in committed",
			event: Event{
				AttemptID:  uuid.New(),
				EmployeeID: "emp-3",
				EventType:  EventCheckInCommitted,
				Success:    true,
				Metadata: map[string]string{
					"confidence": "82",
				},
			},
			wantEventType: string(EventCheckInCommitted),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, nil)
			logger := slog.New(handler)

			auditLogger := NewSlogLogger(logger)
			err := auditLogger.Log(context.Background(), tt.event)

			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, tt.event.EmployeeID)
			assert.Contains(t, output, "audit_event")

			if tt.wantHasError {
				assert.Contains(t, output, tt.event.Error)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	auditLogger := NewSlogLogger(logger)
	event := Event{
		AttemptID:  uuid.New(),
		EmployeeID: "emp-1",
		EventType:  EventLocationSampled,
		Success:    true,
	}

	err := auditLogger.Log(context.Background(), event)
	require.NoError(t, err)

	var logEntry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	err = json.Unmarshal([]byte(lines[0]), &logEntry)
	require.NoError(t, err)

	eventID, ok := logEntry["event_id"].(string)
	assert.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)
}

func TestSlogLogger_Log_UsesProvidedIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	auditLogger := NewSlogLogger(logger)
	expectedID := uuid.New()

	event := Event{
		ID:         expectedID,
		Timestamp:  time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC),
		AttemptID:  uuid.New(),
		EmployeeID: "emp-1",
		EventType:  EventCheckInCommitted,
		Success:    true,
	}

	err := auditLogger.Log(context.Background(), event)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), expectedID.String())
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}

	err := logger.Log(context.Background(), Event{
		AttemptID:  uuid.New(),
		EmployeeID: "emp-1",
		EventType:  EventAttemptRejected,
		Success:    false,
	})

	assert.NoError(t, err)
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONSerialization_OmitsEmptyFields(t *testing.T) {
	event := Event{
		AttemptID:  uuid.New(),
		EmployeeID: "emp-1",
		EventType:  EventLocationSampled,
		Success:    true,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "ip_address")
	assert.NotContains(t, jsonStr, "user_agent")
}

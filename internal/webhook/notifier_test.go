package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry(t *testing.T) {
	t.Helper()
	orig := deliveryRetry
	deliveryRetry = retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}
	t.Cleanup(func() { deliveryRetry = orig })
}

func TestNotifier_DeliversSignedPayload(t *testing.T) {
	const secret = "hr-shared-secret"

	var gotSignature, gotEvent string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Presence-Signature")
		gotEvent = r.Header.Get("X-Presence-Event")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(Config{URL: server.URL, Secret: secret}, testLogger())
	err := n.Notify(context.Background(), EventFlagged, domain.VerificationAttempt{
		EmployeeID: "emp-1",
		Verdict:    domain.VerdictSpoofingSuspected,
	})
	require.NoError(t, err)

	assert.Equal(t, EventFlagged, gotEvent)
	assert.True(t, Verify(secret, gotBody, gotSignature), "payload should verify against the shared secret")

	var payload EventPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, EventFlagged, payload.Type)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestNotifier_RetriesServerErrors(t *testing.T) {
	fastRetry(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(Config{URL: server.URL, Secret: "s"}, testLogger())
	err := n.Notify(context.Background(), EventFlagged, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotifier_GivesUpAfterExhaustion(t *testing.T) {
	fastRetry(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewNotifier(Config{URL: server.URL, Secret: "s"}, testLogger())
	err := n.Notify(context.Background(), EventFlagged, nil)
	assert.Error(t, err)
}

type recorderSpy struct {
	committed int
	flagged   int
	flagErr   error
}

func (r *recorderSpy) Commit(ctx context.Context, attempt domain.VerificationAttempt) error {
	r.committed++
	return nil
}

func (r *recorderSpy) Flag(ctx context.Context, attempt domain.VerificationAttempt) error {
	r.flagged++
	return r.flagErr
}

func TestNotifyingRecorder_FlagNotifies(t *testing.T) {
	fastRetry(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	spy := &recorderSpy{}
	rec := NewNotifyingRecorder(spy, NewNotifier(Config{URL: server.URL, Secret: "s"}, testLogger()))

	require.NoError(t, rec.Flag(context.Background(), domain.VerificationAttempt{EmployeeID: "emp-1"}))
	assert.Equal(t, 1, spy.flagged)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, rec.Commit(context.Background(), domain.VerificationAttempt{EmployeeID: "emp-1"}))
	assert.Equal(t, 1, spy.committed)
	assert.Equal(t, int32(1), calls.Load(), "commit does not notify")
}

func TestNotifyingRecorder_PersistenceFailureShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("notification sent despite Flag failure")
	}))
	defer server.Close()

	spy := &recorderSpy{flagErr: errors.New("db down")}
	rec := NewNotifyingRecorder(spy, NewNotifier(Config{URL: server.URL, Secret: "s"}, testLogger()))

	err := rec.Flag(context.Background(), domain.VerificationAttempt{})
	assert.Error(t, err)
	time.Sleep(20 * time.Millisecond)
}

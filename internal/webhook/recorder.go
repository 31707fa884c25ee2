package webhook

import (
	"context"

	"github.com/civicworks/presence/internal/domain"
)

// Recorder is the persistence surface this package decorates.
type Recorder interface {
	Commit(ctx context.Context, attempt domain.VerificationAttempt) error
	Flag(ctx context.Context, attempt domain.VerificationAttempt) error
}

// NotifyingRecorder stores attempts through the wrapped Recorder and
// additionally pushes flagged attempts to the webhook endpoint.
// Delivery failure never fails the flag itself; the attempt is already
// persisted for review when the notification goes out.
type NotifyingRecorder struct {
	next     Recorder
	notifier *Notifier
}

func NewNotifyingRecorder(next Recorder, notifier *Notifier) *NotifyingRecorder {
	return &NotifyingRecorder{next: next, notifier: notifier}
}

func (r *NotifyingRecorder) Commit(ctx context.Context, attempt domain.VerificationAttempt) error {
	return r.next.Commit(ctx, attempt)
}

func (r *NotifyingRecorder) Flag(ctx context.Context, attempt domain.VerificationAttempt) error {
	if err := r.next.Flag(ctx, attempt); err != nil {
		return err
	}
	_ = r.notifier.Notify(ctx, EventFlagged, attempt)
	return nil
}

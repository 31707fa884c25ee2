// Package checkin drives one attendance verification attempt end to
// end: preview quality gating, countdown, location sampling, multi-shot
// face verification, the remote location verdict and the final commit.
package checkin

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/presence/internal/audit"
	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/enrollment"
	"github.com/civicworks/presence/internal/facematch"
	"github.com/civicworks/presence/internal/mlclient"
	"github.com/civicworks/presence/internal/quality"
	"github.com/civicworks/presence/internal/spoof"
)

// FaceVerifier is the face-engine surface the orchestrator needs.
type FaceVerifier interface {
	Enroll(ctx context.Context, identityID, name string) (domain.EnrollmentStatus, error)
	VerifyIdentity(ctx context.Context, expectedIdentityID string) (domain.FaceMatchResult, error)
}

// PingCollector gathers the attempt's GPS ping series.
type PingCollector interface {
	Collect(ctx context.Context) ([]domain.LocationPing, error)
}

// VerdictClient obtains the authoritative remote location verdict.
type VerdictClient interface {
	VerifyLocation(ctx context.Context, req mlclient.VerifyLocationRequest) (*mlclient.VerifyLocationResponse, error)
}

// Recorder persists attempt outcomes. Commit stores an accepted
// check-in, Flag stores a spoofing-suspected attempt for admin review.
type Recorder interface {
	Commit(ctx context.Context, attempt domain.VerificationAttempt) error
	Flag(ctx context.Context, attempt domain.VerificationAttempt) error
}

// Config carries the orchestrator's timing and acceptance policy.
type Config struct {
	Window         Window
	Office         domain.Office
	Countdown      time.Duration
	Debounce       time.Duration
	DetectInterval time.Duration
	SuccessDismiss time.Duration
	ErrorReset     time.Duration
	// MinConfidence accepts a not-explicitly-verified verdict when the
	// geofence holds and remote confidence reaches this value.
	MinConfidence float64
	// MinZonePercent is the geofence-satisfied cutoff, in percent of
	// pings inside the office radius.
	MinZonePercent float64
}

// DefaultConfig returns the production timing policy for an office.
func DefaultConfig(office domain.Office) Config {
	return Config{
		Window:         DefaultWindow(),
		Office:         office,
		Countdown:      3 * time.Second,
		Debounce:       time.Second,
		DetectInterval: 50 * time.Millisecond,
		SuccessDismiss: 3 * time.Second,
		ErrorReset:     2 * time.Second,
		MinConfidence:  60,
		MinZonePercent: 70,
	}
}

// Deps are the collaborators one orchestrator instance owns. The
// camera is exclusively held by this instance while it runs.
type Deps struct {
	Camera   facematch.Camera
	Detector facematch.Detector
	Verifier FaceVerifier
	Sampler  PingCollector
	Verdicts VerdictClient
	Recorder Recorder
	Store    enrollment.Store
	Spoof    *spoof.Engine
	Audit    audit.Logger
}

// Orchestrator is the verification state machine. All derived preview
// state (stability, quality score) is written only here.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time

	estimator *quality.Estimator

	mu          sync.Mutex
	state       State
	lastSnap    quality.Snapshot
	lastCapture time.Time

	processing atomic.Bool

	events chan Event
}

func New(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if deps.Audit == nil {
		deps.Audit = &audit.NoOpLogger{}
	}
	return &Orchestrator{
		deps:      deps,
		cfg:       cfg,
		logger:    logger,
		clock:     time.Now,
		estimator: quality.NewEstimator(),
		state:     StateLoading,
		events:    make(chan Event, 64),
	}
}

// WithClock overrides the time source.
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	return o
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Events exposes the published snapshot and transition stream. Slow
// consumers lose events rather than stalling the detection loop.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Quality returns the latest preview snapshot.
func (o *Orchestrator) Quality() quality.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSnap
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.publish(Event{State: s})
}

func (o *Orchestrator) publish(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}

// Start acquires the camera and detection resources with a probe
// frame. Failure is fatal for the attempt and the user must retry
// explicitly.
func (o *Orchestrator) Start(ctx context.Context) error {
	frame, err := o.deps.Camera.Capture(ctx)
	if err != nil {
		o.setState(StateError)
		return domain.ErrCameraInit.WithError(err)
	}
	if _, err := o.deps.Detector.Detect(ctx, frame); err != nil {
		o.setState(StateError)
		return domain.ErrCameraInit.WithError(err)
	}

	o.setState(StateReady)
	return nil
}

// Run drives the continuous detection loop until the context ends.
// Ticks are skipped while an attempt is processing so the loop never
// races the multi-shot capture over the camera.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.DetectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if o.processing.Load() {
				continue
			}
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	frame, err := o.deps.Camera.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Warn("detection tick capture failed", "error", err)
		return
	}

	obs, err := o.deps.Detector.Detect(ctx, frame)
	if err != nil {
		o.logger.Warn("detection tick failed", "error", err)
		return
	}

	snap := o.estimator.Observe(obs)

	o.mu.Lock()
	o.lastSnap = snap
	state := o.state
	o.mu.Unlock()

	o.publish(Event{State: state, Snapshot: &snap})
}

// Enroll captures one enrollment sample, gated on preview quality.
func (o *Orchestrator) Enroll(ctx context.Context, identityID, name string) (domain.EnrollmentStatus, error) {
	if !o.processing.CompareAndSwap(false, true) {
		return domain.EnrollmentStatus{}, domain.ErrAttemptInProgress
	}
	defer o.processing.Store(false)

	if err := o.debounce(); err != nil {
		return domain.EnrollmentStatus{}, err
	}
	if snap := o.Quality(); !snap.CanProceed() {
		return domain.EnrollmentStatus{}, domain.ErrLowQuality
	}

	status, err := o.deps.Verifier.Enroll(ctx, identityID, name)

	_ = o.deps.Audit.Log(ctx, audit.Event{
		EmployeeID: identityID,
		EventType:  audit.EventEnrollmentSample,
		Success:    err == nil,
		Error:      errString(err),
		Metadata: map[string]string{
			"samples":  strconv.Itoa(status.SamplesCount),
			"required": strconv.Itoa(status.Required),
		},
	})
	if err == nil && status.Enrolled {
		_ = o.deps.Audit.Log(ctx, audit.Event{
			EmployeeID: identityID,
			EventType:  audit.EventEnrollmentComplete,
			Success:    true,
		})
	}

	return status, err
}

// MarkAttendance runs one full attendance attempt. Precondition
// refusals (window, enrollment, debounce) cost nothing; after the
// countdown it samples location, verifies the face, fetches the remote
// verdict and commits exactly once when both gates pass.
func (o *Orchestrator) MarkAttendance(ctx context.Context, identityID, name string) (Result, error) {
	now := o.clock()
	if !o.cfg.Window.Contains(now) {
		return Result{State: StateError, Verdict: domain.VerdictError}, domain.ErrOutsideWindow
	}

	enrolled, err := o.deps.Store.IsComplete(ctx, identityID)
	if err != nil {
		return Result{State: StateError, Verdict: domain.VerdictError}, domain.ErrInternal.WithError(err)
	}
	if !enrolled {
		// Routed to the enrollment flow by the caller; no collaborator
		// has been contacted at this point.
		return Result{State: StateError, Verdict: domain.VerdictError}, domain.ErrNotEnrolled
	}

	if !o.processing.CompareAndSwap(false, true) {
		return Result{State: o.State(), Verdict: domain.VerdictError}, domain.ErrAttemptInProgress
	}
	defer o.processing.Store(false)

	if err := o.debounce(); err != nil {
		return Result{State: StateReady, Verdict: domain.VerdictError}, err
	}
	if snap := o.Quality(); !snap.CanProceed() {
		return Result{State: StateReady, Verdict: domain.VerdictError}, domain.ErrLowQuality
	}

	// Fixed, visible countdown. Cancellable only by closing the
	// dialog, which cancels ctx.
	o.setState(StateCountdown)
	select {
	case <-ctx.Done():
		o.setState(StateReady)
		return Result{State: StateReady, Verdict: domain.VerdictError}, ctx.Err()
	case <-time.After(o.cfg.Countdown):
	}

	o.setState(StateProcessing)

	attempt := domain.VerificationAttempt{
		ID:           uuid.New(),
		EmployeeID:   identityID,
		EmployeeName: name,
		StartedAt:    now,
	}

	result, err := o.process(ctx, &attempt, now)

	switch result.State {
	case StateSuccess:
		o.setState(StateSuccess)
		o.resetAfter(o.cfg.SuccessDismiss)
	case StateSpoofing:
		// Terminal. No auto-reset; an administrator decision follows.
		o.setState(StateSpoofing)
	default:
		o.setState(StateError)
		o.resetAfter(o.cfg.ErrorReset)
	}

	return result, err
}

// process runs the sampled-and-verified middle of the attempt and
// classifies the outcome. It never returns a raw capability error.
func (o *Orchestrator) process(ctx context.Context, attempt *domain.VerificationAttempt, now time.Time) (Result, error) {
	pings, err := o.deps.Sampler.Collect(ctx)
	if err != nil {
		attempt.Verdict = domain.VerdictError
		o.auditReject(ctx, attempt, err)
		return Result{AttemptID: attempt.ID, State: StateError, Verdict: domain.VerdictError}, err
	}
	attempt.Pings = pings

	_ = o.deps.Audit.Log(ctx, audit.Event{
		AttemptID:  attempt.ID,
		EmployeeID: attempt.EmployeeID,
		EventType:  audit.EventLocationSampled,
		Success:    true,
		Metadata:   map[string]string{"pings": strconv.Itoa(len(pings))},
	})

	face, err := o.deps.Verifier.VerifyIdentity(ctx, attempt.EmployeeID)
	attempt.MatchResults = append(attempt.MatchResults, face)

	_ = o.deps.Audit.Log(ctx, audit.Event{
		AttemptID:  attempt.ID,
		EmployeeID: attempt.EmployeeID,
		EventType:  audit.EventFaceVerified,
		Success:    err == nil,
		Error:      errString(err),
	})
	if err != nil {
		attempt.Verdict = domain.VerdictError
		return Result{AttemptID: attempt.ID, State: StateError, Verdict: domain.VerdictError, Face: face}, err
	}

	report := o.deps.Spoof.Score(pings, o.cfg.Office)

	resp, err := o.deps.Verdicts.VerifyLocation(ctx, mlclient.VerifyLocationRequest{
		EmployeeID:     attempt.EmployeeID,
		EmployeeName:   attempt.EmployeeName,
		Pings:          pings,
		OfficeLat:      o.cfg.Office.Latitude,
		OfficeLng:      o.cfg.Office.Longitude,
		OfficeRadiusKm: o.cfg.Office.RadiusKm,
		CheckInTime:    now,
		FaceVerified:   true,
	})
	if err != nil {
		// No verdict means no check-in, never an implicit pass.
		attempt.Verdict = domain.VerdictError
		o.auditReject(ctx, attempt, err)
		return Result{AttemptID: attempt.ID, State: StateError, Verdict: domain.VerdictError, Face: face},
			domain.ErrVerdictUnavailable.WithError(err)
	}

	if resp.Status == string(spoof.StatusSpoofingSuspected) || report.Suspicious {
		indicators := resp.SpoofingIndicators
		if len(indicators) == 0 {
			indicators = report.Indicators
		}
		attempt.Verdict = domain.VerdictSpoofingSuspected
		attempt.Confidence = resp.Confidence
		attempt.Indicators = indicators

		if flagErr := o.deps.Recorder.Flag(ctx, *attempt); flagErr != nil {
			o.logger.Error("failed to record flagged attempt", "attempt_id", attempt.ID, "error", flagErr)
		}
		_ = o.deps.Audit.Log(ctx, audit.Event{
			AttemptID:  attempt.ID,
			EmployeeID: attempt.EmployeeID,
			EventType:  audit.EventSpoofingFlagged,
			Success:    false,
			Metadata:   map[string]string{"indicators": strconv.Itoa(len(indicators))},
		})

		return Result{
			AttemptID:      attempt.ID,
			State:          StateSpoofing,
			Verdict:        domain.VerdictSpoofingSuspected,
			Confidence:     resp.Confidence,
			Message:        resp.Message,
			Indicators:     indicators,
			RiskFactors:    resp.RiskFactors,
			AIAnalysis:     resp.AIAnalysis,
			Recommendation: resp.Recommendation,
			Face:           face,
			ZonePercentage: resp.Metrics.ZonePercentage,
		}, domain.ErrSpoofingSuspected
	}

	geofenceOK := resp.Metrics.ZonePercentage >= o.cfg.MinZonePercent
	accepted := resp.Verified || (geofenceOK && resp.Confidence >= o.cfg.MinConfidence)
	if !accepted {
		attempt.Verdict = domain.VerdictLowConfidence
		attempt.Confidence = resp.Confidence
		o.auditReject(ctx, attempt, domain.ErrLowConfidence)
		return Result{
			AttemptID:      attempt.ID,
			State:          StateError,
			Verdict:        domain.VerdictLowConfidence,
			Confidence:     resp.Confidence,
			Message:        resp.Message,
			RiskFactors:    resp.RiskFactors,
			Recommendation: resp.Recommendation,
			Face:           face,
			ZonePercentage: resp.Metrics.ZonePercentage,
		}, domain.ErrLowConfidence
	}

	attempt.Verdict = domain.VerdictVerified
	attempt.Confidence = resp.Confidence
	if err := o.deps.Recorder.Commit(ctx, *attempt); err != nil {
		attempt.Verdict = domain.VerdictError
		o.auditReject(ctx, attempt, err)
		return Result{AttemptID: attempt.ID, State: StateError, Verdict: domain.VerdictError, Face: face},
			domain.ErrInternal.WithError(err)
	}

	_ = o.deps.Audit.Log(ctx, audit.Event{
		AttemptID:  attempt.ID,
		EmployeeID: attempt.EmployeeID,
		EventType:  audit.EventCheckInCommitted,
		Success:    true,
		Metadata:   map[string]string{"confidence": strconv.FormatFloat(resp.Confidence, 'f', 0, 64)},
	})

	return Result{
		AttemptID:      attempt.ID,
		State:          StateSuccess,
		Verdict:        domain.VerdictVerified,
		Confidence:     resp.Confidence,
		Message:        resp.Message,
		RiskFactors:    resp.RiskFactors,
		AIAnalysis:     resp.AIAnalysis,
		Recommendation: resp.Recommendation,
		Face:           face,
		ZonePercentage: resp.Metrics.ZonePercentage,
	}, nil
}

func (o *Orchestrator) debounce() error {
	now := o.clock()
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.lastCapture.IsZero() && now.Sub(o.lastCapture) < o.cfg.Debounce {
		return domain.ErrCaptureTooSoon
	}
	o.lastCapture = now
	return nil
}

// resetAfter schedules the return to ready once the outcome has been
// displayed.
func (o *Orchestrator) resetAfter(delay time.Duration) {
	time.AfterFunc(delay, func() {
		o.mu.Lock()
		terminal := o.state == StateSuccess || o.state == StateError
		o.mu.Unlock()
		if terminal {
			o.estimator.Reset()
			o.setState(StateReady)
		}
	})
}

func (o *Orchestrator) auditReject(ctx context.Context, attempt *domain.VerificationAttempt, cause error) {
	_ = o.deps.Audit.Log(ctx, audit.Event{
		AttemptID:  attempt.ID,
		EmployeeID: attempt.EmployeeID,
		EventType:  audit.EventAttemptRejected,
		Success:    false,
		Error:      errString(cause),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return err.Error()
}

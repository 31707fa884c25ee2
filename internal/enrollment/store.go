// Package enrollment holds biometric templates keyed by identity. The
// store is injected into both the enrollment and verification flows;
// nothing else mutates stored templates.
package enrollment

import (
	"context"
	"sync"
	"time"

	"github.com/civicworks/presence/internal/domain"
)

// Store is the template store contract. Append is the only write path
// until an explicit re-enrollment resets the record.
type Store interface {
	// Get returns the record for an identity, ErrEnrollmentNotFound
	// when the identity has never enrolled.
	Get(ctx context.Context, identityID string) (*domain.EnrollmentRecord, error)

	// Append adds one template and returns the updated sample count.
	// Once the record is complete it refuses further appends with
	// ErrEnrollmentComplete.
	Append(ctx context.Context, identityID, name string, tpl domain.Template) (int, error)

	// IsComplete reports whether the identity has the required sample
	// count. Unknown identities are simply not complete.
	IsComplete(ctx context.Context, identityID string) (bool, error)

	// Status returns the enrollment-completeness summary.
	Status(ctx context.Context, identityID string) (domain.EnrollmentStatus, error)

	// Reset removes the identity's templates so enrollment can be
	// explicitly re-run.
	Reset(ctx context.Context, identityID string) error

	// All returns every enrollment record, used by the match engine to
	// compare a capture against the whole enrolled population.
	All(ctx context.Context) ([]domain.EnrollmentRecord, error)
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.EnrollmentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.EnrollmentRecord)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, identityID string) (*domain.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identityID]
	if !ok {
		return nil, domain.ErrEnrollmentNotFound
	}
	cp := *rec
	cp.Templates = append([]domain.Template(nil), rec.Templates...)
	return &cp, nil
}

func (s *MemoryStore) Append(ctx context.Context, identityID, name string, tpl domain.Template) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}

	rec, ok := s.records[identityID]
	if !ok {
		rec = &domain.EnrollmentRecord{
			IdentityID: identityID,
			Name:       name,
			CreatedAt:  now,
		}
		s.records[identityID] = rec
	}

	if rec.IsEnrolled() {
		return len(rec.Templates), domain.ErrEnrollmentComplete
	}

	rec.Templates = append(rec.Templates, tpl)
	rec.UpdatedAt = now
	if name != "" {
		rec.Name = name
	}

	return len(rec.Templates), nil
}

func (s *MemoryStore) IsComplete(ctx context.Context, identityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identityID]
	if !ok {
		return false, nil
	}
	return rec.IsEnrolled(), nil
}

func (s *MemoryStore) Status(ctx context.Context, identityID string) (domain.EnrollmentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	if rec, ok := s.records[identityID]; ok {
		count = len(rec.Templates)
	}

	return domain.EnrollmentStatus{
		SamplesCount: count,
		Required:     domain.RequiredEnrollmentSamples,
		Enrolled:     count >= domain.RequiredEnrollmentSamples,
	}, nil
}

func (s *MemoryStore) Reset(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[identityID]; !ok {
		return domain.ErrEnrollmentNotFound
	}
	delete(s.records, identityID)
	return nil
}

func (s *MemoryStore) All(ctx context.Context) ([]domain.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EnrollmentRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		cp.Templates = append([]domain.Template(nil), rec.Templates...)
		out = append(out, cp)
	}
	return out, nil
}

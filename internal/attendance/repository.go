// Package attendance persists verification outcomes: committed
// check-ins and spoofing-flagged attempts awaiting admin review.
package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civicworks/presence/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repository needs,
// satisfied by pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// CheckIn is the read model of one committed attendance record.
type CheckIn struct {
	ID           uuid.UUID `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Verdict      string    `json:"verdict"`
	Confidence   float64   `json:"confidence"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// FlaggedAttempt is one spoofing-suspected attempt held for review.
type FlaggedAttempt struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Indicators []string  `json:"spoofing_indicators"`
	Confidence float64   `json:"confidence"`
	FlaggedAt  time.Time `json:"flagged_at"`
}

type Repository struct {
	pool PgxPool
}

func NewRepository(pool PgxPool) *Repository {
	return &Repository{pool: pool}
}

// Commit stores an accepted check-in. The ping series travels as jsonb
// so flagged patterns stay reviewable later.
func (r *Repository) Commit(ctx context.Context, attempt domain.VerificationAttempt) error {
	query := `
		INSERT INTO check_ins (id, employee_id, employee_name, verdict, confidence, pings, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	pings, err := json.Marshal(attempt.Pings)
	if err != nil {
		return fmt.Errorf("marshal pings: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.EmployeeID,
		attempt.EmployeeName,
		string(attempt.Verdict),
		attempt.Confidence,
		pings,
	)
	if err != nil {
		return fmt.Errorf("commit check-in: %w", err)
	}

	return nil
}

// Flag stores a spoofing-suspected attempt with its indicator list.
func (r *Repository) Flag(ctx context.Context, attempt domain.VerificationAttempt) error {
	query := `
		INSERT INTO flagged_attempts (id, employee_id, employee_name, confidence, indicators, pings, flagged_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	indicators, err := json.Marshal(attempt.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}
	pings, err := json.Marshal(attempt.Pings)
	if err != nil {
		return fmt.Errorf("marshal pings: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.EmployeeID,
		attempt.EmployeeName,
		attempt.Confidence,
		indicators,
		pings,
	)
	if err != nil {
		return fmt.Errorf("flag attempt: %w", err)
	}

	return nil
}

// History returns the most recent check-ins for an employee.
func (r *Repository) History(ctx context.Context, employeeID string, limit int) ([]CheckIn, error) {
	query := `
		SELECT id, employee_id, employee_name, verdict, confidence, checked_in_at
		FROM check_ins
		WHERE employee_id = $1
		ORDER BY checked_in_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var out []CheckIn
	for rows.Next() {
		var c CheckIn
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.EmployeeName, &c.Verdict, &c.Confidence, &c.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-ins: %w", err)
	}

	return out, nil
}

// LastCheckIn returns the most recent committed check-in for an
// employee, or nil when none exists.
func (r *Repository) LastCheckIn(ctx context.Context, employeeID string) (*CheckIn, error) {
	query := `
		SELECT id, employee_id, employee_name, verdict, confidence, checked_in_at
		FROM check_ins
		WHERE employee_id = $1
		ORDER BY checked_in_at DESC
		LIMIT 1
	`

	var c CheckIn
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&c.ID, &c.EmployeeID, &c.EmployeeName, &c.Verdict, &c.Confidence, &c.CheckedInAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last check-in: %w", err)
	}

	return &c, nil
}

// Flagged returns the most recent spoofing-flagged attempts.
func (r *Repository) Flagged(ctx context.Context, limit int) ([]FlaggedAttempt, error) {
	query := `
		SELECT id, employee_id, confidence, indicators, flagged_at
		FROM flagged_attempts
		ORDER BY flagged_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list flagged attempts: %w", err)
	}
	defer rows.Close()

	var out []FlaggedAttempt
	for rows.Next() {
		var f FlaggedAttempt
		var indicators []byte
		if err := rows.Scan(&f.ID, &f.EmployeeID, &f.Confidence, &indicators, &f.FlaggedAt); err != nil {
			return nil, fmt.Errorf("scan flagged attempt: %w", err)
		}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &f.Indicators); err != nil {
				return nil, fmt.Errorf("decode indicators: %w", err)
			}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flagged attempts: %w", err)
	}

	return out, nil
}

package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/presence/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func testAttempt() domain.VerificationAttempt {
	return domain.VerificationAttempt{
		ID:           uuid.New(),
		EmployeeID:   "emp-001",
		EmployeeName: "Asha Verma",
		Pings: []domain.LocationPing{
			{Latitude: 28.613939, Longitude: 77.209023, AccuracyM: floatPtr(12)},
			{Latitude: 28.614052, Longitude: 77.209094, AccuracyM: floatPtr(11)},
		},
		Verdict:    domain.VerdictVerified,
		Confidence: 82,
		StartedAt:  time.Now(),
	}
}

func TestRepository_Commit(t *testing.T) {
	tests := []struct {
		name      string
		attempt   domain.VerificationAttempt
		mockSetup func(mock pgxmock.PgxPoolIface, attempt domain.VerificationAttempt)
		wantErr   bool
	}{
		{
			name:    "successful commit",
			attempt: testAttempt(),
			mockSetup: func(mock pgxmock.PgxPoolIface, attempt domain.VerificationAttempt) {
				mock.ExpectExec(`INSERT INTO check_ins`).
					WithArgs(attempt.ID, attempt.EmployeeID, attempt.EmployeeName,
						string(attempt.Verdict), attempt.Confidence, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "nil id gets generated",
			attempt: func() domain.VerificationAttempt {
				a := testAttempt()
				a.ID = uuid.Nil
				return a
			}(),
			mockSetup: func(mock pgxmock.PgxPoolIface, attempt domain.VerificationAttempt) {
				mock.ExpectExec(`INSERT INTO check_ins`).
					WithArgs(pgxmock.AnyArg(), attempt.EmployeeID, attempt.EmployeeName,
						string(attempt.Verdict), attempt.Confidence, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name:    "database error",
			attempt: testAttempt(),
			mockSetup: func(mock pgxmock.PgxPoolIface, attempt domain.VerificationAttempt) {
				mock.ExpectExec(`INSERT INTO check_ins`).
					WithArgs(attempt.ID, attempt.EmployeeID, attempt.EmployeeName,
						string(attempt.Verdict), attempt.Confidence, pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock, tt.attempt)

			repo := NewRepository(mock)
			err = repo.Commit(context.Background(), tt.attempt)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Flag(t *testing.T) {
	attempt := testAttempt()
	attempt.Verdict = domain.VerdictSpoofingSuspected
	attempt.Indicators = []string{"Device is stationary with identical coordinates", "GPS accuracy suspiciously uniform"}

	t.Run("successful flag", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO flagged_attempts`).
			WithArgs(attempt.ID, attempt.EmployeeID, attempt.EmployeeName,
				attempt.Confidence, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewRepository(mock)
		require.NoError(t, repo.Flag(context.Background(), attempt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO flagged_attempts`).
			WithArgs(attempt.ID, attempt.EmployeeID, attempt.EmployeeName,
				attempt.Confidence, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		repo := NewRepository(mock)
		assert.Error(t, repo.Flag(context.Background(), attempt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_History(t *testing.T) {
	now := time.Now()
	id1, id2 := uuid.New(), uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "employee_id", "employee_name", "verdict", "confidence", "checked_in_at"}).
		AddRow(id1, "emp-001", "Asha Verma", "verified", 82.0, now).
		AddRow(id2, "emp-001", "Asha Verma", "verified", 77.5, now.Add(-24*time.Hour))

	mock.ExpectQuery(`FROM check_ins`).
		WithArgs("emp-001", 10).
		WillReturnRows(rows)

	repo := NewRepository(mock)
	history, err := repo.History(context.Background(), "emp-001", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, id1, history[0].ID)
	assert.Equal(t, 82.0, history[0].Confidence)
	assert.Equal(t, "verified", history[1].Verdict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LastCheckIn(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`FROM check_ins`).
			WithArgs("emp-001").
			WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "employee_name", "verdict", "confidence", "checked_in_at"}).
				AddRow(id, "emp-001", "Asha Verma", "verified", 82.0, now))

		repo := NewRepository(mock)
		last, err := repo.LastCheckIn(context.Background(), "emp-001")
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, id, last.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none recorded", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM check_ins`).
			WithArgs("emp-404").
			WillReturnError(pgx.ErrNoRows)

		repo := NewRepository(mock)
		last, err := repo.LastCheckIn(context.Background(), "emp-404")
		require.NoError(t, err)
		assert.Nil(t, last)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Flagged(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "employee_id", "confidence", "indicators", "flagged_at"}).
		AddRow(id, "emp-007", 31.0, []byte(`["Device is stationary with identical coordinates"]`), now)

	mock.ExpectQuery(`FROM flagged_attempts`).
		WithArgs(25).
		WillReturnRows(rows)

	repo := NewRepository(mock)
	flagged, err := repo.Flagged(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "emp-007", flagged[0].EmployeeID)
	assert.Equal(t, []string{"Device is stationary with identical coordinates"}, flagged[0].Indicators)
	assert.NoError(t, mock.ExpectationsWereMet())
}

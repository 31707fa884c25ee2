package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/civicworks/presence/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the store needs, satisfied by
// pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresStore persists enrollment records in Postgres with pgvector
// template embeddings.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, identityID string) (*domain.EnrollmentRecord, error) {
	query := `
		SELECT identity_id, name, created_at, updated_at
		FROM enrollments
		WHERE identity_id = $1
	`

	var rec domain.EnrollmentRecord
	err := s.pool.QueryRow(ctx, query, identityID).Scan(
		&rec.IdentityID,
		&rec.Name,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	templates, err := s.templates(ctx, identityID)
	if err != nil {
		return nil, err
	}
	rec.Templates = templates

	return &rec, nil
}

func (s *PostgresStore) templates(ctx context.Context, identityID string) ([]domain.Template, error) {
	query := `
		SELECT embedding, created_at
		FROM face_templates
		WHERE identity_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		var embedding pgvector.Vector
		var createdAt time.Time
		if err := rows.Scan(&embedding, &createdAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}

		floats := embedding.Slice()
		tpl := domain.Template{
			Embedding: make([]float64, len(floats)),
			CreatedAt: createdAt,
		}
		for i, v := range floats {
			tpl.Embedding[i] = float64(v)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

func (s *PostgresStore) Append(ctx context.Context, identityID, name string, tpl domain.Template) (int, error) {
	status, err := s.Status(ctx, identityID)
	if err != nil {
		return 0, err
	}
	if status.Enrolled {
		return status.SamplesCount, domain.ErrEnrollmentComplete
	}

	upsert := `
		INSERT INTO enrollments (identity_id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (identity_id) DO UPDATE SET updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, upsert, identityID, name); err != nil {
		return 0, fmt.Errorf("upsert enrollment: %w", err)
	}

	floats := make([]float32, len(tpl.Embedding))
	for i, v := range tpl.Embedding {
		floats[i] = float32(v)
	}

	insert := `
		INSERT INTO face_templates (id, identity_id, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := s.pool.Exec(ctx, insert, uuid.New(), identityID, pgvector.NewVector(floats)); err != nil {
		if isUniqueViolation(err) {
			return status.SamplesCount, domain.ErrEnrollmentComplete
		}
		return 0, fmt.Errorf("insert template: %w", err)
	}

	return status.SamplesCount + 1, nil
}

func (s *PostgresStore) IsComplete(ctx context.Context, identityID string) (bool, error) {
	status, err := s.Status(ctx, identityID)
	if err != nil {
		return false, err
	}
	return status.Enrolled, nil
}

func (s *PostgresStore) Status(ctx context.Context, identityID string) (domain.EnrollmentStatus, error) {
	query := `
		SELECT COUNT(*)
		FROM face_templates
		WHERE identity_id = $1
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, identityID).Scan(&count); err != nil {
		return domain.EnrollmentStatus{}, fmt.Errorf("count templates: %w", err)
	}

	return domain.EnrollmentStatus{
		SamplesCount: count,
		Required:     domain.RequiredEnrollmentSamples,
		Enrolled:     count >= domain.RequiredEnrollmentSamples,
	}, nil
}

func (s *PostgresStore) Reset(ctx context.Context, identityID string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM enrollments WHERE identity_id = $1`, identityID)
	if err != nil {
		return fmt.Errorf("reset enrollment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEnrollmentNotFound
	}
	// face_templates rows go with the enrollment via ON DELETE CASCADE.
	return nil
}

func (s *PostgresStore) All(ctx context.Context) ([]domain.EnrollmentRecord, error) {
	query := `
		SELECT e.identity_id, e.name, e.created_at, e.updated_at, t.embedding, t.created_at
		FROM enrollments e
		JOIN face_templates t ON t.identity_id = e.identity_id
		ORDER BY e.identity_id, t.created_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []domain.EnrollmentRecord
	index := make(map[string]int)

	for rows.Next() {
		var (
			identityID, name     string
			createdAt, updatedAt time.Time
			embedding            pgvector.Vector
			tplCreatedAt         time.Time
		)
		if err := rows.Scan(&identityID, &name, &createdAt, &updatedAt, &embedding, &tplCreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}

		i, ok := index[identityID]
		if !ok {
			out = append(out, domain.EnrollmentRecord{
				IdentityID: identityID,
				Name:       name,
				CreatedAt:  createdAt,
				UpdatedAt:  updatedAt,
			})
			i = len(out) - 1
			index[identityID] = i
		}

		floats := embedding.Slice()
		tpl := domain.Template{
			Embedding: make([]float64, len(floats)),
			CreatedAt: tplCreatedAt,
		}
		for j, v := range floats {
			tpl.Embedding[j] = float64(v)
		}
		out[i].Templates = append(out[i].Templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return out, nil
}

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate key")
}

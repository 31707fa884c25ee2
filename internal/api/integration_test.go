//go:build integration

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/civicworks/presence/internal/attendance"
	"github.com/civicworks/presence/internal/database"
	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/enrollment"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	// Start PostgreSQL container with pgvector
	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "presence_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/presence_test?sslmode=disable", host, port.Port())

	// Run migrations through the same path cmd/migrate uses
	sqlDB, err := database.NewPool(database.DefaultPoolConfig(connStr))
	if err != nil {
		fmt.Printf("Failed to connect for migrations: %v\n", err)
		os.Exit(1)
	}
	migrator, err := database.NewMigrator(sqlDB, "presence_test")
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	if err := migrator.Up(); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	_ = migrator.Close()

	// Connect the pgx pool the repositories use
	testDB, err = pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer testDB.Close()

	code := m.Run()
	os.Exit(code)
}

func TestIntegration_HealthEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, nil)
	router.Setup()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("status = %v, want ok", result["status"])
	}
}

func TestIntegration_NotFoundReturns404(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, nil)
	router.Setup()

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_EnrollmentRoundTrip(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not available")
	}

	ctx := context.Background()
	store := enrollment.NewPostgresStore(testDB)
	employeeID := "it-" + uuid.NewString()

	for i := 0; i < domain.RequiredEnrollmentSamples; i++ {
		emb := make([]float64, 512)
		emb[i] = 1
		_, err := store.Append(ctx, employeeID, "Integration Test", domain.Template{Embedding: emb})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	complete, err := store.IsComplete(ctx, employeeID)
	if err != nil {
		t.Fatalf("IsComplete failed: %v", err)
	}
	if !complete {
		t.Error("enrollment should be complete after required samples")
	}

	// Fourth sample must be refused
	if _, err := store.Append(ctx, employeeID, "Integration Test", domain.Template{Embedding: make([]float64, 512)}); err == nil {
		t.Error("expected ErrEnrollmentComplete on extra sample")
	}

	rec, err := store.Get(ctx, employeeID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(rec.Templates) != domain.RequiredEnrollmentSamples {
		t.Errorf("Templates = %d, want %d", len(rec.Templates), domain.RequiredEnrollmentSamples)
	}
	if len(rec.Templates[0].Embedding) != 512 {
		t.Errorf("Embedding dims = %d, want 512", len(rec.Templates[0].Embedding))
	}

	if err := store.Reset(ctx, employeeID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := store.Get(ctx, employeeID); err == nil {
		t.Error("expected not found after reset")
	}
}

func TestIntegration_AttendanceTrail(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not available")
	}

	ctx := context.Background()
	repo := attendance.NewRepository(testDB)
	employeeID := "it-" + uuid.NewString()

	acc := 12.0
	attempt := domain.VerificationAttempt{
		ID:           uuid.New(),
		EmployeeID:   employeeID,
		EmployeeName: "Integration Test",
		Verdict:      domain.VerdictVerified,
		Confidence:   82,
		Pings: []domain.LocationPing{
			{Latitude: 28.613939, Longitude: 77.209023, AccuracyM: &acc},
		},
	}
	if err := repo.Commit(ctx, attempt); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	last, err := repo.LastCheckIn(ctx, employeeID)
	if err != nil {
		t.Fatalf("LastCheckIn failed: %v", err)
	}
	if last == nil || last.EmployeeID != employeeID {
		t.Fatalf("LastCheckIn = %+v, want record for %s", last, employeeID)
	}

	flagged := attempt
	flagged.ID = uuid.New()
	flagged.Verdict = domain.VerdictSpoofingSuspected
	flagged.Indicators = []string{"Device is stationary with identical coordinates"}
	if err := repo.Flag(ctx, flagged); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}

	attempts, err := repo.Flagged(ctx, 10)
	if err != nil {
		t.Fatalf("Flagged failed: %v", err)
	}
	found := false
	for _, f := range attempts {
		if f.EmployeeID == employeeID {
			found = true
			if len(f.Indicators) != 1 {
				t.Errorf("Indicators = %v, want one entry", f.Indicators)
			}
		}
	}
	if !found {
		t.Error("flagged attempt not returned")
	}
}

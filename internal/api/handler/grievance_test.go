package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/presence/internal/mlclient"
)

// MockGrievanceAnalyzer is a mock implementation of GrievanceAnalyzer
type MockGrievanceAnalyzer struct {
	mock.Mock
}

func (m *MockGrievanceAnalyzer) AnalyzeGrievance(ctx context.Context, req mlclient.GrievanceRequest) (*mlclient.GrievanceAnalysis, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mlclient.GrievanceAnalysis), args.Error(1)
}

func TestGrievanceHandler_Analyze(t *testing.T) {
	t.Run("classifies a grievance", func(t *testing.T) {
		analyzer := new(MockGrievanceAnalyzer)
		analyzer.On("AnalyzeGrievance", mock.Anything, mlclient.GrievanceRequest{
			Text:       "My salary was not paid this month",
			EmployeeID: "emp-001",
		}).Return(&mlclient.GrievanceAnalysis{
			Category:            mlclient.CategoryPayroll,
			Confidence:          0.8,
			Priority:            "High",
			SuggestedDepartment: "Admin",
		}, nil)

		app := newTestApp()
		h := NewGrievanceHandler(analyzer, testLogger())
		app.Post("/v1/grievances/analyze", h.Analyze)

		req := httptest.NewRequest("POST", "/v1/grievances/analyze",
			bytes.NewBufferString(`{"text":"My salary was not paid this month","employee_id":"emp-001"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var analysis mlclient.GrievanceAnalysis
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &analysis))
		assert.Equal(t, mlclient.CategoryPayroll, analysis.Category)
		assert.Equal(t, "High", analysis.Priority)
		analyzer.AssertExpectations(t)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		analyzer := new(MockGrievanceAnalyzer)

		app := newTestApp()
		h := NewGrievanceHandler(analyzer, testLogger())
		app.Post("/v1/grievances/analyze", h.Analyze)

		req := httptest.NewRequest("POST", "/v1/grievances/analyze",
			bytes.NewBufferString(`{"text":"   "}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		analyzer.AssertNotCalled(t, "AnalyzeGrievance")
	})
}

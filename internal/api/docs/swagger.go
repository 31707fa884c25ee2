package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollRequest is the body for capturing one enrollment sample
type EnrollRequest struct {
	EmployeeID string `json:"employee_id" example:"emp-001"`
	Name       string `json:"name" example:"Asha Verma"`
}

// EnrollmentStatusResponse reports enrollment progress
type EnrollmentStatusResponse struct {
	SamplesCount int  `json:"samples_count" example:"2"`
	Required     int  `json:"required" example:"3"`
	Enrolled     bool `json:"enrolled" example:"false"`
}

// EnrollmentListResponse lists enrolled identities without embeddings
type EnrollmentListResponse struct {
	Enrollments []EnrollmentSummaryData `json:"enrollments"`
}

// EnrollmentSummaryData is one listing row
type EnrollmentSummaryData struct {
	EmployeeID string `json:"employee_id" example:"emp-001"`
	Name       string `json:"name" example:"Asha Verma"`
	Samples    int    `json:"samples" example:"3"`
	Enrolled   bool   `json:"enrolled" example:"true"`
}

// CheckInRequest is the body for running a verification attempt
type CheckInRequest struct {
	EmployeeID string `json:"employee_id" example:"emp-001"`
	Name       string `json:"name" example:"Asha Verma"`
}

// CheckInResultResponse is the classified attempt outcome
type CheckInResultResponse struct {
	AttemptID      string   `json:"attempt_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	State          string   `json:"state" example:"success"`
	Verdict        string   `json:"verdict" example:"verified"`
	Confidence     float64  `json:"confidence" example:"82"`
	Message        string   `json:"message" example:"Location verified successfully"`
	Indicators     []string `json:"spoofing_indicators,omitempty"`
	RiskFactors    []string `json:"risk_factors,omitempty"`
	Recommendation string   `json:"recommendation,omitempty" example:"Attendance can be marked"`
	ZonePercentage float64  `json:"zone_percentage" example:"100"`
}

// CheckInHistoryResponse lists recent check-ins
type CheckInHistoryResponse struct {
	CheckIns []CheckInData `json:"check_ins"`
}

// CheckInData is one committed attendance record
type CheckInData struct {
	ID           string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EmployeeID   string  `json:"employee_id" example:"emp-001"`
	EmployeeName string  `json:"employee_name" example:"Asha Verma"`
	Verdict      string  `json:"verdict" example:"verified"`
	Confidence   float64 `json:"confidence" example:"82"`
	CheckedInAt  string  `json:"checked_in_at" example:"2024-01-01T09:12:00Z"`
}

// FlaggedAttemptsResponse lists spoofing-flagged attempts
type FlaggedAttemptsResponse struct {
	FlaggedAttempts []FlaggedAttemptData `json:"flagged_attempts"`
}

// FlaggedAttemptData is one attempt held for review
type FlaggedAttemptData struct {
	ID         string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EmployeeID string   `json:"employee_id" example:"emp-007"`
	Indicators []string `json:"spoofing_indicators"`
	Confidence float64  `json:"confidence" example:"31"`
	FlaggedAt  string   `json:"flagged_at" example:"2024-01-01T09:12:00Z"`
}

// GrievanceAnalyzeRequest is the body for grievance classification
type GrievanceAnalyzeRequest struct {
	Text       string `json:"text" example:"My salary was not paid this month"`
	EmployeeID string `json:"employee_id,omitempty" example:"emp-001"`
}

// GrievanceAnalysisResponse is the structured classification
type GrievanceAnalysisResponse struct {
	Category            string  `json:"category" example:"Payroll and Salary Issue"`
	Confidence          float64 `json:"confidence" example:"0.8"`
	Priority            string  `json:"priority" example:"High"`
	Summary             string  `json:"summary" example:"My salary was not paid this month"`
	SuggestedDepartment string  `json:"suggested_department" example:"Admin"`
	AIPowered           bool    `json:"ai_powered" example:"false"`
}

// HealthResponse is the health probe payload
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Presence Attendance API",
		Version:     "v1.0.0",
		Description: "Liveness-gated attendance verification: face enrollment, GPS-verified check-ins, spoofing review and grievance intake",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Enrollment endpoints

		// POST /v1/enrollments - capture one sample
		endpoint.New(
			endpoint.POST,
			"/enrollments",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Capture one enrollment sample"),
			endpoint.WithDescription("Captures a face sample from the kiosk camera for the given employee. Three samples complete an enrollment."),
			endpoint.WithBody(EnrollRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentStatusResponse{}, "201", "Sample captured"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "employee_id is required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "LOW_QUALITY", Message: "Face framing quality too low"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "ENROLLMENT_COMPLETE", Message: "Enrollment already complete"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "CAMERA_INIT_FAILED", Message: "Camera could not be initialized"}, "503", "Service Unavailable"),
			}),
		),

		// GET /v1/enrollments - list all
		endpoint.New(
			endpoint.GET,
			"/enrollments",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("List enrolled identities"),
			endpoint.WithDescription("Lists every enrollment with its sample count. Embeddings never leave the store."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentListResponse{}, "200", "Enrollments listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/enrollments/{employee_id} - status
		endpoint.New(
			endpoint.GET,
			"/enrollments/{employee_id}",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enrollment status for one employee"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentStatusResponse{}, "200", "Status returned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/enrollments/{employee_id} - reset
		endpoint.New(
			endpoint.DELETE,
			"/enrollments/{employee_id}",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Reset an enrollment"),
			endpoint.WithDescription("Removes the employee's templates so enrollment can be explicitly re-run."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Enrollment reset"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "Enrollment record not found"}, "404", "Not Found"),
			}),
		),

		// Attendance endpoints

		// POST /v1/attendance/check-in
		endpoint.New(
			endpoint.POST,
			"/attendance/check-in",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Run a verification attempt"),
			endpoint.WithDescription("Runs the full attempt: quality gate, countdown, location sampling, multi-shot face match, spoofing analysis and the remote location verdict. Commits attendance only when every gate passes."),
			endpoint.WithBody(CheckInRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CheckInResultResponse{}, "200", "Attendance marked"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "OUTSIDE_ATTENDANCE_WINDOW", Message: "Attendance can only be marked between 07:00 and 17:00"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "No completed face enrollment"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "CAPTURE_TOO_SOON", Message: "Please wait before capturing again"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "FACE_NOT_RECOGNIZED", Message: "Face not recognized"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "IDENTITY_MISMATCH", Message: "Face matched a different enrolled employee"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SPOOFING_SUSPECTED", Message: "GPS spoofing suspected, attendance flagged for review"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "LOW_CONFIDENCE", Message: "Location confidence too low"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "VERDICT_UNAVAILABLE", Message: "Location verification service unavailable"}, "502", "Bad Gateway"),
			}),
		),

		// GET /v1/attendance/{employee_id}/history
		endpoint.New(
			endpoint.GET,
			"/attendance/{employee_id}/history",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Recent check-ins for an employee"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum rows (default: 30, max: 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CheckInHistoryResponse{}, "200", "History returned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/attendance/{employee_id}/last
		endpoint.New(
			endpoint.GET,
			"/attendance/{employee_id}/last",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Most recent check-in for an employee"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CheckInData{}, "200", "Last check-in returned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_CHECK_IN", Message: "No check-in recorded for this employee"}, "404", "Not Found"),
			}),
		),

		// GET /v1/attendance/flagged
		endpoint.New(
			endpoint.GET,
			"/attendance/flagged",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Spoofing-flagged attempts awaiting review"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum rows (default: 50, max: 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FlaggedAttemptsResponse{}, "200", "Flagged attempts returned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// Grievance endpoints

		// POST /v1/grievances/analyze
		endpoint.New(
			endpoint.POST,
			"/grievances/analyze",
			endpoint.WithTags("Grievances"),
			endpoint.WithSummary("Classify a grievance"),
			endpoint.WithDescription("Classifies grievance text via the ML collaborator, falling back to local keyword scoring when the service is unreachable."),
			endpoint.WithBody(GrievanceAnalyzeRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GrievanceAnalysisResponse{}, "200", "Grievance classified"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "text is required"}, "422", "Unprocessable Entity"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}

package api

import "github.com/hanna-health/hanna-backend/internal/vitals"

// AnalyzeRequest is the body of POST /analyze/vitals. Every field is
// optional: a missing patientId defaults to "unknown" and missing vitals are
// treated as an empty reading. Timestamp is accepted for forward
// compatibility and currently unused.
type AnalyzeRequest struct {
	PatientID string          `json:"patientId"`
	Vitals    vitals.Snapshot `json:"vitals"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// AnalyzeResponse is the payload for POST /analyze/vitals. Issues is always
// present, possibly empty, never null.
type AnalyzeResponse struct {
	Issues []vitals.Issue `json:"issues"`
}

// HealthResponse is the payload for GET /.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

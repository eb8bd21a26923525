package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hanna-health/hanna-backend/internal/hub"
	"github.com/hanna-health/hanna-backend/internal/prediction"
	"github.com/hanna-health/hanna-backend/internal/vitals"
)

// defaultPatientID is used when a reading arrives without a patientId.
const defaultPatientID = "unknown"

// Handler serves the vitals ingestion endpoint and the health check.
type Handler struct {
	gateway *prediction.Gateway
	hub     *hub.Hub
	mux     *http.ServeMux
}

// New creates a Handler wired to the given prediction gateway and alert hub
// and registers all routes.
func New(gw *prediction.Gateway, h *hub.Hub) http.Handler {
	hd := &Handler{gateway: gw, hub: h, mux: http.NewServeMux()}

	hd.mux.HandleFunc("/", hd.health) // exact "/" only — see health
	hd.mux.HandleFunc("/analyze/vitals", hd.analyzeVitals)

	return hd
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET / — liveness status and server time.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		// "/" is a subtree pattern; anything unrouted lands here.
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// analyzeVitals handles POST /analyze/vitals — one vitals reading in, the
// evaluated issue list out. The request itself never fails: malformed or
// missing fields degrade individual rules, and an unreadable body is treated
// as an empty reading.
func (h *Handler) analyzeVitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("api: unreadable vitals body, treating as empty", "err", err)
	}

	patientID := req.PatientID
	if patientID == "" {
		patientID = defaultPatientID
	}
	snap := req.Vitals
	if snap == nil {
		snap = vitals.Snapshot{}
	}

	issues := vitals.Evaluate(snap)
	if pred := h.gateway.Augment(r.Context(), snap); pred != nil {
		issues = append(issues, *pred)
	}

	for _, issue := range issues {
		if issue.Level == vitals.SeverityHigh {
			h.hub.Broadcast(hub.Notification{PatientID: patientID, Issue: issue})
		}
	}

	slog.Info("api: vitals analyzed",
		"patient_id", patientID,
		"fields", len(snap),
		"issues", len(issues),
		"subscribers", h.hub.Count(),
	)

	jsonResp(w, http.StatusOK, AnalyzeResponse{Issues: issues})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

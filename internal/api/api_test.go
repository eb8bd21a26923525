package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hanna-health/hanna-backend/internal/api"
	alerthub "github.com/hanna-health/hanna-backend/internal/hub"
	"github.com/hanna-health/hanna-backend/internal/prediction"
	"github.com/hanna-health/hanna-backend/internal/vitals"
)

// --- helpers ----------------------------------------------------------------

// startPipeline wires the handler, hub, and gateway the same way cmd/server
// does and serves them from one test server.
func startPipeline(t *testing.T, gw *prediction.Gateway) (*httptest.Server, *alerthub.Hub) {
	t.Helper()

	h := alerthub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/", api.New(gw, h))
	mux.Handle("/alerts", h)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, h
}

func unconfiguredGateway() *prediction.Gateway {
	return prediction.New("", time.Second)
}

// subscribe connects an alert subscriber and waits for the hub to register it.
func subscribe(t *testing.T, srv *httptest.Server, h *alerthub.Hub) *websocket.Conn {
	t.Helper()
	before := h.Count()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/alerts"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != before+1 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not registered: Count=%d", h.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func postVitals(t *testing.T, srv *httptest.Server, body string) api.AnalyzeResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/analyze/vitals", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /analyze/vitals: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var out api.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func readAlert(t *testing.T, conn *websocket.Conn) alerthub.Notification {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var n alerthub.Notification
	if err := json.Unmarshal(msg, &n); err != nil {
		t.Fatalf("unmarshal %q: %v", msg, err)
	}
	return n
}

// expectNoAlert asserts that no message arrives on conn within a short window.
func expectNoAlert(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, msg, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected alert delivered: %s", msg)
	}
}

// --- tests ------------------------------------------------------------------

func TestAnalyzeVitals_LowSpO2_ReturnsIssueAndBroadcasts(t *testing.T) {
	srv, h := startPipeline(t, unconfiguredGateway())
	a := subscribe(t, srv, h)
	b := subscribe(t, srv, h)

	out := postVitals(t, srv, `{"patientId":"p1","vitals":{"spo2":85}}`)

	if len(out.Issues) != 1 {
		t.Fatalf("issues: got %d, want 1", len(out.Issues))
	}
	if out.Issues[0].Code != "low_spo2" || out.Issues[0].Level != vitals.SeverityHigh {
		t.Errorf("issue: got %+v, want high/low_spo2", out.Issues[0])
	}

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		n := readAlert(t, conn)
		if n.PatientID != "p1" {
			t.Errorf("%s: patientId: got %q, want p1", name, n.PatientID)
		}
		if n.Issue.Code != "low_spo2" {
			t.Errorf("%s: code: got %q, want low_spo2", name, n.Issue.Code)
		}
	}
}

func TestAnalyzeVitals_NormalVitals_NoIssuesNoBroadcast(t *testing.T) {
	srv, h := startPipeline(t, unconfiguredGateway())
	conn := subscribe(t, srv, h)

	out := postVitals(t, srv, `{"patientId":"p2","vitals":{"heart_rate":80,"spo2":98}}`)

	if out.Issues == nil {
		t.Fatal("issues: got null, want empty array")
	}
	if len(out.Issues) != 0 {
		t.Fatalf("issues: got %+v, want none", out.Issues)
	}
	expectNoAlert(t, conn)
}

func TestAnalyzeVitals_NoPredictionConfigured_NoExternalCall(t *testing.T) {
	srv, _ := startPipeline(t, unconfiguredGateway())

	out := postVitals(t, srv, `{"patientId":"p3","vitals":{"FEV1":1.2}}`)
	if len(out.Issues) != 0 {
		t.Fatalf("issues: got %+v, want none", out.Issues)
	}
}

func TestAnalyzeVitals_PredictionIssueMergedAndBroadcast(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediction":1,"confidence":0.88}`)) //nolint:errcheck
	}))
	defer predictor.Close()

	srv, h := startPipeline(t, prediction.New(predictor.URL, time.Second))
	conn := subscribe(t, srv, h)

	out := postVitals(t, srv, `{"patientId":"p4","vitals":{"spo2":85,"FEV1":1.2}}`)

	if len(out.Issues) != 2 {
		t.Fatalf("issues: got %+v, want rule issue + prediction issue", out.Issues)
	}
	// Rule issues come first, the prediction issue is appended.
	if out.Issues[0].Code != "low_spo2" || out.Issues[1].Code != "asthma_risk" {
		t.Errorf("issue order: got [%s, %s], want [low_spo2, asthma_risk]",
			out.Issues[0].Code, out.Issues[1].Code)
	}
	if !strings.Contains(out.Issues[1].Text, "88%") {
		t.Errorf("prediction text: got %q, want it to contain 88%%", out.Issues[1].Text)
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		got[readAlert(t, conn).Issue.Code] = true
	}
	if !got["low_spo2"] || !got["asthma_risk"] {
		t.Errorf("broadcast codes: got %v, want both low_spo2 and asthma_risk", got)
	}
}

func TestAnalyzeVitals_PredictorDown_RulesStillServed(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer predictor.Close()

	srv, _ := startPipeline(t, prediction.New(predictor.URL, time.Second))

	out := postVitals(t, srv, `{"patientId":"p5","vitals":{"spo2":85,"FEV1":1.2}}`)
	if len(out.Issues) != 1 || out.Issues[0].Code != "low_spo2" {
		t.Fatalf("issues: got %+v, want [low_spo2]", out.Issues)
	}
}

func TestAnalyzeVitals_EmptyBody_EmptyIssues(t *testing.T) {
	srv, _ := startPipeline(t, unconfiguredGateway())

	for name, body := range map[string]string{
		"empty":       "",
		"empty obj":   "{}",
		"bad json":    "{not json",
		"null vitals": `{"patientId":"p6","vitals":null}`,
	} {
		out := postVitals(t, srv, body)
		if out.Issues == nil || len(out.Issues) != 0 {
			t.Errorf("%s: issues: got %+v, want empty array", name, out.Issues)
		}
	}
}

func TestAnalyzeVitals_MissingPatientID_BroadcastsUnknown(t *testing.T) {
	srv, h := startPipeline(t, unconfiguredGateway())
	conn := subscribe(t, srv, h)

	postVitals(t, srv, `{"vitals":{"spo2":85}}`)

	if n := readAlert(t, conn); n.PatientID != "unknown" {
		t.Errorf("patientId: got %q, want unknown", n.PatientID)
	}
}

func TestAnalyzeVitals_MethodNotAllowed(t *testing.T) {
	srv, _ := startPipeline(t, unconfiguredGateway())

	resp, err := http.Get(srv.URL + "/analyze/vitals")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := startPipeline(t, unconfiguredGateway())

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var out api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" {
		t.Errorf("status field: got %q, want ok", out.Status)
	}
	if _, err := time.Parse(time.RFC3339, out.Time); err != nil {
		t.Errorf("time field: %q is not RFC3339: %v", out.Time, err)
	}
}

func TestUnknownPath_404(t *testing.T) {
	srv, _ := startPipeline(t, unconfiguredGateway())

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

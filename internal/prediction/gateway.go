package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hanna-health/hanna-backend/internal/vitals"
)

const (
	// predictPath is the sub-path of the configured base URL the snapshot is
	// posted to.
	predictPath = "/predict_asthma/"

	// positiveClass and minConfidence gate when a prediction becomes an issue:
	// the classifier must return the positive class with confidence strictly
	// above the threshold.
	positiveClass = 1
	minConfidence = 0.7

	defaultTimeout = 3 * time.Second
)

// triggerFields gates the outbound call: the predictor is only consulted when
// the snapshot carries at least one of these readings.
var triggerFields = []string{"FEV1", "resp_rate", "Age"}

// result is the JSON body the prediction endpoint is expected to return.
type result struct {
	Prediction int     `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Gateway is a best-effort adapter in front of an external risk-prediction
// endpoint. It never returns an error: any failure — the endpoint being
// unconfigured, unreachable, slow, or returning garbage — degrades to "no
// additional issue" so the clinical-rules path is unaffected.
//
// Gateway is safe for concurrent use; the base URL may be swapped at runtime
// via SetBaseURL (config hot reload).
type Gateway struct {
	client *resty.Client

	mu      sync.RWMutex
	baseURL string
}

// New creates a Gateway posting to baseURL with the given per-call timeout.
// An empty baseURL is valid and leaves the gateway unconfigured.
func New(baseURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Gateway{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetBaseURL replaces the prediction endpoint base URL. An empty string
// disables the gateway.
func (g *Gateway) SetBaseURL(u string) {
	g.mu.Lock()
	g.baseURL = strings.TrimRight(u, "/")
	g.mu.Unlock()
}

// Configured reports whether a prediction endpoint is set.
func (g *Gateway) Configured() bool {
	return g.base() != ""
}

func (g *Gateway) base() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.baseURL
}

// triggered reports whether snap carries any trigger field. Presence is
// enough — the predictor does its own feature handling.
func triggered(snap vitals.Snapshot) bool {
	for _, f := range triggerFields {
		if snap.Has(f) {
			return true
		}
	}
	return false
}

// Augment sends the full snapshot to the prediction endpoint and translates
// a confident positive classification into a single high-severity issue.
// It returns nil in every other case: gateway unconfigured, no trigger field
// present, call failed, non-2xx status, malformed body, negative result, or
// confidence at or below the threshold. Failures are logged, never surfaced.
func (g *Gateway) Augment(ctx context.Context, snap vitals.Snapshot) *vitals.Issue {
	base := g.base()
	if base == "" || !triggered(snap) {
		return nil
	}

	var res result
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(snap).
		SetResult(&res).
		Post(base + predictPath)
	if err != nil {
		slog.Warn("prediction: call failed", "err", err)
		return nil
	}
	if resp.IsError() {
		slog.Warn("prediction: endpoint returned error status", "status", resp.StatusCode())
		return nil
	}

	if res.Prediction != positiveClass || res.Confidence <= minConfidence {
		return nil
	}

	pct := int(math.Round(res.Confidence * 100))
	return &vitals.Issue{
		Level: vitals.SeverityHigh,
		Code:  "asthma_risk",
		Text:  fmt.Sprintf("Asthma risk detected (%d%%)", pct),
	}
}

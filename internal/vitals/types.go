package vitals

import "encoding/json"

// Severity classifies how urgent an issue is. Only SeverityHigh is produced
// by the current rule set; the remaining levels are reserved.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Issue is a single clinically relevant finding derived from a snapshot.
// Issues are constructed once and never mutated.
type Issue struct {
	Level Severity `json:"level"`
	Code  string   `json:"code"`
	Text  string   `json:"text"`
}

// Snapshot is one set of physiological readings for a patient, keyed by
// vital-sign name (heart_rate, spo2, resp_rate, FEV1, ...). The field set is
// open-ended: unknown fields are carried through untouched so downstream
// consumers (e.g. prediction models) can use readings the rule engine
// doesn't know about.
type Snapshot map[string]any

// Number returns the named reading as a float64. The second return is false
// when the field is absent or its value is not numeric — a present-but-bogus
// value is indistinguishable from a missing one on purpose, so rules fail
// open instead of erroring.
func (s Snapshot) Number(name string) (float64, bool) {
	v, ok := s[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Has reports whether the named field is present at all, numeric or not.
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

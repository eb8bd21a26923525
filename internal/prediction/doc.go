// Package prediction integrates an external risk-prediction endpoint into the
// vitals pipeline as a fail-open adapter.
//
// Augment posts the full vitals snapshot to {base_url}/predict_asthma/ when
// the snapshot carries at least one trigger field (FEV1, resp_rate, Age) and
// expects {"prediction": 0|1, "confidence": 0..1} back. A positive prediction
// with confidence above 0.7 yields one high-severity asthma_risk issue; every
// failure mode yields nil. The predictor is an untrusted, possibly absent
// dependency — its outages must never degrade the clinical-rules path.
package prediction

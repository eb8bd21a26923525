// Package vitals defines the vitals data model and the clinical rule engine.
//
// A Snapshot is an open mapping of vital-sign name to value as decoded from
// JSON. Evaluate runs a fixed table of threshold rules against a snapshot and
// returns zero or more Issues:
//
//	spo2 < 92        → {high, low_spo2}
//	heart_rate > 120 → {high, tachycardia}
//
// Evaluate is pure, deterministic, and never fails: fields that are missing
// or non-numeric skip their rule rather than producing an error.
package vitals

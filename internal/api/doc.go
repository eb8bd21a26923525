// Package api implements the HTTP endpoints of the vitals pipeline.
//
// New(gateway, hub) returns an http.Handler that serves:
//
//	GET  /                — liveness: {"status":"ok","time":"<RFC3339>"}
//	POST /analyze/vitals  — evaluate one reading, returns {"issues":[...]}
//
// /analyze/vitals runs the clinical rules synchronously, asks the prediction
// gateway for a best-effort augmentation, broadcasts every high-severity
// issue through the alert hub, and responds with the merged issue list. The
// endpoint always succeeds: bad input degrades individual rules rather than
// failing the request, and no broadcast or prediction failure reaches the
// caller. Non-matching methods return 405 with a JSON error body.
package api

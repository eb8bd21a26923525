// Package hub implements the WebSocket fan-out for alert notifications.
//
// Hub maintains the set of live subscriber connections and pushes one
// Notification per high-severity issue to all of them.
//
// New() creates a Hub.
// Hub.Run(ctx) blocks until ctx is cancelled, then closes all connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket and keeps the
// subscriber registered until it disconnects.
// Hub.Broadcast(n) delivers n to every connected subscriber; per-subscriber
// failures drop that subscriber and never reach the caller.
//
// Message format pushed to subscribers:
//
//	{
//	  "patientId": "p1",
//	  "issue": { "level": "high", "code": "low_spo2", "text": "..." }
//	}
//
// Subscribers may send frames; they are read and discarded (reserved for
// future filtering). The upgrader accepts all origins — apply CORS at the
// reverse-proxy level. The hub is mounted at /alerts by the server; upgrade
// requests to any other path never reach it.
package hub

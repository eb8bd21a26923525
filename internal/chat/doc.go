// Package chat implements the conversational proxy endpoint.
//
// POST /chat accepts {userId, message, context} and returns {reply}. The
// proxy forwards a system-prompted conversation to an OpenAI-compatible
// chat-completions provider. A missing message is a 400; a provider failure
// is a 500 for that request only. When no credential is configured the proxy
// returns a deterministic canned reply echoing the message — the documented
// development-mode behaviour, relied on by local frontends.
//
// The proxy sits outside the vitals pipeline: it shares the process and the
// config file but touches neither the rule engine nor the alert hub.
package chat

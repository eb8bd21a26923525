// Package config loads the server configuration from the `server:` section
// of config.yaml.
//
// Config fields:
//   - HTTPPort                   — HTTP API + alert hub port (default 8000)
//   - Chat.Endpoint              — provider API base (default api.openai.com/v1)
//   - Chat.Model                 — completion model (default gpt-4o-mini)
//   - Chat.KeyEnv                — env var holding the provider key (default OPENAI_API_KEY)
//   - Prediction.BaseURLEnv      — env var holding the predictor base URL (default API_BASE_URL)
//   - Prediction.TimeoutSeconds  — per-call predictor timeout (default 3)
//
// Load(path) applies defaults before unmarshalling, then validates. A missing
// file is not an error — the server runs on defaults and environment
// variables alone. Secrets never live in the file: KeyEnv/BaseURLEnv name the
// environment variables to resolve at call time.
//
// Watch(ctx, path, onChange) hot-reloads the file via fsnotify; a failed
// reload keeps the previous configuration.
package config

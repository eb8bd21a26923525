package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hanna-health/hanna-backend/internal/config"
)

// systemPrompt frames every conversation sent to the text-generation provider.
const systemPrompt = "You are HANNA, an empathetic health coach. " +
	"Ask clarifying questions when needed. " +
	"Never provide a medical diagnosis; advise clinical visit for red flags."

const (
	maxTokens      = 512
	requestTimeout = 30 * time.Second

	// emptyReply is returned when the provider answers without usable content.
	emptyReply = "Sorry, I could not generate a response."
)

// Message is one turn of a conversation, in the provider's wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body of POST /chat. Message is required; Context carries
// prior turns verbatim.
type Request struct {
	UserID  string    `json:"userId"`
	Message string    `json:"message"`
	Context []Message `json:"context"`
}

// Response is the body returned by POST /chat.
type Response struct {
	Reply string `json:"reply"`
}

// completionRequest and completionResponse follow the OpenAI-compatible
// chat-completions wire format.
type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Proxy forwards chat messages to a configured text-generation provider.
// Without a credential it degrades to a deterministic canned reply — the
// documented development-mode contract. Proxy is an http.Handler and is safe
// for concurrent use; the credential env name may be swapped at runtime.
type Proxy struct {
	client   *resty.Client
	endpoint string
	model    string

	mu     sync.RWMutex
	keyEnv string
}

// New creates a Proxy from the chat configuration.
func New(cfg config.ChatConfig) *Proxy {
	client := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")

	return &Proxy{
		client:   client,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		keyEnv:   cfg.KeyEnv,
	}
}

// SetKeyEnv replaces the environment variable name the provider credential is
// read from (config hot reload).
func (p *Proxy) SetKeyEnv(env string) {
	p.mu.Lock()
	p.keyEnv = env
	p.mu.Unlock()
}

// key resolves the provider credential at call time, so rotating the env var
// takes effect without a restart.
func (p *Proxy) key() string {
	p.mu.RLock()
	env := p.keyEnv
	p.mu.RUnlock()
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonResp(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		jsonResp(w, http.StatusBadRequest, errorResponse{Error: "message required"})
		return
	}

	key := p.key()
	if key == "" {
		jsonResp(w, http.StatusOK, Response{Reply: cannedReply(req.Message)})
		return
	}

	messages := make([]Message, 0, len(req.Context)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, req.Context...)
	messages = append(messages, Message{Role: "user", Content: req.Message})

	var out completionResponse
	resp, err := p.client.R().
		SetContext(r.Context()).
		SetAuthToken(key).
		SetBody(completionRequest{
			Model:     p.model,
			Messages:  messages,
			MaxTokens: maxTokens,
		}).
		SetResult(&out).
		Post(p.endpoint + "/chat/completions")
	if err != nil {
		slog.Error("chat: provider call failed", "user_id", req.UserID, "err", err)
		jsonResp(w, http.StatusInternalServerError, errorResponse{Error: "LLM failure"})
		return
	}
	if resp.IsError() {
		slog.Error("chat: provider returned error status",
			"user_id", req.UserID, "status", resp.StatusCode())
		jsonResp(w, http.StatusInternalServerError, errorResponse{Error: "LLM failure"})
		return
	}

	reply := emptyReply
	if len(out.Choices) > 0 && out.Choices[0].Message.Content != "" {
		reply = out.Choices[0].Message.Content
	}
	jsonResp(w, http.StatusOK, Response{Reply: reply})
}

// cannedReply is the development-mode answer used when no provider credential
// is configured. The format is part of the endpoint's documented contract.
func cannedReply(message string) string {
	return fmt.Sprintf(
		"HANNA: Thanks — I heard: %q. (Dev mode: no LLM key configured.) "+
			`Try asking "What's my heart rate?" or "What should I do if SpO2 is low?"`,
		message,
	)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

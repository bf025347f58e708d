// Package llm normalizes heterogeneous LLM backends behind one generation
// call. Two wire formats are spoken: OpenAI-compatible chat completions
// (including the SSE delta stream) and the native Ollama NDJSON API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/types"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000

	maxErrorBody = 1 << 20
)

// Request describes one generation call against a configured provider.
type Request struct {
	Provider    *types.APIProvider
	Prompt      string
	Temperature *float64 // nil means DefaultTemperature; 0 is honored as given
	MaxTokens   int      // 0 means DefaultMaxTokens
	Model       string   // optional override of the provider's model
}

// Client issues generation requests to remote providers.
type Client struct {
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log.With("component", "LLMClient"),
	}
}

// NewClientWithHTTPClient is intended for tests; it avoids network access by
// using a custom transport.
func NewClientWithHTTPClient(log *logger.Logger, httpClient *http.Client) *Client {
	c := NewClient(log)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// Generate sends the prompt to the provider. When onChunk is non-nil a
// streaming response is requested and onChunk receives each text fragment in
// arrival order; the returned string is always the full concatenation.
// Transport and protocol problems come back as an error, never a panic.
func (c *Client) Generate(ctx context.Context, req Request, onChunk func(string)) (string, error) {
	if req.Provider == nil {
		return "", fmt.Errorf("no provider configured")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = req.Provider.APIModel
	}

	stream := onChunk != nil
	url := buildAPIURL(req.Provider)
	body, err := buildRequestBody(req.Provider, model, req.Prompt, temperature, req.MaxTokens, stream)
	if err != nil {
		return "", fmt.Errorf("build request body: %w", err)
	}

	c.log.Debug("Sending generation request",
		"provider", req.Provider.Name,
		"kind", req.Provider.APIKind,
		"model", model,
		"url", url,
		"stream", stream)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	setRequestHeaders(httpReq, req.Provider, stream)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}

	if stream {
		if usesNativeOllama(req.Provider) {
			return decodeOllamaStream(resp.Body, onChunk)
		}
		return decodeOpenAIStream(resp.Body, onChunk)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if usesNativeOllama(req.Provider) {
		return parseOllamaResponse(raw)
	}
	return parseOpenAIResponse(raw)
}

// usesNativeOllama reports whether the provider speaks the native Ollama API.
// Ollama endpoints exposing a /v1 path are OpenAI-compatible and handled on
// that path instead.
func usesNativeOllama(p *types.APIProvider) bool {
	return p.APIKind == "Ollama" && !strings.Contains(p.APIURL, "/v1")
}

func buildAPIURL(p *types.APIProvider) string {
	base := strings.TrimRight(strings.TrimSpace(p.APIURL), "/")
	if usesNativeOllama(p) {
		return base + "/api/generate"
	}
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type ollamaRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

func buildRequestBody(p *types.APIProvider, model, prompt string, temperature float64, maxTokens int, stream bool) ([]byte, error) {
	if usesNativeOllama(p) {
		return json.Marshal(ollamaRequest{
			Model:       model,
			Prompt:      prompt,
			Temperature: temperature,
			Stream:      stream,
		})
	}
	return json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	})
}

func setRequestHeaders(req *http.Request, p *types.APIProvider, stream bool) {
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	apiKey := strings.TrimSpace(p.APIKey)
	switch {
	case p.APIKind == "Anthropic":
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	case usesNativeOllama(p):
		// Native Ollama takes no auth header.
	case apiKey != "":
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func parseOpenAIResponse(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func parseOllamaResponse(raw []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	if resp.Response == "" {
		return "", fmt.Errorf("provider returned no content")
	}
	return resp.Response, nil
}

// statusError converts a non-2xx response into an error carrying the
// server-provided message when one is present.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return fmt.Errorf("provider error (status %d): %s", resp.StatusCode, envelope.Message)
		}
		if envelope.Error.Message != "" {
			return fmt.Errorf("provider error (status %d): %s", resp.StatusCode, envelope.Error.Message)
		}
	}
	return fmt.Errorf("provider returned status %d", resp.StatusCode)
}

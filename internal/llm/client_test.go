package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripperFunc) *Client {
	return NewClientWithHTTPClient(logger.NewNop(), &http.Client{Transport: fn})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func openAIProvider() *types.APIProvider {
	return &types.APIProvider{
		ID:       uuid.New(),
		Name:     "test-openai",
		APIKey:   "sk-test",
		APIURL:   "https://api.example.com/v1",
		APIModel: "gpt-4o-mini",
		APIKind:  "OpenAI",
		Enabled:  true,
	}
}

func ollamaProvider() *types.APIProvider {
	return &types.APIProvider{
		ID:       uuid.New(),
		Name:     "local-ollama",
		APIURL:   "http://localhost:11434",
		APIModel: "llama3",
		APIKind:  "Ollama",
		Enabled:  true,
	}
}

func TestGenerateOpenAINonStreaming(t *testing.T) {
	var captured *http.Request
	var capturedBody chatRequest

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(200, `{"choices":[{"message":{"content":"a generated field"}}]}`), nil
	})

	got, err := client.Generate(context.Background(), Request{
		Provider: openAIProvider(),
		Prompt:   "write something",
	}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "a generated field" {
		t.Fatalf("content = %q", got)
	}

	if captured.URL.String() != "https://api.example.com/v1/chat/completions" {
		t.Errorf("url = %s", captured.URL)
	}
	if auth := captured.Header.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if capturedBody.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", capturedBody.Model)
	}
	if capturedBody.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", capturedBody.Temperature, DefaultTemperature)
	}
	if capturedBody.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %v, want default %v", capturedBody.MaxTokens, DefaultMaxTokens)
	}
	if capturedBody.Stream {
		t.Error("stream should be false without a chunk callback")
	}
}

func TestGenerateHonorsExplicitZeroTemperature(t *testing.T) {
	var raw []byte
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		raw, _ = io.ReadAll(req.Body)
		return jsonResponse(200, `{"choices":[{"message":{"content":"ok"}}]}`), nil
	})

	zero := 0.0
	if _, err := client.Generate(context.Background(), Request{
		Provider:    openAIProvider(),
		Prompt:      "be deterministic",
		Temperature: &zero,
	}, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	temp, ok := body["temperature"]
	if !ok {
		t.Fatal("temperature missing from request body")
	}
	if temp.(float64) != 0 {
		t.Errorf("temperature = %v, want 0", temp)
	}
}

func TestGenerateOpenAIStreaming(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	}, "\n")

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if accept := req.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept = %q", accept)
		}
		var body chatRequest
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		if !body.Stream {
			t.Error("stream should be true with a chunk callback")
		}
		return jsonResponse(200, stream), nil
	})

	var chunks []string
	got, err := client.Generate(context.Background(), Request{
		Provider: openAIProvider(),
		Prompt:   "hi",
	}, func(c string) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("content = %q", got)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestGenerateOllamaNative(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://localhost:11434/api/generate" {
			t.Errorf("url = %s", req.URL)
		}
		if auth := req.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		var body ollamaRequest
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		if body.Prompt != "hi" {
			t.Errorf("prompt = %q", body.Prompt)
		}
		return jsonResponse(200, `{"response":"native reply","done":true}`), nil
	})

	got, err := client.Generate(context.Background(), Request{
		Provider: ollamaProvider(),
		Prompt:   "hi",
	}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "native reply" {
		t.Fatalf("content = %q", got)
	}
}

func TestGenerateOllamaV1UsesOpenAIFormat(t *testing.T) {
	p := ollamaProvider()
	p.APIURL = "http://localhost:11434/v1"

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://localhost:11434/v1/chat/completions" {
			t.Errorf("url = %s", req.URL)
		}
		return jsonResponse(200, `{"choices":[{"message":{"content":"compat"}}]}`), nil
	})

	got, err := client.Generate(context.Background(), Request{Provider: p, Prompt: "hi"}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "compat" {
		t.Fatalf("content = %q", got)
	}
}

func TestGenerateAnthropicHeaders(t *testing.T) {
	p := openAIProvider()
	p.APIKind = "Anthropic"
	p.APIKey = "ak-test"

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if key := req.Header.Get("x-api-key"); key != "ak-test" {
			t.Errorf("x-api-key = %q", key)
		}
		if v := req.Header.Get("anthropic-version"); v == "" {
			t.Error("anthropic-version header missing")
		}
		return jsonResponse(200, `{"choices":[{"message":{"content":"claude says"}}]}`), nil
	})

	if _, err := client.Generate(context.Background(), Request{Provider: p, Prompt: "hi"}, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateHTTPErrorExtractsMessage(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(401, `{"error":{"message":"invalid api key"}}`), nil
	})

	_, err := client.Generate(context.Background(), Request{
		Provider: openAIProvider(),
		Prompt:   "hi",
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("err = %v, want server message", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want status code", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := client.Generate(context.Background(), Request{Prompt: "hi"}, nil); err == nil {
		t.Error("nil provider should fail")
	}
	if _, err := client.Generate(context.Background(), Request{Provider: openAIProvider(), Prompt: "   "}, nil); err == nil {
		t.Error("blank prompt should fail")
	}
}

func TestPickDefault(t *testing.T) {
	disabled := openAIProvider()
	disabled.Enabled = false
	enabled := ollamaProvider()

	got, err := PickDefault([]*types.APIProvider{disabled, enabled})
	if err != nil {
		t.Fatalf("PickDefault: %v", err)
	}
	if got != enabled {
		t.Fatal("want first enabled provider")
	}

	got, err = PickDefault([]*types.APIProvider{disabled})
	if err != nil {
		t.Fatalf("PickDefault: %v", err)
	}
	if got != disabled {
		t.Fatal("want fallback to first provider when none enabled")
	}

	if _, err := PickDefault(nil); err == nil {
		t.Fatal("empty list should fail")
	}
}

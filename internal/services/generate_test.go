package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/generation"
	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/promptdoc"
	"github.com/promptforge/promptforge-backend/internal/sse"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type fakeProviderService struct {
	provider *types.APIProvider
}

func (f *fakeProviderService) Create(ctx context.Context, userID uuid.UUID, input ProviderInput) (*types.APIProvider, error) {
	panic("not used")
}

func (f *fakeProviderService) Get(ctx context.Context, userID, providerID uuid.UUID) (*types.APIProvider, error) {
	if f.provider != nil && f.provider.ID == providerID {
		return f.provider, nil
	}
	return nil, fmt.Errorf("not found")
}

func (f *fakeProviderService) List(ctx context.Context, userID uuid.UUID, enabledOnly bool) ([]*types.APIProvider, error) {
	if f.provider == nil {
		return nil, nil
	}
	return []*types.APIProvider{f.provider}, nil
}

func (f *fakeProviderService) Update(ctx context.Context, userID, providerID uuid.UUID, input ProviderInput) (*types.APIProvider, error) {
	panic("not used")
}

func (f *fakeProviderService) Delete(ctx context.Context, userID, providerID uuid.UUID) error {
	panic("not used")
}

func (f *fakeProviderService) PickDefault(ctx context.Context, userID uuid.UUID) (*types.APIProvider, error) {
	if f.provider == nil {
		return nil, fmt.Errorf("no providers configured")
	}
	return f.provider, nil
}

type fakeGenerationLogRepo struct {
	mu      sync.Mutex
	entries []*types.GenerationLog
}

func (f *fakeGenerationLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.GenerationLog) (*types.GenerationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeGenerationLogRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.GenerationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func (f *fakeGenerationLogRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func sseProviderBody(fragments ...string) string {
	var b strings.Builder
	for _, frag := range fragments {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n", frag)
	}
	b.WriteString("data: [DONE]\n")
	return b.String()
}

func newGenerateFixture(t *testing.T, rt roundTripperFunc) (GenerateService, *fakeGenerationLogRepo, *sse.SSEHub, *types.APIProvider) {
	t.Helper()

	docsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".md")
		if !element.Valid(element.Type(name)) {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "# %s\n\nGenerate for {{topic}}.", name)
	}))
	t.Cleanup(docsServer.Close)

	log := logger.NewNop()
	docs := promptdoc.NewStore(docsServer.URL, log)
	client := llm.NewClientWithHTTPClient(log, &http.Client{Transport: rt})
	engine := generation.NewEngine(docs, client, log)

	provider := &types.APIProvider{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Name:     "fixture",
		APIURL:   "https://api.example.com/v1",
		APIModel: "test-model",
		APIKind:  "OpenAI",
		Enabled:  true,
	}

	logRepo := &fakeGenerationLogRepo{}
	hub := sse.NewSSEHub(log)
	svc := NewGenerateService(nil, log, engine, docs, client, &fakeProviderService{provider: provider}, logRepo, hub, nil)
	return svc, logRepo, hub, provider
}

func TestProxyStripsTagsAndLogs(t *testing.T) {
	svc, logRepo, _, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       io.NopCloser(strings.NewReader(sseProviderBody("<p>Hello</p>", " world"))),
		}, nil
	})

	var chunks []string
	content, err := svc.Proxy(context.Background(), provider.UserID, ProxyParams{
		ProviderID: provider.ID,
		Prompt:     "say hello",
		Stream:     true,
	}, func(c string) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("Proxy: %v", err)
	}
	if content != "Hello world" {
		t.Errorf("content = %q", content)
	}
	for _, c := range chunks {
		if strings.Contains(c, "<") {
			t.Errorf("chunk %q not tag-stripped", c)
		}
	}
	if logRepo.count() != 1 {
		t.Errorf("log entries = %d", logRepo.count())
	}
}

func TestProxyRejectsEmptyPrompt(t *testing.T) {
	svc, _, _, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := svc.Proxy(context.Background(), provider.UserID, ProxyParams{
		ProviderID: provider.ID,
		Prompt:     "  ",
	}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateFieldUsesDefaultProviderAndBroadcasts(t *testing.T) {
	svc, logRepo, hub, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       io.NopCloser(strings.NewReader(sseProviderBody("a task objective"))),
		}, nil
	})

	client := hub.NewSSEClient(provider.UserID)
	hub.AddChannel(client, sse.GenerationChannel(provider.UserID))
	defer hub.CloseClient(client)

	// No provider_id: falls back to the default enabled provider.
	result, err := svc.GenerateField(context.Background(), provider.UserID, FieldParams{
		Field: element.TypeTask,
		Topic: "testing",
	}, nil)
	if err != nil {
		t.Fatalf("GenerateField: %v", err)
	}
	if result.Phase != generation.PhaseSuccess {
		t.Errorf("phase = %s, err = %s", result.Phase, result.Error)
	}
	if result.Content != "a task objective" {
		t.Errorf("content = %q", result.Content)
	}
	if logRepo.count() != 1 {
		t.Errorf("log entries = %d", logRepo.count())
	}

	// The forwarder goroutine drains asynchronously.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-client.Outbound:
			if msg.Event == sse.SSEEventGenerationChunk {
				return
			}
		case <-deadline:
			t.Fatal("no chunk event broadcast to hub")
		}
	}
}

func TestGenerateBatchPartialFailure(t *testing.T) {
	call := 0
	svc, _, _, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		call++
		if call == 3 {
			return &http.Response{
				StatusCode: 500,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"message":"upstream unavailable"}`)),
			}, nil
		}
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       io.NopCloser(strings.NewReader(sseProviderBody(fmt.Sprintf("content-%d", call)))),
		}, nil
	})

	result, err := svc.GenerateBatch(context.Background(), provider.UserID, BatchParams{Topic: "testing"}, nil)
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(result.Confirmed) != 2 {
		t.Fatalf("confirmed = %v", result.Confirmed)
	}
	if result.Fields[element.TypeMyRole].Phase != generation.PhaseError {
		t.Errorf("failed field phase = %s", result.Fields[element.TypeMyRole].Phase)
	}
	if result.Fields[element.TypeDelivery].Phase != generation.PhasePending {
		t.Errorf("later field phase = %s", result.Fields[element.TypeDelivery].Phase)
	}
}

func TestGenerateBatchDrainsEventsBeforeReturn(t *testing.T) {
	svc, _, _, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       io.NopCloser(strings.NewReader(sseProviderBody("chunk"))),
		}, nil
	})

	// A slow consumer leaves a backlog on the event channel at the moment the
	// run finishes; every buffered event must still be delivered before the
	// call returns, never after.
	var returned atomic.Bool
	var delivered atomic.Int32
	onEvent := func(ev generation.Event) {
		if returned.Load() {
			t.Error("event delivered after GenerateBatch returned")
		}
		delivered.Add(1)
		time.Sleep(2 * time.Millisecond)
	}

	if _, err := svc.GenerateBatch(context.Background(), provider.UserID, BatchParams{Topic: "testing"}, onEvent); err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	returned.Store(true)
	time.Sleep(20 * time.Millisecond)

	if delivered.Load() == 0 {
		t.Fatal("no events delivered")
	}
}

func TestGenerateBatchRequiresTopic(t *testing.T) {
	svc, _, _, provider := newGenerateFixture(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := svc.GenerateBatch(context.Background(), provider.UserID, BatchParams{Topic: "  "}, nil); err == nil {
		t.Fatal("expected error")
	}
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/generation"
	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/promptdoc"
	"github.com/promptforge/promptforge-backend/internal/repos"
	"github.com/promptforge/promptforge-backend/internal/sse"
	"github.com/promptforge/promptforge-backend/internal/types"
)

// ProxyParams is a raw generation request against one of the user's
// providers, with the prompt already fully assembled by the caller.
type ProxyParams struct {
	ProviderID  uuid.UUID `json:"provider_id"`
	Prompt      string    `json:"prompt"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// FieldParams asks the engine to generate one element from its template.
type FieldParams struct {
	Field       element.Type            `json:"field"`
	Topic       string                  `json:"topic"`
	Values      map[element.Type]string `json:"values"`
	ProviderID  *uuid.UUID              `json:"provider_id,omitempty"`
	Temperature *float64                `json:"temperature,omitempty"`
	MaxTokens   int                     `json:"max_tokens"`
}

// FieldResult is the terminal state of a single-field run.
type FieldResult struct {
	Field   element.Type     `json:"field"`
	Phase   generation.Phase `json:"phase"`
	Content string           `json:"content"`
	Error   string           `json:"error,omitempty"`
}

// BatchParams asks the engine to generate all six elements in order.
type BatchParams struct {
	Topic      string     `json:"topic"`
	ProviderID *uuid.UUID `json:"provider_id,omitempty"`
}

// BatchResult carries every field's terminal status plus the confirmed
// subset (successes only).
type BatchResult struct {
	Fields    map[element.Type]generation.FieldStatus `json:"fields"`
	Confirmed map[element.Type]string                 `json:"confirmed"`
	Progress  float64                                 `json:"progress"`
}

type GenerateService interface {
	Proxy(ctx context.Context, userID uuid.UUID, params ProxyParams, onChunk func(string)) (string, error)
	GenerateField(ctx context.Context, userID uuid.UUID, params FieldParams, onChunk func(string)) (*FieldResult, error)
	GenerateBatch(ctx context.Context, userID uuid.UUID, params BatchParams, onEvent func(generation.Event)) (*BatchResult, error)
	InvalidateDocs()
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.GenerationLog, error)
}

type generateService struct {
	db          *gorm.DB
	log         *logger.Logger
	engine      *generation.Engine
	docs        *promptdoc.Store
	client      *llm.Client
	providerSvc ProviderService
	logRepo     repos.GenerationLogRepo
	hub         *sse.SSEHub
	bus         SSEBus // nil when running single-instance
}

func NewGenerateService(
	db *gorm.DB,
	log *logger.Logger,
	engine *generation.Engine,
	docs *promptdoc.Store,
	client *llm.Client,
	providerSvc ProviderService,
	logRepo repos.GenerationLogRepo,
	hub *sse.SSEHub,
	bus SSEBus,
) GenerateService {
	return &generateService{
		db:          db,
		log:         log.With("service", "GenerateService"),
		engine:      engine,
		docs:        docs,
		client:      client,
		providerSvc: providerSvc,
		logRepo:     logRepo,
		hub:         hub,
		bus:         bus,
	}
}

// Proxy runs a raw prompt against the named provider. Output fragments are
// tag-stripped before reaching onChunk and the returned string.
func (gs *generateService) Proxy(ctx context.Context, userID uuid.UUID, params ProxyParams, onChunk func(string)) (string, error) {
	provider, err := gs.resolveProvider(ctx, userID, &params.ProviderID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(params.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	var streamCb func(string)
	if params.Stream && onChunk != nil {
		streamCb = func(chunk string) {
			if text := llm.StripTags(chunk); text != "" {
				onChunk(text)
			}
		}
	}

	start := time.Now()
	content, err := gs.client.Generate(ctx, llm.Request{
		Provider:    provider,
		Prompt:      params.Prompt,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}, streamCb)
	content = llm.StripTags(content)

	gs.writeLog(ctx, userID, provider.ID, "", params.Prompt, content, time.Since(start), err)
	return content, err
}

// GenerateField runs the engine for one element of the template.
func (gs *generateService) GenerateField(ctx context.Context, userID uuid.UUID, params FieldParams, onChunk func(string)) (*FieldResult, error) {
	if !element.Valid(params.Field) {
		return nil, fmt.Errorf("unknown field %q", params.Field)
	}
	provider, err := gs.resolveProvider(ctx, userID, params.ProviderID)
	if err != nil {
		return nil, err
	}

	bus := generation.NewBus()
	events, cancel := bus.Subscribe(256)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		gs.forward(userID, events, nil)
	}()

	session := generation.NewSession(params.Field, bus)
	start := time.Now()
	runErr := gs.engine.Generate(ctx, session, generation.Params{
		Provider:    provider,
		Topic:       params.Topic,
		Values:      params.Values,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		OnChunk:     onChunk,
	})

	// Closing the subscription and waiting for the drain keeps every event
	// ahead of the returned result.
	cancel()
	<-drained

	result := &FieldResult{
		Field:   params.Field,
		Phase:   session.Phase(),
		Content: session.Content(),
		Error:   session.Err(),
	}
	gs.writeLog(ctx, userID, provider.ID, params.Field, "", result.Content, time.Since(start), runErr)
	return result, nil
}

// GenerateBatch drives all six fields in order with one provider, forwarding
// progress events to the SSE layer and the optional onEvent callback. A
// mid-batch failure still returns the partial result; only zero successes is
// an error.
func (gs *generateService) GenerateBatch(ctx context.Context, userID uuid.UUID, params BatchParams, onEvent func(generation.Event)) (*BatchResult, error) {
	if strings.TrimSpace(params.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	provider, err := gs.resolveProvider(ctx, userID, params.ProviderID)
	if err != nil {
		return nil, err
	}

	bus := generation.NewBus()
	events, cancel := bus.Subscribe(1024)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		gs.forward(userID, events, onEvent)
	}()

	batch := generation.NewBatch(gs.engine, provider, params.Topic, bus)
	start := time.Now()
	runErr := batch.Run(ctx)
	if runErr != nil {
		gs.log.Warn("Batch stopped early", "user_id", userID, "error", runErr)
	}

	// The handler writes a terminal frame to the same ResponseWriter onEvent
	// feeds; wait for the drain so no event lands after the return.
	cancel()
	<-drained

	snapshot := batch.Snapshot()
	confirmed, confirmErr := batch.Confirm()

	for field, st := range snapshot {
		if st.Phase.Terminal() {
			var fieldErr error
			if st.Error != "" {
				fieldErr = fmt.Errorf("%s", st.Error)
			}
			gs.writeLog(ctx, userID, provider.ID, field, "", st.Content, time.Since(start), fieldErr)
		}
	}

	if confirmErr != nil {
		return nil, confirmErr
	}
	return &BatchResult{
		Fields:    snapshot,
		Confirmed: confirmed,
		Progress:  batch.Progress(),
	}, nil
}

// InvalidateDocs drops the prompt template cache so the next generation
// re-fetches the documents.
func (gs *generateService) InvalidateDocs() {
	gs.docs.Invalidate()
}

func (gs *generateService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.GenerationLog, error) {
	return gs.logRepo.ListByUserID(ctx, nil, userID, limit)
}

func (gs *generateService) resolveProvider(ctx context.Context, userID uuid.UUID, providerID *uuid.UUID) (*types.APIProvider, error) {
	if providerID != nil && *providerID != uuid.Nil {
		provider, err := gs.providerSvc.Get(ctx, userID, *providerID)
		if err != nil {
			return nil, fmt.Errorf("provider not found")
		}
		return provider, nil
	}
	return gs.providerSvc.PickDefault(ctx, userID)
}

// forward drains engine events into the SSE layer until the bus channel
// closes. Publishing uses a background context: the request context ends
// with the HTTP call while subscribers may outlive it.
func (gs *generateService) forward(userID uuid.UUID, events <-chan generation.Event, onEvent func(generation.Event)) {
	channel := sse.GenerationChannel(userID)
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}

		var kind sse.SSEEvent
		switch ev.Kind {
		case generation.EventChunk:
			kind = sse.SSEEventGenerationChunk
		case generation.EventProgress:
			kind = sse.SSEEventGenerationProgress
		default:
			kind = sse.SSEEventGenerationPhase
		}
		msg := sse.SSEMessage{Channel: channel, Event: kind, Data: ev}

		if gs.bus != nil {
			if err := gs.bus.Publish(context.Background(), msg); err != nil {
				gs.log.Warn("SSE bus publish failed", "error", err)
			}
			continue
		}
		gs.hub.Broadcast(msg)
	}
}

func (gs *generateService) writeLog(ctx context.Context, userID, providerID uuid.UUID, field element.Type, prompt, content string, elapsed time.Duration, runErr error) {
	entry := &types.GenerationLog{
		ID:         uuid.New(),
		UserID:     userID,
		ProviderID: providerID,
		Element:    string(field),
		Prompt:     prompt,
		Content:    content,
		Success:    runErr == nil,
		DurationMs: elapsed.Milliseconds(),
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if _, err := gs.logRepo.Create(ctx, nil, entry); err != nil {
		gs.log.Warn("Failed to write generation log", "error", err)
	}
}

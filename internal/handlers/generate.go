package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge-backend/internal/generation"
	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/services"
)

type GenerateHandler struct {
	log             *logger.Logger
	generateService services.GenerateService
}

func NewGenerateHandler(log *logger.Logger, generateService services.GenerateService) *GenerateHandler {
	return &GenerateHandler{
		log:             log.With("handler", "GenerateHandler"),
		generateService: generateService,
	}
}

// sseWriter emits the unified stream envelope: one data frame per fragment,
// one terminal frame carrying done or error.
type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
}

func newSSEWriter(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "stream_unsupported", nil)
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &sseWriter{c: c, flusher: flusher}, true
}

func (w *sseWriter) write(frame llm.StreamEnvelope) {
	raw, err := json.Marshal(frame)
	if err != nil {
		return
	}
	w.c.Writer.WriteString("data: ")
	w.c.Writer.Write(raw)
	w.c.Writer.WriteString("\n\n")
	w.flusher.Flush()
}

// Proxy forwards a fully assembled prompt to a provider under the unified
// wire contract. Streaming responses are SSE envelopes; non-streaming ones
// are a plain JSON data envelope.
func (h *GenerateHandler) Proxy(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var params services.ProxyParams
	if err := c.ShouldBindJSON(&params); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if !params.Stream {
		content, err := h.generateService.Proxy(c.Request.Context(), userID, params, nil)
		if err != nil {
			RespondError(c, http.StatusBadGateway, "generate_failed", err)
			return
		}
		RespondOK(c, gin.H{"data": gin.H{"content": content}})
		return
	}

	writer, ok := newSSEWriter(c)
	if !ok {
		return
	}
	_, err = h.generateService.Proxy(c.Request.Context(), userID, params, func(chunk string) {
		writer.write(llm.StreamEnvelope{Content: chunk})
	})
	if err != nil {
		writer.write(llm.StreamEnvelope{Error: err.Error()})
		return
	}
	writer.write(llm.StreamEnvelope{Done: true})
}

// GenerateField runs the engine for one element and streams its fragments.
func (h *GenerateHandler) GenerateField(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var params services.FieldParams
	if err := c.ShouldBindJSON(&params); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	writer, ok := newSSEWriter(c)
	if !ok {
		return
	}
	result, err := h.generateService.GenerateField(c.Request.Context(), userID, params, func(chunk string) {
		writer.write(llm.StreamEnvelope{Content: chunk})
	})
	if err != nil {
		writer.write(llm.StreamEnvelope{Error: err.Error()})
		return
	}
	if result.Error != "" {
		writer.write(llm.StreamEnvelope{Error: result.Error})
		return
	}
	writer.write(llm.StreamEnvelope{Done: true})
}

// GenerateBatch runs all six fields and streams engine events as they
// happen, ending with a result frame.
func (h *GenerateHandler) GenerateBatch(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var params services.BatchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "stream_unsupported", nil)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeFrame := func(event string, payload any) {
		raw, err := json.Marshal(payload)
		if err != nil {
			return
		}
		c.Writer.WriteString("event: " + event + "\ndata: ")
		c.Writer.Write(raw)
		c.Writer.WriteString("\n\n")
		flusher.Flush()
	}

	result, err := h.generateService.GenerateBatch(c.Request.Context(), userID, params, func(ev generation.Event) {
		writeFrame(string(ev.Kind), ev)
	})
	if err != nil {
		writeFrame("error", gin.H{"error": err.Error()})
		return
	}
	writeFrame("result", result)
}

// InvalidateDocs clears the prompt template cache.
func (h *GenerateHandler) InvalidateDocs(c *gin.Context) {
	if _, err := currentUserID(c); err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	h.generateService.InvalidateDocs()
	RespondOK(c, gin.H{"message": "template cache invalidated"})
}

// History lists the user's recent generation log entries.
func (h *GenerateHandler) History(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.generateService.History(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"logs": entries})
}

// Package promptdoc loads the per-element prompt templates from the static
// docs endpoint and caches them for the life of the process.
package promptdoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/logger"
)

// docFiles maps each element to its template document under the docs path.
var docFiles = map[element.Type]string{
	element.TypeTask:     "task.md",
	element.TypeAIRole:   "ai_role.md",
	element.TypeMyRole:   "my_role.md",
	element.TypeKeyInfo:  "key_info.md",
	element.TypeBehavior: "behavior.md",
	element.TypeDelivery: "delivery.md",
}

// DocFile returns the document file name for t, or "" for unknown types.
func DocFile(t element.Type) string {
	return docFiles[t]
}

// Store fetches and caches prompt template documents. It is constructed once
// at startup and passed to consumers; there is no package-level cache.
type Store struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger

	mu    sync.RWMutex
	cache map[element.Type]string
}

// NewStore creates a Store reading documents from baseURL (e.g.
// "http://localhost:8080/docs").
func NewStore(baseURL string, log *logger.Logger) *Store {
	return &Store{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With("component", "PromptDocStore"),
		cache:      make(map[element.Type]string),
	}
}

// WithHTTPClient overrides the HTTP client; intended for tests.
func (s *Store) WithHTTPClient(c *http.Client) *Store {
	if c != nil {
		s.httpClient = c
	}
	return s
}

// Get returns the template text for t. The first call fetches the document
// and caches it; later calls hit the cache. Any fetch problem, an empty body,
// or an HTML error page yields "". Callers treat "" as "template
// unavailable" and must not feed it to a model.
func (s *Store) Get(ctx context.Context, t element.Type) string {
	s.mu.RLock()
	cached, ok := s.cache[t]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	file := docFiles[t]
	if file == "" {
		s.log.Warn("Unknown element type requested", "type", string(t))
		return ""
	}

	content, err := s.fetch(ctx, file)
	if err != nil {
		s.log.Warn("Prompt doc fetch failed", "type", string(t), "file", file, "error", err)
		return ""
	}

	s.mu.Lock()
	s.cache[t] = content
	s.mu.Unlock()
	return content
}

// Invalidate drops the entire cache so the next Get re-fetches. Called when
// the hosting view is re-entered, guarding against stale docs across deploys.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[element.Type]string)
	s.mu.Unlock()
	s.log.Debug("Prompt doc cache invalidated")
}

func (s *Store) fetch(ctx context.Context, file string) (string, error) {
	url := s.baseURL + "/" + file

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/markdown, text/plain, */*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("doc fetch status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	content := string(body)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("doc %s is empty", file)
	}
	if LooksLikeHTMLPage(content) {
		// Misconfigured static serving returns an HTML fallback page
		// instead of a 404; never use that as a prompt.
		return "", fmt.Errorf("doc %s returned an HTML page instead of markdown", file)
	}

	return content, nil
}

// LooksLikeHTMLPage reports whether body is an HTML document rather than a
// markdown/plain-text template. String-prefix sniffing mirrors what the docs
// transport can actually send back; a content-type contract would be stricter
// but is not what misbehaving static servers honor.
func LooksLikeHTMLPage(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<!DOCTYPE") ||
		strings.HasPrefix(trimmed, "<!doctype") ||
		strings.HasPrefix(trimmed, "<html")
}

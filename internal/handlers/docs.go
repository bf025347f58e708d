package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/promptdoc"
)

// DocsHandler serves the per-element prompt template documents. Unknown
// names get a real 404 rather than an HTML fallback page, so the template
// store's failure detection stays honest.
type DocsHandler struct {
	log     *logger.Logger
	docsDir string
}

func NewDocsHandler(log *logger.Logger, docsDir string) *DocsHandler {
	return &DocsHandler{
		log:     log.With("handler", "DocsHandler"),
		docsDir: docsDir,
	}
}

func (h *DocsHandler) GetDoc(c *gin.Context) {
	name := c.Param("name")
	field := element.Type(strings.TrimSuffix(name, ".md"))
	if !element.Valid(field) {
		RespondError(c, http.StatusNotFound, "doc_not_found", nil)
		return
	}

	path := filepath.Join(h.docsDir, promptdoc.DocFile(field))
	body, err := os.ReadFile(path)
	if err != nil {
		h.log.Warn("Prompt doc missing on disk", "path", path, "error", err)
		RespondError(c, http.StatusNotFound, "doc_not_found", err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", body)
}

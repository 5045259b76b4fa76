package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/services"
)

// maxTextBody bounds request bodies carrying study text.
const maxTextBody = 1 << 20

type TextHandler struct {
	text   services.TextService
	export services.ExportService
}

func NewTextHandler(text services.TextService, export services.ExportService) *TextHandler {
	return &TextHandler{text: text, export: export}
}

type normalizeRequest struct {
	Text    string `json:"text"`
	Profile string `json:"profile"`
	Format  string `json:"format"`
}

// POST /api/text/normalize
func (h *TextHandler) Normalize(c *gin.Context) {
	var req normalizeRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.text.Normalize(c.Request.Context(), req.Text, req.Profile, req.Format)
	if err != nil {
		respondServiceError(c, err, "normalize_failed")
		return
	}
	response.RespondOK(c, gin.H{"text": out})
}

type chunksRequest struct {
	Text         string `json:"text"`
	Profile      string `json:"profile"`
	MaxChunkSize int    `json:"max_chunk_size"`
}

// POST /api/text/chunks
func (h *TextHandler) Chunks(c *gin.Context) {
	var req chunksRequest
	if !bindJSON(c, &req) {
		return
	}
	chunks, err := h.text.Chunk(c.Request.Context(), req.Text, req.Profile, req.MaxChunkSize)
	if err != nil {
		respondServiceError(c, err, "chunk_failed")
		return
	}
	if chunks == nil {
		chunks = []string{}
	}
	response.RespondOK(c, gin.H{"chunks": chunks})
}

type exportRequest struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	Profile string `json:"profile"`
}

// POST /api/exports/html
func (h *TextHandler) ExportHTML(c *gin.Context) {
	var req exportRequest
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.export.RenderHTML(c.Request.Context(), req.Title, req.Text, req.Profile)
	if err != nil {
		respondServiceError(c, err, "export_failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTextBody)
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

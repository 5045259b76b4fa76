package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/services"
)

const maxProgressLimit = 500

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// POST /api/students/:student_id/progress
func (h *ProgressHandler) RecordProgress(c *gin.Context) {
	var in services.ProgressInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.progress.Record(c.Request.Context(), c.Param("student_id"), in)
	if err != nil {
		respondServiceError(c, err, "record_progress_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": row})
}

// GET /api/students/:student_id/progress?kind=&since=&until=&limit=
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	q := services.ProgressQuery{Kind: c.Query("kind")}
	var err error
	if q.Since, err = parseTimeParam(c, "since"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_since", err)
		return
	}
	if q.Until, err = parseTimeParam(c, "until"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_until", err)
		return
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a non-negative integer"))
			return
		}
		q.Limit = n
	}
	if q.Limit == 0 || q.Limit > maxProgressLimit {
		q.Limit = maxProgressLimit
	}

	rows, err := h.progress.List(c.Request.Context(), c.Param("student_id"), q)
	if err != nil {
		respondServiceError(c, err, "list_progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"records": rows})
}

func parseTimeParam(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339: %w", name, err)
	}
	return &t, nil
}

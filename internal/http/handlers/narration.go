package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/studyvoice-backend/internal/domain"
	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
	"github.com/yungbote/studyvoice-backend/internal/services"
	"github.com/yungbote/studyvoice-backend/internal/speech"
)

type NarrationHandler struct {
	log        *logger.Logger
	narrations services.NarrationService
	hub        *realtime.SSEHub
}

func NewNarrationHandler(log *logger.Logger, narrations services.NarrationService, hub *realtime.SSEHub) *NarrationHandler {
	return &NarrationHandler{
		log:        log.With("handler", "NarrationHandler"),
		narrations: narrations,
		hub:        hub,
	}
}

type startNarrationRequest struct {
	Text         string             `json:"text"`
	Profile      string             `json:"profile"`
	MaxChunkSize int                `json:"max_chunk_size"`
	Voice        speech.VoiceConfig `json:"voice"`
}

// POST /api/narrations
func (h *NarrationHandler) StartNarration(c *gin.Context) {
	var req startNarrationRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.narrations.Start(c.Request.Context(), services.StartNarrationInput{
		Text:         req.Text,
		Profile:      req.Profile,
		MaxChunkSize: req.MaxChunkSize,
		Voice:        req.Voice,
	})
	if err != nil {
		respondServiceError(c, err, "start_narration_failed")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"narration": row})
}

// GET /api/narrations/:id
func (h *NarrationHandler) GetNarration(c *gin.Context) {
	id, ok := narrationID(c)
	if !ok {
		return
	}
	row, err := h.narrations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_narration_failed")
		return
	}
	response.RespondOK(c, gin.H{"narration": row})
}

// POST /api/narrations/:id/stop
func (h *NarrationHandler) StopNarration(c *gin.Context) {
	id, ok := narrationID(c)
	if !ok {
		return
	}
	row, err := h.narrations.Stop(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "stop_narration_failed")
		return
	}
	response.RespondOK(c, gin.H{"narration": row})
}

// GET /api/narrations/:id/events
func (h *NarrationHandler) NarrationEvents(c *gin.Context) {
	id, ok := narrationID(c)
	if !ok {
		return
	}
	if _, err := h.narrations.Get(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "get_narration_failed")
		return
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, realtime.NarrationChannel(id))
	defer h.hub.CloseClient(client)

	// re-read after subscribing so a session that finished in between still
	// gets its terminal event
	row, err := h.narrations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_narration_failed")
		return
	}
	if row.Status.Terminal() {
		client.Outbound <- terminalMessage(row)
	}
	h.log.Debug("narration stream open", "session_id", id, "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}

func terminalMessage(row *types.NarrationSession) realtime.SSEMessage {
	msg := realtime.SSEMessage{
		Channel: realtime.NarrationChannel(row.ID),
		Data:    map[string]any{"session_id": row.ID},
	}
	switch row.Status {
	case types.NarrationDone:
		msg.Event = realtime.SSEEventNarrationDone
	case types.NarrationStopped:
		msg.Event = realtime.SSEEventNarrationStopped
	default:
		msg.Event = realtime.SSEEventNarrationFailed
		msg.Data = map[string]any{"index": row.CurrentChunk, "error": row.Error}
	}
	return msg
}

func narrationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_narration_id", err)
		return uuid.Nil, false
	}
	return id, true
}

package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type SSEEvent string

const (
	SSEEventNarrationStarted    SSEEvent = "NarrationStarted"
	SSEEventNarrationChunkStart SSEEvent = "NarrationChunkStarted"
	SSEEventNarrationChunkAudio SSEEvent = "NarrationChunkAudio"
	SSEEventNarrationChunkDone  SSEEvent = "NarrationChunkDone"
	SSEEventNarrationDone       SSEEvent = "NarrationDone"
	SSEEventNarrationStopped    SSEEvent = "NarrationStopped"
	SSEEventNarrationFailed     SSEEvent = "NarrationFailed"

	// SSEEventNarrationStopRequested travels on NarrationControlChannel between
	// instances and is never streamed to clients.
	SSEEventNarrationStopRequested SSEEvent = "NarrationStopRequested"
)

// NarrationControlChannel carries instance-to-instance narration commands.
const NarrationControlChannel = "narration:control"

// Terminal reports whether the event ends a narration stream.
func (e SSEEvent) Terminal() bool {
	switch e {
	case SSEEventNarrationDone, SSEEventNarrationStopped, SSEEventNarrationFailed:
		return true
	}
	return false
}

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	closed   sync.Once
	Logger   *logger.Logger
}

// NarrationChannel is the SSE channel a narration session publishes on.
func NarrationChannel(sessionID uuid.UUID) string {
	return "narration:" + sessionID.String()
}

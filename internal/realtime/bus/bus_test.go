package bus

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
)

func TestLocalBusBroadcastsToHub(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, "narration:1")

	b := NewLocalBus(hub)
	if err := b.Publish(context.Background(), realtime.SSEMessage{Channel: "narration:1", Event: realtime.SSEEventNarrationDone}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case msg := <-client.Outbound:
		if msg.Event != realtime.SSEEventNarrationDone {
			t.Fatalf("event: got=%s", msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message delivered")
	}
}

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage(`{"channel":"narration:1","event":"NarrationDone","data":{"index":2}}`)
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if msg.Channel != "narration:1" || msg.Event != realtime.SSEEventNarrationDone {
		t.Fatalf("msg: got=%+v", msg)
	}
	if _, err := decodeMessage(`{"event":"NarrationDone"}`); err == nil {
		t.Fatalf("expected error for missing channel")
	}
	if _, err := decodeMessage(`not json`); err == nil {
		t.Fatalf("expected error for bad json")
	}
}

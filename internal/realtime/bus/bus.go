package bus

import (
	"context"

	"github.com/yungbote/studyvoice-backend/internal/realtime"
)

// Bus fans SSE messages out to every API instance.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// localBus delivers straight to an in-process hub. Used when Redis is not configured.
type localBus struct {
	hub *realtime.SSEHub
}

func NewLocalBus(hub *realtime.SSEHub) Bus { return &localBus{hub: hub} }

func (b *localBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	b.hub.Broadcast(msg)
	return nil
}

func (b *localBus) StartForwarder(context.Context, func(realtime.SSEMessage)) error { return nil }

func (b *localBus) Close() error { return nil }

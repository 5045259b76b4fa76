package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
	"github.com/yungbote/studyvoice-backend/internal/speech"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	gets    int
	sets    int
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return "", false, errors.New("cache down")
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg realtime.SSEMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) events() []realtime.SSEEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Event)
	}
	return out
}

func (p *recordingPublisher) count(event realtime.SSEEvent) int {
	n := 0
	for _, e := range p.events() {
		if e == event {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) waitFor(t *testing.T, event realtime.SSEEvent) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if p.count(event) > 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("event %s never published; got=%v", event, p.events())
}

// peerPublisher records every message and hands control messages to each
// peer, the way the Redis bus links instances.
type peerPublisher struct {
	recordingPublisher

	peersMu sync.Mutex
	peers   []NarrationService
}

func (p *peerPublisher) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	_ = p.recordingPublisher.Publish(ctx, msg)
	if msg.Channel != realtime.NarrationControlChannel {
		return nil
	}
	p.peersMu.Lock()
	peers := append([]NarrationService(nil), p.peers...)
	p.peersMu.Unlock()
	for _, peer := range peers {
		peer.HandleControl(msg)
	}
	return nil
}

// scriptedEngine completes or fails each utterance according to failAt, or
// holds callbacks when hold is set.
type scriptedEngine struct {
	mu     sync.Mutex
	spoken []string
	stops  int
	failAt int
	hold   bool
}

func (e *scriptedEngine) Speak(_ context.Context, text string, _ speech.VoiceConfig, cb speech.Callbacks) error {
	e.mu.Lock()
	idx := len(e.spoken)
	e.spoken = append(e.spoken, text)
	hold := e.hold
	e.mu.Unlock()
	if hold {
		return nil
	}
	go func() {
		if idx == e.failAt {
			cb.OnError(errors.New("voice unavailable"))
			return
		}
		cb.OnDone()
	}()
	return nil
}

func (e *scriptedEngine) Stop() error {
	e.mu.Lock()
	e.stops++
	e.mu.Unlock()
	return nil
}

func (e *scriptedEngine) spokenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spoken)
}

func waitSpoken(t *testing.T, e *scriptedEngine, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if e.spokenCount() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("engine spoke %d chunks, want %d", e.spokenCount(), n)
}

func newTestTextService(t *testing.T, cache TextCache, maxChunk int) TextService {
	t.Helper()
	return NewTextService(testLogger(t), textnorm.NewRegistry(), cache, maxChunk)
}

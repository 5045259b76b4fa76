package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/repos"
	types "github.com/yungbote/studyvoice-backend/internal/domain"
	"github.com/yungbote/studyvoice-backend/internal/observability"
	"github.com/yungbote/studyvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
	"github.com/yungbote/studyvoice-backend/internal/speech"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

type StartNarrationInput struct {
	Text         string
	Profile      string
	MaxChunkSize int
	Voice        speech.VoiceConfig
}

type EventPublisher interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
}

type NarrationService interface {
	Start(ctx context.Context, in StartNarrationInput) (*types.NarrationSession, error)
	Get(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error)
	// Stop cancels a running session and is a no-op for finished ones.
	Stop(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error)
	// Done is closed when the session's sequence finishes; nil if it is not running.
	Done(id uuid.UUID) <-chan struct{}
	// RecoverOrphans closes sessions left speaking by a previous run of this
	// instance or abandoned by another one.
	RecoverOrphans(ctx context.Context) (int, error)
	// HandleControl applies a command received on realtime.NarrationControlChannel.
	HandleControl(msg realtime.SSEMessage)
	Shutdown(ctx context.Context) error
}

const (
	defaultStaleAfter = 5 * time.Minute
	defaultStopWait   = 3 * time.Second

	interruptedMessage = "narration interrupted"
)

type NarrationOption func(*narrationService)

// WithNarrationOwner names the instance that owns sessions it starts.
// Defaults to the hostname.
func WithNarrationOwner(owner string) NarrationOption {
	return func(s *narrationService) {
		if owner = strings.TrimSpace(owner); owner != "" {
			s.owner = owner
		}
	}
}

// WithNarrationStaleAfter sets how long a speaking session may go without a
// row update before any instance treats it as abandoned.
func WithNarrationStaleAfter(d time.Duration) NarrationOption {
	return func(s *narrationService) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithNarrationStopWait bounds how long Stop waits for another instance to
// stop a session it owns.
func WithNarrationStopWait(d time.Duration) NarrationOption {
	return func(s *narrationService) {
		if d > 0 {
			s.stopWait = d
		}
	}
}

type activeNarration struct {
	seq    *speech.Sequence
	cancel context.CancelFunc

	mu     sync.Mutex
	audio  []string
	closed bool
}

type narrationService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.NarrationSessionRepo
	text      TextService
	engines   EngineFactory
	publisher EventPublisher

	owner      string
	staleAfter time.Duration
	stopWait   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	active   map[uuid.UUID]*activeNarration
	starting map[uuid.UUID]struct{}
}

func NewNarrationService(
	db *gorm.DB,
	log *logger.Logger,
	repo repos.NarrationSessionRepo,
	text TextService,
	engines EngineFactory,
	publisher EventPublisher,
	opts ...NarrationOption,
) NarrationService {
	s := &narrationService{
		db:         db,
		log:        log.With("service", "NarrationService"),
		repo:       repo,
		text:       text,
		engines:    engines,
		publisher:  publisher,
		owner:      defaultOwner(),
		staleAfter: defaultStaleAfter,
		stopWait:   defaultStopWait,
		now:        func() time.Time { return time.Now().UTC() },
		active:     make(map[uuid.UUID]*activeNarration),
		starting:   make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultOwner() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}

func (s *narrationService) Start(ctx context.Context, in StartNarrationInput) (*types.NarrationSession, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrNothingToSpeak
	}
	profile := in.Profile
	if strings.TrimSpace(profile) == "" {
		profile = textnorm.ProfileSpeech
	}
	p, err := s.text.ResolveProfile(profile)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "narration.start", attribute.String("profile", p.Name))
	defer span.End()

	chunks, err := s.text.Chunk(ctx, in.Text, p.Name, in.MaxChunkSize)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNothingToSpeak
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	rawChunks, err := json.Marshal(chunks)
	if err != nil {
		return nil, fmt.Errorf("marshal chunks: %w", err)
	}
	row := &types.NarrationSession{
		ID:           uuid.New(),
		Status:       types.NarrationSpeaking,
		Owner:        s.owner,
		Profile:      p.Name,
		Language:     in.Voice.Language,
		Voice:        in.Voice.Voice,
		Pitch:        in.Voice.Pitch,
		Rate:         in.Voice.Rate,
		ChunkCount:   len(chunks),
		CurrentChunk: 0,
		Chunks:       datatypes.JSON(rawChunks),
	}
	s.mu.Lock()
	s.starting[row.ID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.starting, row.ID)
		s.mu.Unlock()
	}()

	if _, err := s.repo.Create(ctx, s.db, row); err != nil {
		return nil, fmt.Errorf("create narration session: %w", err)
	}

	log := s.log.With(append(ctxutil.LogFields(ctx), "session_id", row.ID)...)
	an := &activeNarration{}
	engine := s.engines(row.ID, func(index int, url string) { s.onAudio(row.ID, an, index, url) })
	player, err := speech.NewPlayer(engine, log)
	if err != nil {
		s.finishRow(row.ID, types.NarrationFailed, err.Error())
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctxutil.Detach(ctx))
	an.cancel = cancel

	s.publish(row.ID, realtime.SSEEventNarrationStarted, map[string]any{
		"session_id":  row.ID,
		"chunk_count": len(chunks),
		"profile":     p.Name,
	})

	// hold the lock across Start so handlers that fire immediately find the entry
	s.mu.Lock()
	seq, err := player.Start(runCtx, chunks, in.Voice, s.handlers(row.ID, an, log))
	if err != nil {
		s.mu.Unlock()
		cancel()
		s.finishRow(row.ID, types.NarrationFailed, err.Error())
		return nil, err
	}
	an.seq = seq
	s.active[row.ID] = an
	s.mu.Unlock()

	log.Info("narration started", "chunks", len(chunks), "profile", p.Name)
	return row, nil
}

func (s *narrationService) handlers(id uuid.UUID, an *activeNarration, log *logger.Logger) speech.Handlers {
	return speech.Handlers{
		OnChunkStart: func(index int, text string) {
			s.updateRow(id, map[string]interface{}{"current_chunk": index})
			s.publish(id, realtime.SSEEventNarrationChunkStart, map[string]any{"index": index, "text": text})
		},
		OnChunkDone: func(index int) {
			s.publish(id, realtime.SSEEventNarrationChunkDone, map[string]any{"index": index})
		},
		OnDone: func() {
			s.finish(id, an, types.NarrationDone, "")
			s.publish(id, realtime.SSEEventNarrationDone, map[string]any{"session_id": id})
			log.Info("narration finished")
		},
		OnStopped: func() {
			s.finish(id, an, types.NarrationStopped, "")
			s.publish(id, realtime.SSEEventNarrationStopped, map[string]any{"session_id": id})
			log.Info("narration stopped")
		},
		OnError: func(index int, err error) {
			s.finish(id, an, types.NarrationFailed, err.Error())
			s.publish(id, realtime.SSEEventNarrationFailed, map[string]any{"index": index, "error": err.Error()})
			log.Warn("narration failed", "index", index, "error", err)
		},
	}
}

func (s *narrationService) onAudio(id uuid.UUID, an *activeNarration, index int, url string) {
	an.mu.Lock()
	if an.closed {
		an.mu.Unlock()
		return
	}
	for len(an.audio) <= index {
		an.audio = append(an.audio, "")
	}
	an.audio[index] = url
	raw, err := json.Marshal(an.audio)
	an.mu.Unlock()
	if err == nil {
		s.updateRow(id, map[string]interface{}{"audio_urls": datatypes.JSON(raw)})
	}
	s.publish(id, realtime.SSEEventNarrationChunkAudio, map[string]any{"index": index, "url": url})
}

func (s *narrationService) finish(id uuid.UUID, an *activeNarration, status types.NarrationStatus, errMsg string) {
	an.mu.Lock()
	an.closed = true
	an.mu.Unlock()

	s.finishRow(id, status, errMsg)

	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
	if an.cancel != nil {
		an.cancel()
	}
}

// finishRow moves a speaking row to status. It reports false when the row was
// already finished, e.g. closed by another instance.
func (s *narrationService) finishRow(id uuid.UUID, status types.NarrationStatus, errMsg string) bool {
	updates := map[string]interface{}{"status": status, "finished_at": s.now()}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ok, err := s.repo.UpdateFieldsIfStatus(ctx, s.db, id, types.NarrationSpeaking, updates)
	if err != nil {
		s.log.Error("narration session update failed", "session_id", id, "error", err)
		return false
	}
	return ok
}

func (s *narrationService) updateRow(id uuid.UUID, updates map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.UpdateFields(ctx, s.db, id, updates); err != nil {
		s.log.Error("narration session update failed", "session_id", id, "error", err)
	}
}

func (s *narrationService) publish(id uuid.UUID, event realtime.SSEEvent, data any) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg := realtime.SSEMessage{Channel: realtime.NarrationChannel(id), Event: event, Data: data}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.Warn("narration event publish failed", "session_id", id, "event", event, "error", err)
	}
}

func (s *narrationService) Get(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.orphaned(row) && s.reap(row) {
		return s.load(ctx, id)
	}
	return row, nil
}

func (s *narrationService) load(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error) {
	row, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("load narration session: %w", err)
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}
	return row, nil
}

func (s *narrationService) lookup(id uuid.UUID) (an *activeNarration, local bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	an = s.active[id]
	_, starting := s.starting[id]
	return an, an != nil || starting
}

// orphaned reports whether row claims to be speaking although no instance can
// still be driving it: this instance owns it but has no sequence, or nobody
// has touched it for staleAfter.
func (s *narrationService) orphaned(row *types.NarrationSession) bool {
	if row.Status.Terminal() {
		return false
	}
	if _, local := s.lookup(row.ID); local {
		return false
	}
	return row.Owner == s.owner || row.UpdatedAt.Before(s.now().Add(-s.staleAfter))
}

// reap closes an abandoned row as stopped and tells any listener.
func (s *narrationService) reap(row *types.NarrationSession) bool {
	if !s.finishRow(row.ID, types.NarrationStopped, interruptedMessage) {
		return false
	}
	s.publish(row.ID, realtime.SSEEventNarrationStopped, map[string]any{"session_id": row.ID})
	s.log.Warn("orphaned narration closed", "session_id", row.ID, "owner", row.Owner)
	return true
}

func (s *narrationService) Stop(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error) {
	if an, _ := s.lookup(id); an != nil {
		an.seq.Cancel()
		select {
		case <-an.seq.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return s.Get(ctx, id)
	}

	row, err := s.Get(ctx, id)
	if err != nil || row.Status.Terminal() {
		return row, err
	}

	// another instance is driving it
	s.publishControl(id)
	row, err = s.awaitTerminal(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.Status.Terminal() {
		s.log.Warn("narration owner did not acknowledge stop", "session_id", id, "owner", row.Owner)
		s.reap(row)
		return s.load(ctx, id)
	}
	return row, nil
}

func (s *narrationService) publishControl(id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg := realtime.SSEMessage{
		Channel: realtime.NarrationControlChannel,
		Event:   realtime.SSEEventNarrationStopRequested,
		Data:    map[string]any{"session_id": id.String()},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.Warn("narration stop request publish failed", "session_id", id, "error", err)
	}
}

// awaitTerminal polls the row for up to stopWait.
func (s *narrationService) awaitTerminal(ctx context.Context, id uuid.UUID) (*types.NarrationSession, error) {
	deadline := time.NewTimer(s.stopWait)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		row, err := s.load(ctx, id)
		if err != nil || row.Status.Terminal() {
			return row, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return row, nil
		case <-tick.C:
		}
	}
}

func (s *narrationService) HandleControl(msg realtime.SSEMessage) {
	if msg.Channel != realtime.NarrationControlChannel || msg.Event != realtime.SSEEventNarrationStopRequested {
		return
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		return
	}
	id, err := uuid.Parse(fmt.Sprint(data["session_id"]))
	if err != nil {
		s.log.Warn("bad narration control message", "error", err)
		return
	}
	if an, _ := s.lookup(id); an != nil {
		s.log.Info("stop requested by peer", "session_id", id)
		an.seq.Cancel()
	}
}

func (s *narrationService) RecoverOrphans(ctx context.Context) (int, error) {
	rows, err := s.repo.ListUnfinished(ctx, s.db, s.owner, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("list unfinished narrations: %w", err)
	}
	n := 0
	for _, row := range rows {
		if _, local := s.lookup(row.ID); local {
			continue
		}
		if s.reap(row) {
			n++
		}
	}
	return n, nil
}

func (s *narrationService) Done(id uuid.UUID) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if an := s.active[id]; an != nil {
		return an.seq.Done()
	}
	return nil
}

// Shutdown stops every running session and waits for their terminal handlers.
func (s *narrationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	running := make([]*activeNarration, 0, len(s.active))
	for _, an := range s.active {
		running = append(running, an)
	}
	s.mu.Unlock()

	for _, an := range running {
		an.seq.Cancel()
	}
	for _, an := range running {
		select {
		case <-an.seq.Done():
		case <-ctx.Done():
			return fmt.Errorf("narration shutdown: %w", ctx.Err())
		}
	}
	if len(running) > 0 {
		s.log.Info("narration sessions stopped for shutdown", "count", len(running))
	}
	return nil
}

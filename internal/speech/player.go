package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type State int32

const (
	StateIdle State = iota
	StateSpeaking
	StateDone
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateStopped || s == StateFailed
}

// Handlers observe a sequence. Exactly one of OnDone, OnStopped or OnError
// fires per sequence. All fields are optional.
type Handlers struct {
	OnChunkStart func(index int, text string)
	OnChunkDone  func(index int)
	OnDone       func()
	OnStopped    func()
	OnError      func(index int, err error)
}

// Player drives one sequence at a time through an Engine.
type Player struct {
	engine Engine
	log    *logger.Logger

	mu     sync.Mutex
	active *Sequence
}

func NewPlayer(engine Engine, baseLog *logger.Logger) (*Player, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Player{engine: engine, log: baseLog.With("component", "SpeechPlayer")}, nil
}

// Start speaks chunks in order on a background goroutine and returns the
// handle used to cancel it.
func (p *Player) Start(ctx context.Context, chunks []string, voice VoiceConfig, h Handlers) (*Sequence, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		return nil, ErrSequenceActive
	}

	seq := &Sequence{
		engine: p.engine,
		log:    p.log,
		chunks: append([]string(nil), chunks...),
		voice:  voice,
		h:      h,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	seq.release = func() {
		p.mu.Lock()
		if p.active == seq {
			p.active = nil
		}
		p.mu.Unlock()
	}
	p.active = seq
	go seq.run(ctx)
	return seq, nil
}

// Stop cancels the active sequence, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	seq := p.active
	p.mu.Unlock()
	if seq != nil {
		seq.Cancel()
	}
}

// Active returns the sequence currently playing, or nil.
func (p *Player) Active() *Sequence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Sequence is the cancel handle for one Start call.
type Sequence struct {
	engine Engine
	log    *logger.Logger
	chunks []string
	voice  VoiceConfig
	h      Handlers

	// gen advances at every chunk start and on cancel; engine callbacks
	// carrying an older value are ignored.
	gen   atomic.Uint64
	state atomic.Int32

	stopCh   chan struct{}
	stopOnce sync.Once

	doneCh     chan struct{}
	finishOnce sync.Once
	err        error
	release    func()
}

// Cancel requests a stop. Safe to call repeatedly and after completion.
func (s *Sequence) Cancel() {
	s.stopOnce.Do(func() {
		s.gen.Add(1)
		close(s.stopCh)
	})
}

// Done is closed after the terminal handler has returned.
func (s *Sequence) Done() <-chan struct{} { return s.doneCh }

func (s *Sequence) State() State { return State(s.state.Load()) }

// Err is the failure that ended the sequence. Valid once Done is closed.
func (s *Sequence) Err() error {
	select {
	case <-s.doneCh:
		return s.err
	default:
		return nil
	}
}

func (s *Sequence) cancelled(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Sequence) run(ctx context.Context) {
	for i, text := range s.chunks {
		if s.cancelled(ctx) {
			s.stop()
			return
		}

		gen := s.gen.Add(1)
		results := make(chan error, 1)
		cb := Callbacks{
			OnDone: func() {
				if s.gen.Load() != gen {
					return
				}
				select {
				case results <- nil:
				default:
				}
			},
			OnError: func(err error) {
				if s.gen.Load() != gen {
					return
				}
				if err == nil {
					err = errors.New("engine reported an unspecified failure")
				}
				select {
				case results <- err:
				default:
				}
			},
		}

		s.state.Store(int32(StateSpeaking))
		if s.h.OnChunkStart != nil {
			s.h.OnChunkStart(i, text)
		}
		if s.cancelled(ctx) {
			s.stop()
			return
		}
		if err := s.engine.Speak(ctx, text, s.voice, cb); err != nil {
			s.fail(i, err)
			return
		}

		select {
		case err := <-results:
			if err != nil {
				s.fail(i, err)
				return
			}
		case <-s.stopCh:
			s.stop()
			return
		case <-ctx.Done():
			s.stop()
			return
		}

		s.log.Debug("chunk spoken", "index", i, "of", len(s.chunks))
		if s.h.OnChunkDone != nil {
			s.h.OnChunkDone(i)
		}
	}
	s.finish(StateDone, nil, func() {
		if s.h.OnDone != nil {
			s.h.OnDone()
		}
	})
}

func (s *Sequence) stop() {
	s.gen.Add(1)
	if err := s.engine.Stop(); err != nil {
		s.log.Warn("engine stop failed", "error", err)
	}
	s.finish(StateStopped, nil, func() {
		if s.h.OnStopped != nil {
			s.h.OnStopped()
		}
	})
}

func (s *Sequence) fail(index int, err error) {
	s.gen.Add(1)
	cerr := &ChunkError{Index: index, Err: err}
	s.log.Warn("chunk failed", "index", index, "error", err)
	s.finish(StateFailed, cerr, func() {
		if s.h.OnError != nil {
			s.h.OnError(index, cerr)
		}
	})
}

func (s *Sequence) finish(state State, err error, handler func()) {
	s.finishOnce.Do(func() {
		s.err = err
		s.state.Store(int32(state))
		if s.release != nil {
			s.release()
		}
		handler()
		close(s.doneCh)
	})
}

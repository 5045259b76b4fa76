package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/studyvoice-backend/internal/platform/gcp"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/speech"
)

// AudioFunc receives the public URL of a synthesized chunk.
type AudioFunc func(index int, url string)

// EngineFactory builds the engine for one narration session.
type EngineFactory func(sessionID uuid.UUID, onAudio AudioFunc) speech.Engine

type Synthesizer interface {
	Synthesize(ctx context.Context, req gcp.SynthesizeRequest) ([]byte, error)
	Extension() string
}

type AudioStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	PublicURL(key string) string
}

// NewCloudEngineFactory synthesizes each chunk with tts and uploads it to store.
func NewCloudEngineFactory(log *logger.Logger, tts Synthesizer, store AudioStore) EngineFactory {
	engineLog := log.With("engine", "CloudTTS")
	return func(sessionID uuid.UUID, onAudio AudioFunc) speech.Engine {
		return &cloudEngine{log: engineLog, tts: tts, store: store, sessionID: sessionID, onAudio: onAudio}
	}
}

// NewLogEngineFactory completes every chunk immediately after logging it.
func NewLogEngineFactory(log *logger.Logger) EngineFactory {
	engineLog := log.With("engine", "Log")
	return func(sessionID uuid.UUID, _ AudioFunc) speech.Engine {
		return &logEngine{log: engineLog.With("session_id", sessionID)}
	}
}

type cloudEngine struct {
	log       *logger.Logger
	tts       Synthesizer
	store     AudioStore
	sessionID uuid.UUID
	onAudio   AudioFunc

	mu     sync.Mutex
	next   int
	cancel context.CancelFunc
}

func AudioKey(sessionID uuid.UUID, index int, ext string) string {
	return fmt.Sprintf("narrations/%s/%04d%s", sessionID, index, ext)
}

func (e *cloudEngine) Speak(ctx context.Context, text string, voice speech.VoiceConfig, cb speech.Callbacks) error {
	e.mu.Lock()
	idx := e.next
	e.next++
	cctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	go func() {
		defer cancel()
		audio, err := e.tts.Synthesize(cctx, gcp.SynthesizeRequest{
			Text:         text,
			LanguageCode: voice.Language,
			VoiceName:    voice.Voice,
			Pitch:        voice.Pitch,
			SpeakingRate: voice.Rate,
		})
		if err != nil {
			cb.OnError(fmt.Errorf("synthesize: %w", err))
			return
		}
		key := AudioKey(e.sessionID, idx, e.tts.Extension())
		if err := e.store.Upload(cctx, key, bytes.NewReader(audio)); err != nil {
			cb.OnError(fmt.Errorf("upload audio: %w", err))
			return
		}
		if cctx.Err() != nil {
			return
		}
		if e.onAudio != nil {
			e.onAudio(idx, e.store.PublicURL(key))
		}
		cb.OnDone()
	}()
	return nil
}

func (e *cloudEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

type logEngine struct {
	log *logger.Logger
}

func (e *logEngine) Speak(_ context.Context, text string, voice speech.VoiceConfig, cb speech.Callbacks) error {
	e.log.Info("narrating chunk", "chars", len(text), "language", voice.Language, "voice", voice.Voice)
	go cb.OnDone()
	return nil
}

func (e *logEngine) Stop() error { return nil }

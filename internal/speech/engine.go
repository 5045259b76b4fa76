package speech

import "context"

// VoiceConfig is passed through to the engine untouched.
type VoiceConfig struct {
	Language string  `json:"language"`
	Voice    string  `json:"name"`
	Pitch    float64 `json:"pitch"`
	Rate     float64 `json:"rate"`
}

// Callbacks report the outcome of one utterance. Engines may invoke them from
// any goroutine, at most one of them, and possibly after Stop.
type Callbacks struct {
	OnDone  func()
	OnError func(err error)
}

// Engine speaks one utterance at a time.
//
// Speak must return promptly; completion is reported through cb. A non-nil
// return means the utterance was never started and cb will not be called.
type Engine interface {
	Speak(ctx context.Context, text string, voice VoiceConfig, cb Callbacks) error
	Stop() error
}

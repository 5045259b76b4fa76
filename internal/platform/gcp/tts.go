package gcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

const defaultTTSEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

var ErrTTSUnavailable = errors.New("text-to-speech is not configured")

type SynthesizeRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	Pitch        float64
	SpeakingRate float64
}

// TTSClient calls the Cloud Text-to-Speech REST API with an API key.
type TTSClient struct {
	log        *logger.Logger
	apiKey     string
	endpoint   string
	httpClient *http.Client

	maxRetries int
	backoff    time.Duration
}

type TTSOption func(*TTSClient)

func WithTTSEndpoint(endpoint string) TTSOption {
	return func(c *TTSClient) { c.endpoint = strings.TrimSpace(endpoint) }
}

// WithTTSRetries sets how many times a throttled or unavailable request is
// retried and the first backoff, which doubles up to 10s.
func WithTTSRetries(maxRetries int, backoff time.Duration) TTSOption {
	return func(c *TTSClient) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

func NewTTSClient(log *logger.Logger, apiKey string, opts ...TTSOption) (*TTSClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrTTSUnavailable
	}
	c := &TTSClient{
		log:        log.With("client", "GoogleTTS"),
		apiKey:     strings.TrimSpace(apiKey),
		endpoint:   defaultTTSEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		backoff:    750 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Extension is the file suffix of the audio Synthesize returns.
func (c *TTSClient) Extension() string { return ".mp3" }

// Synthesize returns MP3 audio for req.Text.
func (c *TTSClient) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	lang := strings.TrimSpace(req.LanguageCode)
	if lang == "" {
		lang = "en-US"
	}
	voice := map[string]interface{}{"languageCode": lang}
	if name := strings.TrimSpace(req.VoiceName); name != "" {
		voice["name"] = name
	}
	audioCfg := map[string]interface{}{"audioEncoding": "MP3"}
	if req.Pitch != 0 {
		audioCfg["pitch"] = clamp(req.Pitch, -20, 20)
	}
	if req.SpeakingRate != 0 {
		audioCfg["speakingRate"] = clamp(req.SpeakingRate, 0.25, 4)
	}
	body, err := json.Marshal(map[string]interface{}{
		"input":       map[string]string{"text": req.Text},
		"voice":       voice,
		"audioConfig": audioCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	raw, err := c.postWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	c.log.Debug("synthesized chunk", "chars", len(req.Text), "bytes", len(audio), "latency_ms", time.Since(start).Milliseconds())
	return audio, nil
}

// ttsStatusError is a non-200 answer from the API.
type ttsStatusError struct {
	Status int
	Body   string
}

func (e *ttsStatusError) Error() string {
	return fmt.Sprintf("TTS API error %d: %s", e.Status, e.Body)
}

func retryableTTSError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *ttsStatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	// transport failures
	return true
}

func (c *TTSClient) postWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	backoff := c.backoff
	var last error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		raw, err := c.post(ctx, body)
		if err == nil {
			return raw, nil
		}
		last = err
		if !retryableTTSError(ctx, err) || attempt == c.maxRetries {
			break
		}
		c.log.Warn("TTS request failed; retrying", "attempt", attempt+1, "backoff", backoff.String(), "error", err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}

func (c *TTSClient) post(ctx context.Context, body []byte) ([]byte, error) {
	u := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ttsStatusError{Status: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package gcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

func TestResolveObjectStorageConfigFromEnv(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		emulator string
		want     ObjectStorageMode
		wantErr  bool
	}{
		{name: "default gcs", want: ObjectStorageModeGCS},
		{name: "emulator fallback", emulator: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator},
		{name: "explicit gcs ignores emulator", mode: "gcs", emulator: "http://fake-gcs:4443", want: ObjectStorageModeGCS},
		{name: "emulator without host", mode: "gcs_emulator", wantErr: true},
		{name: "invalid host", mode: "gcs_emulator", emulator: "fake-gcs", wantErr: true},
		{name: "unknown mode", mode: "s3", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
			cfg, err := ResolveObjectStorageConfigFromEnv()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got cfg=%+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
			}
			if cfg.Mode != tc.want {
				t.Fatalf("mode: got=%q want=%q", cfg.Mode, tc.want)
			}
		})
	}
}

func TestPublicURLs(t *testing.T) {
	cases := []struct {
		name string
		cfg  AudioBucketConfig
		want string
	}{
		{
			name: "cdn",
			cfg:  AudioBucketConfig{Name: "audio", CDNDomain: "cdn.example.com"},
			want: "https://cdn.example.com/narrations/a/0001.mp3",
		},
		{
			name: "emulator",
			cfg: AudioBucketConfig{Name: "audio", Storage: ObjectStorageConfig{
				Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443",
			}},
			want: "http://fake-gcs:4443/storage/v1/b/audio/o/narrations%2Fa%2F0001.mp3?alt=media",
		},
		{
			name: "public base",
			cfg: AudioBucketConfig{Name: "audio", Storage: ObjectStorageConfig{
				Mode: ObjectStorageModeGCS, PublicBaseURL: "http://localhost:4443",
			}},
			want: "http://localhost:4443/audio/narrations/a/0001.mp3",
		},
		{
			name: "gcs default",
			cfg:  AudioBucketConfig{Name: "audio", Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}},
			want: "https://storage.googleapis.com/audio/narrations/a/0001.mp3",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := newPublicURLs(tc.cfg).resolve("/narrations/a/0001.mp3")
			if got != tc.want {
				t.Fatalf("url: got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := ContentTypeForKey("a/b.MP3"); got != "audio/mpeg" {
		t.Fatalf("mp3: got=%q", got)
	}
	if got := ContentTypeForKey("a/b.bin"); got != "" {
		t.Fatalf("unknown: got=%q", got)
	}
}

func TestTTSClientSynthesize(t *testing.T) {
	var gotBody map[string]map[string]interface{}
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString([]byte("ID3audio")),
		})
	}))
	defer srv.Close()

	c, err := NewTTSClient(logger.Nop(), "k-123", WithTTSEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewTTSClient: %v", err)
	}
	audio, err := c.Synthesize(context.Background(), SynthesizeRequest{
		Text: "hello", LanguageCode: "hi-IN", VoiceName: "hi-IN-Wavenet-A", SpeakingRate: 9,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Fatalf("audio: got=%q", audio)
	}
	if gotKey != "k-123" {
		t.Fatalf("key: got=%q", gotKey)
	}
	if gotBody["input"]["text"] != "hello" || gotBody["voice"]["languageCode"] != "hi-IN" {
		t.Fatalf("body: got=%v", gotBody)
	}
	if gotBody["audioConfig"]["speakingRate"] != float64(4) {
		t.Fatalf("rate clamp: got=%v", gotBody["audioConfig"]["speakingRate"])
	}
}

func TestTTSClientErrors(t *testing.T) {
	if _, err := NewTTSClient(logger.Nop(), " "); !errors.Is(err, ErrTTSUnavailable) {
		t.Fatalf("empty key: got=%v", err)
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c, err := NewTTSClient(logger.Nop(), "k", WithTTSEndpoint(srv.URL), WithTTSRetries(2, time.Millisecond))
	if err != nil {
		t.Fatalf("NewTTSClient: %v", err)
	}
	_, err = c.Synthesize(context.Background(), SynthesizeRequest{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("status error: got=%v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("attempts: got=%d want=3", got)
	}
}

func TestTTSClientRetries(t *testing.T) {
	cases := []struct {
		name      string
		failures  []int
		wantCalls int32
		wantErr   bool
	}{
		{"recovers after 503", []int{http.StatusServiceUnavailable}, 2, false},
		{"recovers after 429 then 500", []int{http.StatusTooManyRequests, http.StatusInternalServerError}, 3, false},
		{"bad request not retried", []int{http.StatusBadRequest}, 1, true},
		{"forbidden not retried", []int{http.StatusForbidden}, 1, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1))
				if n <= len(tc.failures) {
					http.Error(w, "nope", tc.failures[n-1])
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]string{
					"audioContent": base64.StdEncoding.EncodeToString([]byte("ID3")),
				})
			}))
			defer srv.Close()

			c, err := NewTTSClient(logger.Nop(), "k", WithTTSEndpoint(srv.URL), WithTTSRetries(3, time.Millisecond))
			if err != nil {
				t.Fatalf("NewTTSClient: %v", err)
			}
			audio, err := c.Synthesize(context.Background(), SynthesizeRequest{Text: "x"})
			if (err != nil) != tc.wantErr {
				t.Fatalf("Synthesize: err=%v wantErr=%v", err, tc.wantErr)
			}
			if !tc.wantErr && string(audio) != "ID3" {
				t.Fatalf("audio: got=%q", audio)
			}
			if got := calls.Load(); got != tc.wantCalls {
				t.Fatalf("attempts: got=%d want=%d", got, tc.wantCalls)
			}
		})
	}
}

func TestTTSClientRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewTTSClient(logger.Nop(), "k", WithTTSEndpoint(srv.URL), WithTTSRetries(5, time.Hour))
	if err != nil {
		t.Fatalf("NewTTSClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Synthesize(ctx, SynthesizeRequest{Text: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cancelled retry: got=%v", err)
	}
}

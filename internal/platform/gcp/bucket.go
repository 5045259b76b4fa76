package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

// AudioBucket stores synthesized narration audio.
type AudioBucket interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

type AudioBucketConfig struct {
	Name      string
	CDNDomain string
	Storage   ObjectStorageConfig
}

type audioBucket struct {
	log     *logger.Logger
	client  *storage.Client
	name    string
	urls    publicURLs
	timeout time.Duration
}

func NewAudioBucket(ctx context.Context, log *logger.Logger, cfg AudioBucketConfig) (AudioBucket, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing env var AUDIO_GCS_BUCKET_NAME")
	}
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "AudioBucket")
	serviceLog.Info("Object storage initialized",
		"mode", cfg.Storage.Mode,
		"emulator_host", cfg.Storage.EmulatorHost,
		"bucket", cfg.Name,
	)
	return &audioBucket{
		log:     serviceLog,
		client:  client,
		name:    cfg.Name,
		urls:    newPublicURLs(cfg),
		timeout: 2 * time.Minute,
	}, nil
}

func newStorageClient(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (b *audioBucket) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if ct := ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *audioBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := b.client.Bucket(b.name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object: %w", err)
	}
	return nil
}

func (b *audioBucket) PublicURL(key string) string {
	return b.urls.resolve(key)
}

func (b *audioBucket) Close() error {
	return b.client.Close()
}

// publicURLs prefers the CDN domain, then the emulator media endpoint, then a
// configured public base, then the storage.googleapis.com default.
type publicURLs struct {
	bucket        string
	cdnDomain     string
	emulator      bool
	emulatorHost  string
	publicBaseURL string
}

func newPublicURLs(cfg AudioBucketConfig) publicURLs {
	return publicURLs{
		bucket:        cfg.Name,
		cdnDomain:     strings.Trim(strings.TrimSpace(cfg.CDNDomain), "/"),
		emulator:      cfg.Storage.IsEmulatorMode(),
		emulatorHost:  strings.TrimRight(cfg.Storage.EmulatorHost, "/"),
		publicBaseURL: strings.TrimRight(cfg.Storage.PublicBaseURL, "/"),
	}
}

func (p publicURLs) resolve(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if p.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", p.cdnDomain, key)
	}
	if p.emulator {
		base := p.publicBaseURL
		if base == "" {
			base = p.emulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(p.bucket), url.PathEscape(key))
	}
	if p.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", p.publicBaseURL, p.bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", p.bucket, key)
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(s, ".ogg"), strings.HasSuffix(s, ".opus"):
		return "audio/ogg"
	case strings.HasSuffix(s, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(s, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

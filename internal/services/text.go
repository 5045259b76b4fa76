package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/studyvoice-backend/internal/observability"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/speech"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

const (
	FormatPlain = "plain"
	FormatHTML  = "html"
)

// TextCache is satisfied by the Redis text cache.
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type TextService interface {
	Profiles() []textnorm.Profile
	ResolveProfile(name string) (textnorm.Profile, error)
	Normalize(ctx context.Context, text, profile, format string) (string, error)
	Chunk(ctx context.Context, text, profile string, maxChunkSize int) ([]string, error)
}

type textService struct {
	log          *logger.Logger
	profiles     *textnorm.Registry
	cache        TextCache
	maxChunkSize int
}

// NewTextService builds the service. cache may be nil.
func NewTextService(log *logger.Logger, profiles *textnorm.Registry, cache TextCache, maxChunkSize int) TextService {
	if maxChunkSize <= 0 {
		maxChunkSize = speech.DefaultMaxChunkSize
	}
	return &textService{
		log:          log.With("service", "TextService"),
		profiles:     profiles,
		cache:        cache,
		maxChunkSize: maxChunkSize,
	}
}

func (s *textService) Profiles() []textnorm.Profile { return s.profiles.List() }

func (s *textService) ResolveProfile(name string) (textnorm.Profile, error) {
	return s.profiles.Lookup(name)
}

func (s *textService) Normalize(ctx context.Context, text, profile, format string) (string, error) {
	p, err := s.profiles.Lookup(profile)
	if err != nil {
		return "", err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPlain
	}
	var fn func(string, textnorm.Profile) string
	switch format {
	case FormatPlain:
		fn = textnorm.Normalize
	case FormatHTML:
		fn = textnorm.NormalizeHTML
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	ctx, span := observability.StartSpan(ctx, "text.normalize",
		attribute.String("profile", p.Name),
		attribute.String("format", format),
		attribute.Int("chars", len(text)),
	)
	defer span.End()

	key := cacheKey(p, format, text)
	if s.cache != nil {
		out, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("normalize cache read failed", "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return out, nil
		}
	}

	out := fn(text, p)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.log.Warn("normalize cache write failed", "error", err)
		}
	}
	return out, nil
}

// Chunk splits text for speech. A non-empty profile normalizes first.
func (s *textService) Chunk(ctx context.Context, text, profile string, maxChunkSize int) ([]string, error) {
	size, err := s.chunkSize(maxChunkSize)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(profile) != "" {
		text, err = s.Normalize(ctx, text, profile, FormatPlain)
		if err != nil {
			return nil, err
		}
	}
	return speech.Chunk(text, size), nil
}

func (s *textService) chunkSize(requested int) (int, error) {
	if requested <= 0 {
		return s.maxChunkSize, nil
	}
	if requested > s.maxChunkSize {
		return 0, fmt.Errorf("%w (%d > %d)", ErrChunkSizeTooLarge, requested, s.maxChunkSize)
	}
	return requested, nil
}

// cacheKey includes the rule bits so a redefined profile never reads stale output.
func cacheKey(p textnorm.Profile, format, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%d:%s:%s", p.Name, uint16(p.Rules), format, hex.EncodeToString(sum[:]))
}

package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studyvoice-backend/internal/clients/redis"
	"github.com/yungbote/studyvoice-backend/internal/platform/gcp"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
	"github.com/yungbote/studyvoice-backend/internal/realtime/bus"
)

type Clients struct {
	Redis     *goredis.Client
	TextCache *redis.TextCache
	SSEBus    bus.Bus
	TTS       *gcp.TTSClient
	Audio     gcp.AudioBucket
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, hub *realtime.SSEHub) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis: shared normalize cache and cross-instance SSE fan-out
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
		c.TextCache = redis.NewTextCache(rdb, "textnorm:", cfg.NormalizeCacheTTL)
		b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		c.SSEBus = b
	} else {
		log.Warn("REDIS_ADDR not set; using in-process SSE delivery and no normalize cache")
		c.SSEBus = bus.NewLocalBus(hub)
	}

	// Cloud TTS + audio bucket
	if cfg.CloudSpeechEnabled() {
		opts := []gcp.TTSOption{gcp.WithTTSRetries(cfg.TTSMaxRetries, 0)}
		if cfg.TTSEndpoint != "" {
			opts = append(opts, gcp.WithTTSEndpoint(cfg.TTSEndpoint))
		}
		tts, err := gcp.NewTTSClient(log, cfg.TTSAPIKey, opts...)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init tts client: %w", err)
		}
		audio, err := resolveAudioBucket(ctx, log, cfg)
		if err != nil {
			c.Close()
			return Clients{}, err
		}
		c.TTS = tts
		c.Audio = audio
	} else {
		log.Warn("GOOGLE_TTS_API_KEY or AUDIO_GCS_BUCKET_NAME not set; narration uses the log engine")
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Audio != nil {
		_ = c.Audio.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

package app

import (
	"strings"
	"time"

	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/studyvoice-backend/internal/clients/redis"
	"github.com/yungbote/studyvoice-backend/internal/data/db"
	"github.com/yungbote/studyvoice-backend/internal/platform/envutil"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/speech"
)

type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	DB db.Config

	Redis             redis.Config
	RedisChannel      string
	NormalizeCacheTTL time.Duration

	TTSAPIKey       string
	TTSEndpoint     string
	TTSMaxRetries   int
	AudioBucketName string
	AudioCDNDomain  string

	ProfilesPath string
	MaxChunkSize int

	InstanceID          string
	NarrationStaleAfter time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:     envutil.String("OTEL_SERVICE_NAME", "studyvoice-backend"),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		Port:            envutil.String("PORT", "8080"),
		AllowedOrigins:  splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		DB: db.Config{
			Driver:           strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres)),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "studyvoice"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", ""),
			LogLevel:         gormLogLevel(envutil.String("DB_LOG_LEVEL", "warn")),
		},

		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		RedisChannel:      envutil.String("REDIS_CHANNEL", "studyvoice:sse"),
		NormalizeCacheTTL: envutil.Duration("NORMALIZE_CACHE_TTL", 24*time.Hour),

		TTSAPIKey:       envutil.String("GOOGLE_TTS_API_KEY", ""),
		TTSEndpoint:     envutil.String("GOOGLE_TTS_ENDPOINT", ""),
		TTSMaxRetries:   envutil.Int("GOOGLE_TTS_MAX_RETRIES", 3),
		AudioBucketName: envutil.String("AUDIO_GCS_BUCKET_NAME", ""),
		AudioCDNDomain:  envutil.String("AUDIO_CDN_DOMAIN", ""),

		ProfilesPath: envutil.String("PROFILES_PATH", ""),
		MaxChunkSize: envutil.Int("MAX_CHUNK_SIZE", speech.DefaultMaxChunkSize),

		InstanceID:          envutil.String("INSTANCE_ID", ""),
		NarrationStaleAfter: envutil.Duration("NARRATION_STALE_AFTER", 5*time.Minute),
	}
	if cfg.MaxChunkSize <= 0 {
		log.Warn("MAX_CHUNK_SIZE must be positive; using default", "value", cfg.MaxChunkSize)
		cfg.MaxChunkSize = speech.DefaultMaxChunkSize
	}
	log.Info("Config loaded",
		"port", cfg.Port,
		"db_driver", cfg.DB.Driver,
		"redis", cfg.Redis.Addr != "",
		"tts", cfg.TTSAPIKey != "",
		"audio_bucket", cfg.AudioBucketName,
		"max_chunk_size", cfg.MaxChunkSize,
	)
	return cfg
}

// CloudSpeechEnabled reports whether narration should synthesize real audio.
func (c Config) CloudSpeechEnabled() bool {
	return c.TTSAPIKey != "" && c.AudioBucketName != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func gormLogLevel(raw string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

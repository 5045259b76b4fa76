package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/studyvoice-backend/internal/platform/gcp"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

var (
	resolveObjectStorageConfig = gcp.ResolveObjectStorageConfigFromEnv
	newAudioBucket             = gcp.NewAudioBucket
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code   StorageProviderBootstrapErrorCode
	Mode   string
	Bucket string
	Cause  error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "audio storage bootstrap failed"
	}
	return fmt.Sprintf(
		"audio storage bootstrap failed (code=%s mode=%q bucket=%q): %v",
		e.Code,
		e.Mode,
		e.Bucket,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveAudioBucket opens the narration audio bucket from the storage env.
func resolveAudioBucket(ctx context.Context, log *logger.Logger, cfg Config) (gcp.AudioBucket, error) {
	storageCfg, err := resolveObjectStorageConfig()
	if err != nil {
		berr := &StorageProviderBootstrapError{
			Code:   StorageProviderBootstrapErrorInvalidConfig,
			Mode:   string(storageCfg.Mode),
			Bucket: cfg.AudioBucketName,
			Cause:  err,
		}
		log.Error("Audio storage config invalid", "error", berr)
		return nil, berr
	}

	log.Info("Selecting audio storage provider",
		"mode", storageCfg.Mode,
		"emulator_host", storageCfg.EmulatorHost,
		"bucket", cfg.AudioBucketName,
	)
	bucket, err := newAudioBucket(ctx, log, gcp.AudioBucketConfig{
		Name:      cfg.AudioBucketName,
		CDNDomain: cfg.AudioCDNDomain,
		Storage:   storageCfg,
	})
	if err != nil {
		berr := &StorageProviderBootstrapError{
			Code:   StorageProviderBootstrapErrorConnectFailed,
			Mode:   string(storageCfg.Mode),
			Bucket: cfg.AudioBucketName,
			Cause:  err,
		}
		log.Error("Audio storage bootstrap failed", "error_code", berr.Code, "error", berr)
		return nil, berr
	}
	return bucket, nil
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}

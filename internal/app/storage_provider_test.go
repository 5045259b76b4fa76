package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/yungbote/studyvoice-backend/internal/platform/gcp"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type testAudioBucket struct{}

func (testAudioBucket) Upload(context.Context, string, io.Reader) error { return nil }
func (testAudioBucket) Delete(context.Context, string) error { return nil }
func (testAudioBucket) PublicURL(key string) string { return "https://cdn.test/" + key }
func (testAudioBucket) Close() error { return nil }

func TestResolveAudioBucketInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	_, err := resolveAudioBucket(context.Background(), logger.Nop(), Config{AudioBucketName: "audio"})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	if got.Code != StorageProviderBootstrapErrorInvalidConfig {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidConfig, got.Code)
	}
}

func TestResolveAudioBucketEmulatorMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")

	orig := newAudioBucket
	t.Cleanup(func() { newAudioBucket = orig })

	var captured gcp.AudioBucketConfig
	newAudioBucket = func(_ context.Context, _ *logger.Logger, cfg gcp.AudioBucketConfig) (gcp.AudioBucket, error) {
		captured = cfg
		return testAudioBucket{}, nil
	}

	got, err := resolveAudioBucket(context.Background(), logger.Nop(), Config{AudioBucketName: "audio", AudioCDNDomain: "cdn.test"})
	if err != nil {
		t.Fatalf("resolveAudioBucket: %v", err)
	}
	if got.PublicURL("a.mp3") != "https://cdn.test/a.mp3" {
		t.Fatalf("bucket: expected stub bucket instance")
	}
	if captured.Storage.Mode != gcp.ObjectStorageModeGCSEmulator || captured.Storage.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("storage config: got=%+v", captured.Storage)
	}
	if captured.Name != "audio" || captured.CDNDomain != "cdn.test" {
		t.Fatalf("bucket config: got=%+v", captured)
	}
}

func TestResolveAudioBucketConnectFailed(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	orig := newAudioBucket
	t.Cleanup(func() { newAudioBucket = orig })
	newAudioBucket = func(context.Context, *logger.Logger, gcp.AudioBucketConfig) (gcp.AudioBucket, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := resolveAudioBucket(context.Background(), logger.Nop(), Config{AudioBucketName: "audio"})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, code)
	}
}

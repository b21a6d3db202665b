package storage

import (
	"context"
	"testing"
	"time"

	"github.com/propshare/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3PayloadArchive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3PayloadArchive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := &config.ArchiveConfig{Region: "us-east-1"}
		_, err := NewS3PayloadArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("valid config creates archive", func(t *testing.T) {
		cfg := &config.ArchiveConfig{
			Bucket:   "test-archive",
			Region:   "eu-west-1",
			Endpoint: "http://localhost:9000",
			Prefix:   "webhooks",
		}
		archive, err := NewS3PayloadArchive(cfg)
		require.NoError(t, err)
		require.NotNil(t, archive)
		assert.Equal(t, "test-archive", archive.GetBucket())
	})

	t.Run("default region and prefix apply", func(t *testing.T) {
		cfg := &config.ArchiveConfig{Bucket: "test-archive"}
		archive, err := NewS3PayloadArchive(cfg)
		require.NoError(t, err)
		assert.Equal(t, "webhooks", archive.prefix)
	})

	t.Run("prefix slashes are trimmed", func(t *testing.T) {
		cfg := &config.ArchiveConfig{Bucket: "test-archive", Prefix: "/raw/events/"}
		archive, err := NewS3PayloadArchive(cfg)
		require.NoError(t, err)
		assert.Equal(t, "raw/events", archive.prefix)
	})
}

func TestS3PayloadArchive_ObjectKey(t *testing.T) {
	archive, err := NewS3PayloadArchive(&config.ArchiveConfig{Bucket: "b", Prefix: "webhooks"})
	require.NoError(t, err)

	receivedAt := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	key := archive.ObjectKey("evt_1Abc", receivedAt)
	assert.Equal(t, "webhooks/2026/03/07/evt_1Abc.json", key)

	t.Run("time is normalized to UTC", func(t *testing.T) {
		// 01:30 on the 8th in UTC+2 is still the 7th in UTC
		loc := time.FixedZone("UTC+2", 2*60*60)
		local := time.Date(2026, 3, 8, 1, 30, 0, 0, loc)
		assert.Equal(t, "webhooks/2026/03/07/evt_1Abc.json", archive.ObjectKey("evt_1Abc", local))
	})

	t.Run("same event redelivered maps to same key", func(t *testing.T) {
		again := archive.ObjectKey("evt_1Abc", receivedAt.Add(30*time.Second))
		assert.Equal(t, key, again)
	})
}

func TestS3PayloadArchive_Store_RequiresEventID(t *testing.T) {
	archive, err := NewS3PayloadArchive(&config.ArchiveConfig{Bucket: "b"})
	require.NoError(t, err)

	err = archive.Store(context.Background(), "", time.Now(), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event id is required")
}

func TestNoOpPayloadArchive(t *testing.T) {
	archive := NewNoOpPayloadArchive()

	err := archive.Store(context.Background(), "evt_1", time.Now(), []byte(`{}`))
	assert.NoError(t, err)

	err = archive.Store(context.Background(), "", time.Now(), nil)
	require.Error(t, err)
}

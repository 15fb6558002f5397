package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoKey(t *testing.T) {
	key := VideoKey(7, "Lesson One.MP4")
	assert.True(t, strings.HasPrefix(key, "videos/7/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))
	assert.NotEqual(t, key, VideoKey(7, "Lesson One.MP4"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentType("a.mp4"))
	assert.Equal(t, "video/webm", ContentType("a.WEBM"))
	assert.Equal(t, "application/octet-stream", ContentType("notes.pdf"))
	assert.True(t, AllowedVideo("clip.mov"))
	assert.False(t, AllowedVideo("script.sh"))
}

func TestNewS3StoreRequiresCredentials(t *testing.T) {
	_, err := NewS3Store(S3Config{Bucket: "videos"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestS3StorePresignsWithoutNetwork(t *testing.T) {
	store, err := NewS3Store(S3Config{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "videos",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
	})
	require.NoError(t, err)

	url, err := store.PresignedURL("videos/1/a.mp4", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:9000/videos/videos/1/a.mp4")
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Upload(context.Background(), "k", strings.NewReader("data"), "video/mp4"))
	assert.True(t, store.Has("k"))

	url, err := store.PresignedURL("k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://k?expires=60", url)

	require.NoError(t, store.Delete(context.Background(), "k"))
	_, err = store.PresignedURL("k", time.Minute)
	assert.Error(t, err)
}

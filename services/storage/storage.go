// Package storage keeps video files in an S3-compatible bucket. Files are opaque blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no bucket credentials are set
var ErrNotConfigured = errors.New("object storage is not configured")

// BlobStore stores and serves video files
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(key string, expiration time.Duration) (string, error)
}

// VideoKey returns a unique object key for a video uploaded to a course
func VideoKey(courseID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("videos/%d/%s%s", courseID, uuid.NewString(), ext)
}

// ContentType returns the content type for a video filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}

// AllowedVideo reports whether filename has a supported video extension
func AllowedVideo(filename string) bool {
	return ContentType(filename) != "application/octet-stream"
}

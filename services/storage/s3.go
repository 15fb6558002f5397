package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config holds configuration for an S3-compatible bucket (AWS, DigitalOcean Spaces, MinIO)
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// Configured reports whether enough settings are present to create a client
func (c S3Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// S3Store handles bucket operations
type S3Store struct {
	s3Client *s3.S3
	bucket   string
}

var _ BlobStore = (*S3Store)(nil)

// NewS3Store creates a new bucket client
func NewS3Store(config S3Config) (*S3Store, error) {
	if !config.Configured() {
		return nil, ErrNotConfigured
	}

	awsConfig := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Region: aws.String(config.Region),
	}
	// Custom endpoints (Spaces, MinIO) need path style unless they serve virtual hosts
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &S3Store{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// Upload stores a private object
func (s *S3Store) Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PresignedURL generates a time-limited GET URL
func (s *S3Store) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

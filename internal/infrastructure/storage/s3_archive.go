// Package storage provides object storage implementations for archiving
// raw webhook payloads.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	paymentapp "github.com/propshare/backend/internal/application/payment"
	infraconfig "github.com/propshare/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3PayloadArchive implements PayloadArchive
var _ paymentapp.PayloadArchive = (*S3PayloadArchive)(nil)

// S3PayloadArchive stores raw webhook payloads in an S3 bucket, one object
// per gateway event, partitioned by receipt date. It is compatible with any
// S3-compatible store (AWS S3, MinIO, etc.)
type S3PayloadArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3PayloadArchiveOption is a functional option for configuring S3PayloadArchive
type S3PayloadArchiveOption func(*S3PayloadArchive)

// WithLogger sets a custom logger for S3PayloadArchive
func WithLogger(logger *zap.Logger) S3PayloadArchiveOption {
	return func(a *S3PayloadArchive) {
		a.logger = logger
	}
}

// NewS3PayloadArchive creates a new S3PayloadArchive from configuration.
// Credentials come from the default AWS chain (env, shared config, IAM role).
func NewS3PayloadArchive(cfg *infraconfig.ArchiveConfig, opts ...S3PayloadArchiveOption) (*S3PayloadArchive, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			if _, perr := url.Parse(endpoint); perr == nil {
				o.BaseEndpoint = aws.String(endpoint)
				// Custom endpoints are S3-compatible stores that usually
				// require path-style addressing.
				o.UsePathStyle = true
			}
		}
	})

	archive := &S3PayloadArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	if archive.prefix == "" {
		archive.prefix = "webhooks"
	}

	for _, opt := range opts {
		opt(archive)
	}

	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (a *S3PayloadArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (race condition)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Store archives a raw webhook payload. Objects are keyed by receipt date
// and gateway event ID so redeliveries of the same event overwrite the same
// object instead of accumulating duplicates.
func (a *S3PayloadArchive) Store(ctx context.Context, eventID string, receivedAt time.Time, payload []byte) error {
	if eventID == "" {
		return errors.New("event id is required")
	}

	key := a.ObjectKey(eventID, receivedAt)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive payload: %w", err)
	}

	a.logger.Debug("Webhook payload archived",
		zap.String("event_id", eventID),
		zap.String("key", key),
	)
	return nil
}

// ObjectExists checks whether an archived payload is present.
func (a *S3PayloadArchive) ObjectExists(ctx context.Context, eventID string, receivedAt time.Time) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}

	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.ObjectKey(eventID, receivedAt)),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// Some S3-compatible services report not-found differently
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// ObjectKey returns the archive key for a gateway event.
// Layout: <prefix>/YYYY/MM/DD/<eventID>.json
func (a *S3PayloadArchive) ObjectKey(eventID string, receivedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", a.prefix, receivedAt.UTC().Format("2006/01/02"), eventID)
}

// GetBucket returns the bucket name
func (a *S3PayloadArchive) GetBucket() string {
	return a.bucket
}

// Package archive renders batch summaries to CSV and uploads them to an
// S3-compatible object store.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config holds the object store connection settings. Endpoint and PathStyle
// support S3-compatible backends such as MinIO.
type Config struct {
	Bucket    string `env:"ARCHIVE_BUCKET"`
	Region    string `env:"ARCHIVE_REGION" env-default:"us-east-1"`
	Endpoint  string `env:"ARCHIVE_ENDPOINT"`
	PathStyle bool   `env:"ARCHIVE_PATH_STYLE" env-default:"false"`
	KeyPrefix string `env:"ARCHIVE_KEY_PREFIX"`
}

// Store uploads archive objects to a single bucket.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	logger    ectologger.Logger
}

// NewStore creates an S3-backed archive store. Credentials come from the
// default AWS chain.
func NewStore(ctx context.Context, cfg Config, logger ectologger.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
	}, nil
}

// Upload writes body to the bucket under key. The configured key prefix, if
// any, is prepended.
func (s *Store) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, span := tracing.StartSpan(ctx, "archive.Upload")
	defer span.End()

	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"bucket": s.bucket, "key": key}).Error("Failed to upload archive object")
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{"bucket": s.bucket, "key": key, "bytes": len(body)}).Info("Uploaded archive object")
	return nil
}

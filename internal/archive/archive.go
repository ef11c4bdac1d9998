// Package archive copies workspace snapshots to object storage after a
// day is closed and on a nightly schedule.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/store"
)

type Archiver interface {
	Archive(ctx context.Context, workspaceID string, snapshot domain.Snapshot, at time.Time) error
}

type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, string, domain.Snapshot, time.Time) error {
	return nil
}

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Prefix       string
	UsePathStyle bool
}

type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

func NewS3Archiver(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("archive access key and secret key are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3ArchiverWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func NewS3ArchiverWithClient(client ObjectPutter, bucket, prefix string, logger *zap.Logger) *S3Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "snapshots"
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// ObjectKey is "<prefix>/<workspace>/<UTC timestamp>.json".
func (a *S3Archiver) ObjectKey(workspaceID string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", a.prefix, workspaceID, at.UTC().Format("20060102T150405Z"))
}

func (a *S3Archiver) Archive(ctx context.Context, workspaceID string, snapshot domain.Snapshot, at time.Time) error {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return err
	}
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}

	objectKey := a.ObjectKey(key, at)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", objectKey, err)
	}
	a.logger.Info("snapshot archived", zap.String("workspace", key), zap.String("key", objectKey), zap.Int("bytes", len(payload)))
	return nil
}

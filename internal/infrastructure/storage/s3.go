package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"rx-logistics/internal/config"
	"rx-logistics/internal/domain/triplog"
	"rx-logistics/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnsupportedContentType = errors.New("photo must be an image")

// ObjectPutter is the part of *s3.Client the photo store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// seams for tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// PhotoStore writes vehicle photos to an S3-compatible bucket and hands back
// their public URLs.
type PhotoStore struct {
	client        ObjectPutter
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewPhotoStore(client ObjectPutter, bucket, publicBaseURL string) *PhotoStore {
	return &PhotoStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// NewS3PhotoStore builds the S3 client from configuration. Static credentials
// are used when an access key is configured, otherwise the default AWS chain.
func NewS3PhotoStore(ctx context.Context, cfg config.StorageConfig) (*PhotoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	base := cfg.PublicBaseURL
	if base == "" {
		base = cfg.Endpoint
	}
	if base == "" {
		base = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}

	logger.Info("Photo storage configured",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
	)

	return NewPhotoStore(client, cfg.Bucket, base), nil
}

// Upload stores one photo under the owner's dated prefix.
func (s *PhotoStore) Upload(ctx context.Context, userID uuid.UUID, photo *triplog.Photo) (string, error) {
	if !strings.HasPrefix(strings.ToLower(photo.ContentType), "image/") {
		return "", ErrUnsupportedContentType
	}

	key := s.objectKey(userID, photo)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        photo.Body,
		ContentType: aws.String(photo.ContentType),
	}
	if photo.Size > 0 {
		input.ContentLength = aws.Int64(photo.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s photo: %w", photo.Slot, err)
	}

	logger.Debug("Photo uploaded",
		zap.String("user_id", userID.String()),
		zap.String("slot", string(photo.Slot)),
		zap.String("key", key),
		zap.String("event", "photo_uploaded"),
	)

	return s.PublicURL(key), nil
}

func (s *PhotoStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + path.Join(s.bucket, key)
}

func (s *PhotoStore) objectKey(userID uuid.UUID, photo *triplog.Photo) string {
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if ext == "" {
		ext = extensionFor(photo.ContentType)
	}
	now := s.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s-%s%s",
		userID, now.Year(), int(now.Month()), now.Day(), photo.Slot, uuid.NewString(), ext)
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "image/gif":
		return ".gif"
	}
	return ""
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/contacts-service/internal/config"
)

// ErrNotConfigured is returned when avatar uploads are attempted without S3 settings.
var ErrNotConfigured = errors.New("avatar storage not configured")

// ObjectPutter is the S3 call the avatar store needs. *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarStore uploads avatars to an S3-compatible bucket, one object per user.
type AvatarStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

// NewAvatarStore returns a store backed by client. baseURL prefixes object
// keys when building public URLs.
func NewAvatarStore(client ObjectPutter, bucket, baseURL string) *AvatarStore {
	return &AvatarStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewS3AvatarStore builds the AWS client from configuration. It returns
// (nil, nil) when no endpoint or credentials are set.
func NewS3AvatarStore(ctx context.Context, cfg config.StorageConfig) (*AvatarStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return NewAvatarStore(client, cfg.Bucket, baseURL), nil
}

// AvatarKey is the object key for a user's avatar. Uploads overwrite it.
func AvatarKey(userID, contentType string) string {
	return "avatars/" + userID + extensionFor(contentType)
}

// Upload stores body under the user's avatar key and returns its public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNotConfigured
	}
	key := AvatarKey(userID, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}

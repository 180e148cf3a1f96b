package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	raw, _ := io.ReadAll(in.Body)
	f.body = string(raw)
	return &s3.PutObjectOutput{}, nil
}

func TestAvatarStoreUpload(t *testing.T) {
	putter := &fakePutter{}
	store := NewAvatarStore(putter, "avatars", "https://cdn.example.com/avatars/")

	url, err := store.Upload(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/avatars/avatars/u1.png", url)
	assert.Equal(t, "avatars", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "avatars/u1.png", aws.ToString(putter.input.Key))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(putter.input.ContentLength))
	assert.Equal(t, "png-bytes", putter.body)
}

func TestAvatarStoreUploadError(t *testing.T) {
	store := NewAvatarStore(&fakePutter{err: errors.New("denied")}, "b", "http://x")

	_, err := store.Upload(context.Background(), "u1", "image/jpeg", strings.NewReader("x"), 1)
	assert.ErrorContains(t, err, "denied")
}

func TestNilStoreNotConfigured(t *testing.T) {
	var store *AvatarStore
	_, err := store.Upload(context.Background(), "u1", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3AvatarStoreDisabledWithoutEndpoint(t *testing.T) {
	store, err := NewS3AvatarStore(context.Background(), config.StorageConfig{Bucket: "avatars"})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestAvatarKey(t *testing.T) {
	assert.Equal(t, "avatars/u1.jpg", AvatarKey("u1", "image/jpeg"))
	assert.Equal(t, "avatars/u1.jpg", AvatarKey("u1", "image/jpg"))
	assert.Equal(t, "avatars/u1.webp", AvatarKey("u1", "image/webp"))
	assert.Equal(t, "avatars/u1", AvatarKey("u1", "text/plain"))
}

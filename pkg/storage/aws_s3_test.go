package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configuredS3() S3Config {
	return S3Config{
		Endpoint:        "https://accountid.r2.cloudflarestorage.com",
		Region:          "auto",
		Bucket:          "media",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		UsePathStyle:    true,
	}
}

func TestS3ObjectURL(t *testing.T) {
	cfg := configuredS3()
	cfg.PublicBaseURL = "https://cdn.example.com/"
	adapter := NewS3Adapter(cfg)

	assert.Equal(t, "https://cdn.example.com/proj-1/asset-my%20photo.png", adapter.GetObjectURL("proj-1/asset-my photo.png"))

	internal := NewS3Adapter(configuredS3())
	assert.Equal(t, "s3://media/proj-1/asset.png", internal.GetObjectURL("proj-1/asset.png"))
}

func TestS3UnconfiguredFailsFast(t *testing.T) {
	adapter := NewS3Adapter(S3Config{Bucket: "media"})
	ctx := context.Background()

	assert.False(t, adapter.IsConfigured())

	_, err := adapter.CreatePresignedUploadURL(ctx, "p/a.png", "image/png", 0)
	assert.Equal(t, CodeProviderNotConfigured, CodeOf(err))

	_, err = adapter.UploadObject(ctx, "p/a.png", []byte("x"), "image/png")
	assert.Equal(t, CodeProviderNotConfigured, CodeOf(err))

	_, err = adapter.DownloadObject(ctx, "p/a.png")
	assert.Equal(t, CodeProviderNotConfigured, CodeOf(err))

	assert.Equal(t, CodeProviderNotConfigured, CodeOf(adapter.DeleteObject(ctx, "p/a.png")))
	assert.Nil(t, adapter.client)
}

func TestS3PresignHonoursExpiry(t *testing.T) {
	adapter := NewS3Adapter(configuredS3())
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return issued }

	presigned, err := adapter.CreatePresignedUploadURL(context.Background(), "proj-1/asset-photo.png", "image/png", 0)
	require.NoError(t, err)

	assert.Equal(t, issued.Add(DefaultPresignExpiry), presigned.ExpiresAt)
	assert.Equal(t, "s3://media/proj-1/asset-photo.png", presigned.ObjectURL)
	assert.Equal(t, "image/png", presigned.Headers["Content-Type"])

	parsed, err := url.Parse(presigned.URL)
	require.NoError(t, err)
	assert.Equal(t, "accountid.r2.cloudflarestorage.com", parsed.Host)
	assert.True(t, strings.HasPrefix(parsed.Path, "/media/proj-1/"), parsed.Path)
	assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))

	custom, err := adapter.CreatePresignedUploadURL(context.Background(), "proj-1/asset-photo.png", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(5*time.Minute), custom.ExpiresAt)
}

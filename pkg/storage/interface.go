package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Provider identifies a storage backend. Every project is pinned to exactly
// one provider at creation.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderGCS   Provider = "gcs"
	ProviderLocal Provider = "local"
)

// AllProviders lists every supported provider in a stable order.
var AllProviders = []Provider{ProviderS3, ProviderGCS, ProviderLocal}

// DefaultPresignExpiry applies when an adapter config leaves the expiry unset.
const DefaultPresignExpiry = 15 * time.Minute

func (p Provider) String() string {
	return string(p)
}

func (p Provider) IsValid() bool {
	for _, known := range AllProviders {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider resolves an identifier to a Provider, failing with
// INVALID_PROVIDER for anything outside the closed set.
func ParseProvider(value string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", NewError(CodeInvalidProvider, fmt.Errorf("unknown provider %q", value))
	}
	return p, nil
}

// Adapter is the uniform capability interface over one object-storage
// backend. IsConfigured and GetObjectURL never perform I/O; every other
// operation fails fast with PROVIDER_NOT_CONFIGURED on an unconfigured
// adapter.
type Adapter interface {
	Provider() Provider
	IsConfigured() bool
	// CreatePresignedUploadURL issues a time-bounded upload slot. A zero
	// expiresIn selects the adapter's configured expiry.
	CreatePresignedUploadURL(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (*PresignedUpload, error)
	UploadObject(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	DownloadObject(ctx context.Context, objectName string) ([]byte, error)
	DeleteObject(ctx context.Context, objectName string) error
	GetObjectURL(objectName string) string
}

type PresignedUpload struct {
	URL       string    `json:"presigned_url"`
	ObjectURL string    `json:"object_url"`
	ExpiresAt time.Time `json:"expires_at"`
	// Headers the client must send with the upload request.
	Headers map[string]string `json:"headers,omitempty"`
}

func resolveExpiry(expiresIn, configured time.Duration) time.Duration {
	if expiresIn > 0 {
		return expiresIn
	}
	if configured > 0 {
		return configured
	}
	return DefaultPresignExpiry
}

// escapeObjectPath percent-encodes each segment of an object name while
// keeping the "/" separators.
func escapeObjectPath(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"mediahub/pkg/metrics"
)

const gcsPublicURLTemplate = "https://storage.googleapis.com/%s/%s"

type GCSConfig struct {
	ProjectID       string        `yaml:"project_id"`
	Bucket          string        `yaml:"bucket"`
	ClientEmail     string        `yaml:"client_email"`
	PrivateKey      string        `yaml:"private_key"`
	CredentialsFile string        `yaml:"credentials_file"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`
}

// GCSAdapter signs uploads with GCS V4 service-account signing and always
// exposes objects through the fixed storage.googleapis.com template.
type GCSAdapter struct {
	cfg GCSConfig
	now func() time.Time

	once      sync.Once
	client    *gcs.Client
	clientErr error
}

func NewGCSAdapter(cfg GCSConfig) *GCSAdapter {
	return &GCSAdapter{cfg: cfg, now: time.Now}
}

func (g *GCSAdapter) Provider() Provider {
	return ProviderGCS
}

func (g *GCSAdapter) IsConfigured() bool {
	return g.cfg.Bucket != "" && g.cfg.ClientEmail != "" && g.cfg.PrivateKey != ""
}

// privateKeyPEM turns literal \n sequences from env files back into newlines.
func (g *GCSAdapter) privateKeyPEM() []byte {
	return []byte(strings.ReplaceAll(g.cfg.PrivateKey, `\n`, "\n"))
}

func (g *GCSAdapter) gcsClient() (*gcs.Client, error) {
	if !g.IsConfigured() {
		return nil, NewError(CodeProviderNotConfigured, errors.New("gcs credentials missing"))
	}

	g.once.Do(func() {
		var opts []option.ClientOption
		if g.cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(g.cfg.CredentialsFile))
		} else {
			creds, err := json.Marshal(map[string]string{
				"type":         "service_account",
				"project_id":   g.cfg.ProjectID,
				"client_email": g.cfg.ClientEmail,
				"private_key":  string(g.privateKeyPEM()),
				"token_uri":    "https://oauth2.googleapis.com/token",
			})
			if err != nil {
				g.clientErr = fmt.Errorf("failed to encode GCS credentials: %w", err)
				return
			}
			opts = append(opts, option.WithCredentialsJSON(creds))
		}

		g.client, g.clientErr = gcs.NewClient(context.Background(), opts...)
		if g.clientErr != nil {
			g.clientErr = fmt.Errorf("failed to create GCS client: %w", g.clientErr)
		}
	})

	if g.clientErr != nil {
		return nil, NewError(CodeProviderNotConfigured, g.clientErr)
	}
	return g.client, nil
}

func (g *GCSAdapter) CreatePresignedUploadURL(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (_ *PresignedUpload, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderGCS.String(), "presign", start, err) }()

	if !g.IsConfigured() {
		return nil, NewError(CodeProviderNotConfigured, errors.New("gcs credentials missing"))
	}

	expiresAt := g.now().Add(resolveExpiry(expiresIn, g.cfg.PresignExpiry))

	signed, err := gcs.SignedURL(g.cfg.Bucket, objectName, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         "PUT",
		ContentType:    contentType,
		Expires:        expiresAt,
		GoogleAccessID: g.cfg.ClientEmail,
		PrivateKey:     g.privateKeyPEM(),
	})
	if err != nil {
		return nil, NewError(CodePresignFailed, fmt.Errorf("failed to sign GCS upload: %w", err))
	}

	return &PresignedUpload{
		URL:       signed,
		ObjectURL: g.GetObjectURL(objectName),
		ExpiresAt: expiresAt,
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

func (g *GCSAdapter) UploadObject(ctx context.Context, objectName string, data []byte, contentType string) (_ string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderGCS.String(), "upload", start, err) }()

	client, err := g.gcsClient()
	if err != nil {
		return "", err
	}

	writer := client.Bucket(g.cfg.Bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err = writer.Write(data); err != nil {
		_ = writer.Close()
		return "", TranslateError(fmt.Errorf("failed to write to GCS: %w", err), CodeUploadFailed)
	}
	if err = writer.Close(); err != nil {
		return "", TranslateError(fmt.Errorf("failed to close GCS writer: %w", err), CodeUploadFailed)
	}

	return g.GetObjectURL(objectName), nil
}

func (g *GCSAdapter) DownloadObject(ctx context.Context, objectName string) (_ []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderGCS.String(), "download", start, err) }()

	client, err := g.gcsClient()
	if err != nil {
		return nil, err
	}

	reader, err := client.Bucket(g.cfg.Bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to open GCS object: %w", err), CodeDownloadFailed)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to read GCS object: %w", err), CodeDownloadFailed)
	}

	return data, nil
}

func (g *GCSAdapter) DeleteObject(ctx context.Context, objectName string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderGCS.String(), "delete", start, err) }()

	client, err := g.gcsClient()
	if err != nil {
		return err
	}

	if err = client.Bucket(g.cfg.Bucket).Object(objectName).Delete(ctx); err != nil {
		return TranslateError(fmt.Errorf("failed to delete from GCS: %w", err), CodeDeleteFailed)
	}

	return nil
}

func (g *GCSAdapter) GetObjectURL(objectName string) string {
	return fmt.Sprintf(gcsPublicURLTemplate, g.cfg.Bucket, escapeObjectPath(objectName))
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediahub/pkg/metrics"
)

// S3Config configures any S3-compatible endpoint (AWS, R2, MinIO, ...).
type S3Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Region          string        `yaml:"region"`
	Bucket          string        `yaml:"bucket"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	UsePathStyle    bool          `yaml:"use_path_style"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`
}

// S3Adapter signs uploads with the generic SigV4 presigner. Public URLs
// depend on PublicBaseURL; without one the adapter hands out the
// provider-internal s3://bucket/key form, which is not publicly resolvable.
type S3Adapter struct {
	cfg S3Config
	now func() time.Time

	once      sync.Once
	client    *s3.Client
	clientErr error
}

func NewS3Adapter(cfg S3Config) *S3Adapter {
	return &S3Adapter{cfg: cfg, now: time.Now}
}

func (a *S3Adapter) Provider() Provider {
	return ProviderS3
}

func (a *S3Adapter) IsConfigured() bool {
	return a.cfg.Bucket != "" && a.cfg.AccessKeyID != "" && a.cfg.SecretAccessKey != "" && a.cfg.Region != ""
}

// s3Client builds the SDK client on first real use and reuses it after.
func (a *S3Adapter) s3Client() (*s3.Client, error) {
	if !a.IsConfigured() {
		return nil, NewError(CodeProviderNotConfigured, errors.New("s3 credentials missing"))
	}

	a.once.Do(func() {
		awsCfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(a.cfg.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(a.cfg.AccessKeyID, a.cfg.SecretAccessKey, ""),
			),
		)
		if err != nil {
			a.clientErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}

		a.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if a.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.cfg.Endpoint)
			}
			o.UsePathStyle = a.cfg.UsePathStyle
		})
	})

	if a.clientErr != nil {
		return nil, NewError(CodeProviderNotConfigured, a.clientErr)
	}
	return a.client, nil
}

func (a *S3Adapter) CreatePresignedUploadURL(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (_ *PresignedUpload, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderS3.String(), "presign", start, err) }()

	client, err := a.s3Client()
	if err != nil {
		return nil, err
	}

	expiry := resolveExpiry(expiresIn, a.cfg.PresignExpiry)
	issuedAt := a.now()

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(objectName),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to presign S3 upload: %w", err), CodePresignFailed)
	}

	return &PresignedUpload{
		URL:       req.URL,
		ObjectURL: a.GetObjectURL(objectName),
		ExpiresAt: issuedAt.Add(expiry),
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

func (a *S3Adapter) UploadObject(ctx context.Context, objectName string, data []byte, contentType string) (_ string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderS3.String(), "upload", start, err) }()

	client, err := a.s3Client()
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(objectName),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", TranslateError(fmt.Errorf("failed to upload to S3: %w", err), CodeUploadFailed)
	}

	return a.GetObjectURL(objectName), nil
}

func (a *S3Adapter) DownloadObject(ctx context.Context, objectName string) (_ []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderS3.String(), "download", start, err) }()

	client, err := a.s3Client()
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to download from S3: %w", err), CodeDownloadFailed)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to read S3 object body: %w", err), CodeDownloadFailed)
	}

	return data, nil
}

func (a *S3Adapter) DeleteObject(ctx context.Context, objectName string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderS3.String(), "delete", start, err) }()

	client, err := a.s3Client()
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return TranslateError(fmt.Errorf("failed to delete from S3: %w", err), CodeDeleteFailed)
	}

	return nil
}

func (a *S3Adapter) GetObjectURL(objectName string) string {
	if a.cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(a.cfg.PublicBaseURL, "/"), escapeObjectPath(objectName))
	}
	return fmt.Sprintf("s3://%s/%s", a.cfg.Bucket, objectName)
}

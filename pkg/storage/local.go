package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mediahub/pkg/metrics"
)

var (
	ErrInvalidUploadToken = errors.New("invalid or expired upload token")
	ErrUploadContentType  = errors.New("upload content type does not match the signed content type")
	ErrInvalidObjectName  = errors.New("invalid object name")
)

type LocalConfig struct {
	BasePath      string        `yaml:"base_path"`
	PublicURL     string        `yaml:"public_url"`
	UploadURL     string        `yaml:"upload_url"`
	SigningSecret string        `yaml:"signing_secret"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// UploadClaims is the payload of a local upload token. The token is the
// local equivalent of a cloud presigned URL: it binds one object name and
// content type to an expiry.
type UploadClaims struct {
	ObjectName  string `json:"obj"`
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

// LocalAdapter keeps objects on the local filesystem. Presigned URLs point
// back at this service's own upload endpoint.
type LocalAdapter struct {
	cfg LocalConfig
	now func() time.Time

	once    sync.Once
	rootErr error
}

func NewLocalAdapter(cfg LocalConfig) *LocalAdapter {
	return &LocalAdapter{cfg: cfg, now: time.Now}
}

func (l *LocalAdapter) Provider() Provider {
	return ProviderLocal
}

func (l *LocalAdapter) IsConfigured() bool {
	return l.cfg.BasePath != "" && l.cfg.PublicURL != "" && l.cfg.UploadURL != "" && l.cfg.SigningSecret != ""
}

// root creates the base directory on first real use.
func (l *LocalAdapter) root() (string, error) {
	if !l.IsConfigured() {
		return "", NewError(CodeProviderNotConfigured, errors.New("local storage not configured"))
	}

	l.once.Do(func() {
		if err := os.MkdirAll(l.cfg.BasePath, 0o755); err != nil {
			l.rootErr = fmt.Errorf("failed to create base path: %w", err)
		}
	})

	if l.rootErr != nil {
		return "", NewError(CodeProviderNotConfigured, l.rootErr)
	}
	return l.cfg.BasePath, nil
}

func (l *LocalAdapter) objectPath(objectName string) (string, error) {
	root, err := l.root()
	if err != nil {
		return "", err
	}

	if objectName == "" || strings.Contains(objectName, "\\") {
		return "", ErrInvalidObjectName
	}
	for _, seg := range strings.Split(objectName, "/") {
		if seg == ".." {
			return "", ErrInvalidObjectName
		}
	}

	clean := strings.TrimPrefix(path.Clean("/"+objectName), "/")
	if clean == "" {
		return "", ErrInvalidObjectName
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

func (l *LocalAdapter) CreatePresignedUploadURL(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (_ *PresignedUpload, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderLocal.String(), "presign", start, err) }()

	if !l.IsConfigured() {
		return nil, NewError(CodeProviderNotConfigured, errors.New("local storage not configured"))
	}

	issuedAt := l.now()
	expiresAt := issuedAt.Add(resolveExpiry(expiresIn, l.cfg.PresignExpiry))

	claims := UploadClaims{
		ObjectName:  objectName,
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(l.cfg.SigningSecret))
	if err != nil {
		return nil, NewError(CodePresignFailed, fmt.Errorf("failed to sign upload token: %w", err))
	}

	return &PresignedUpload{
		URL:       fmt.Sprintf("%s?token=%s", l.cfg.UploadURL, url.QueryEscape(token)),
		ObjectURL: l.GetObjectURL(objectName),
		ExpiresAt: expiresAt,
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

// VerifyUploadToken checks signature and expiry and returns the signed claims.
func (l *LocalAdapter) VerifyUploadToken(tokenString string) (*UploadClaims, error) {
	if !l.IsConfigured() {
		return nil, NewError(CodeProviderNotConfigured, errors.New("local storage not configured"))
	}

	claims := &UploadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(l.cfg.SigningSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(l.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.ObjectName == "" {
		return nil, ErrInvalidUploadToken
	}

	return claims, nil
}

// AcceptUpload stores the body of a direct client upload authorised by a
// token previously issued through CreatePresignedUploadURL.
func (l *LocalAdapter) AcceptUpload(ctx context.Context, tokenString, contentType string, data []byte) (string, error) {
	claims, err := l.VerifyUploadToken(tokenString)
	if err != nil {
		return "", err
	}

	if claims.ContentType != "" && !strings.EqualFold(mediaType(contentType), mediaType(claims.ContentType)) {
		return "", ErrUploadContentType
	}

	return l.UploadObject(ctx, claims.ObjectName, data, claims.ContentType)
}

func (l *LocalAdapter) UploadObject(ctx context.Context, objectName string, data []byte, contentType string) (_ string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderLocal.String(), "upload", start, err) }()

	filePath, err := l.objectPath(objectName)
	if err != nil {
		return "", TranslateError(err, CodeUploadFailed)
	}

	if err = os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return "", TranslateError(fmt.Errorf("failed to create directory: %w", err), CodeUploadFailed)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return "", TranslateError(fmt.Errorf("failed to create file: %w", err), CodeUploadFailed)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", TranslateError(fmt.Errorf("failed to write file: %w", err), CodeUploadFailed)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", TranslateError(fmt.Errorf("failed to close file: %w", err), CodeUploadFailed)
	}
	if err = os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return "", TranslateError(fmt.Errorf("failed to move file into place: %w", err), CodeUploadFailed)
	}

	return l.GetObjectURL(objectName), nil
}

func (l *LocalAdapter) DownloadObject(ctx context.Context, objectName string) (_ []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderLocal.String(), "download", start, err) }()

	filePath, err := l.objectPath(objectName)
	if err != nil {
		return nil, TranslateError(err, CodeDownloadFailed)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, TranslateError(fmt.Errorf("failed to read file: %w", err), CodeDownloadFailed)
	}

	return data, nil
}

func (l *LocalAdapter) DeleteObject(ctx context.Context, objectName string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorageOperation(ProviderLocal.String(), "delete", start, err) }()

	filePath, err := l.objectPath(objectName)
	if err != nil {
		return TranslateError(err, CodeDeleteFailed)
	}

	// Deleting a missing object succeeds, matching S3 semantics.
	if err = os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return TranslateError(fmt.Errorf("failed to delete file: %w", err), CodeDeleteFailed)
	}

	return nil
}

func (l *LocalAdapter) GetObjectURL(objectName string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(l.cfg.PublicURL, "/"), escapeObjectPath(objectName))
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

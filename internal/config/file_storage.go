package config

import (
	"time"

	"mediahub/pkg/storage"
)

// StorageConfig holds credentials for every supported provider. A provider
// whose required fields are empty is reported as unconfigured; it is not an
// error to leave providers unconfigured.
type StorageConfig struct {
	PresignExpiry time.Duration        `yaml:"presign_expiry"`
	S3            *storage.S3Config    `yaml:"s3"`
	GCS           *storage.GCSConfig   `yaml:"gcs"`
	Local         *storage.LocalConfig `yaml:"local"`
}

func loadStorageConfig() *StorageConfig {
	expiry := time.Duration(getEnvAsInt("PRESIGN_EXPIRY_MINUTES", 15)) * time.Minute

	return &StorageConfig{
		PresignExpiry: expiry,
		S3: &storage.S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
			UsePathStyle:    getEnvAsBool("S3_USE_PATH_STYLE", true),
			PresignExpiry:   expiry,
		},
		GCS: &storage.GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			ClientEmail:     getEnv("GCS_CLIENT_EMAIL", ""),
			PrivateKey:      getEnv("GCS_PRIVATE_KEY", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			PresignExpiry:   expiry,
		},
		Local: &storage.LocalConfig{
			BasePath:      getEnv("LOCAL_STORAGE_PATH", ""),
			PublicURL:     getEnv("LOCAL_STORAGE_PUBLIC_URL", "http://localhost:8080/files"),
			UploadURL:     getEnv("LOCAL_STORAGE_UPLOAD_URL", "http://localhost:8080/api/v1/storage/local/upload"),
			SigningSecret: getEnv("LOCAL_STORAGE_SIGNING_SECRET", ""),
			PresignExpiry: expiry,
		},
	}
}

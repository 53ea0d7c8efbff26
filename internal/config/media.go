package config

import (
	"time"
)

type MediaConfig struct {
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	FFprobePath      string        `yaml:"ffprobe_path"`
	ThumbnailOffset  time.Duration `yaml:"thumbnail_offset"`
	ThumbnailMaxEdge int           `yaml:"thumbnail_max_edge"`
	ThumbnailTimeout time.Duration `yaml:"thumbnail_timeout"`
	MaxUploadSize    int64         `yaml:"max_upload_size"`

	// VariantConcurrency caps parallel variant encodes per confirm. Zero
	// means one per CPU.
	VariantConcurrency int `yaml:"variant_concurrency"`
}

func loadMediaConfig() *MediaConfig {
	return &MediaConfig{
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
		ThumbnailOffset:  getEnvAsDuration("THUMBNAIL_OFFSET", time.Second),
		ThumbnailMaxEdge: getEnvAsInt("THUMBNAIL_MAX_EDGE", 640),
		ThumbnailTimeout: getEnvAsDuration("THUMBNAIL_TIMEOUT", 30*time.Second),
		MaxUploadSize:    getEnvAsInt64("MAX_UPLOAD_SIZE", 500*1024*1024),

		VariantConcurrency: getEnvAsInt("VARIANT_CONCURRENCY", 0),
	}
}

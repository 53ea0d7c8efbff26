package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PresignRequest struct {
	ProjectID   primitive.ObjectID `json:"-"`
	FileName    string             `json:"file_name" validate:"required,max=1024"`
	ContentType string             `json:"content_type" validate:"required,max=255"`
	FileSize    int64              `json:"file_size" validate:"required,gt=0"`
	Width       *int               `json:"width,omitempty" validate:"omitempty,gt=0,lte=10000"`
	Height      *int               `json:"height,omitempty" validate:"omitempty,gt=0,lte=10000"`
}

type PresignResponse struct {
	PresignedURL string            `json:"presigned_url"`
	ObjectName   string            `json:"object_name"`
	ObjectURL    string            `json:"object_url"`
	FileID       string            `json:"file_id"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Headers      map[string]string `json:"headers,omitempty"`
}

type ConfirmRequest struct {
	ProjectID   primitive.ObjectID `json:"-"`
	FileID      string             `json:"file_id" validate:"required,object_id"`
	ObjectName  string             `json:"object_name" validate:"required,max=2048"`
	FileName    string             `json:"file_name" validate:"required,max=1024"`
	ContentType string             `json:"content_type" validate:"required,max=255"`
	FileSize    int64              `json:"file_size" validate:"required,gt=0"`
	Variants    []VariantOption    `json:"variants,omitempty" validate:"omitempty,max=32,dive"`
}

type ConfirmResponse struct {
	Message  string    `json:"message"`
	Asset    *Asset    `json:"asset"`
	Variants []Variant `json:"variants,omitempty"`
}

type DeleteAssetsResponse struct {
	Deleted        int `json:"deleted"`
	ObjectFailures int `json:"object_failures"`
}

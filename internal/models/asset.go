package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssetStatus string

const (
	// A pending asset reserves an id and object name until its upload is
	// confirmed. It is never returned from listing or read paths.
	AssetStatusPending   AssetStatus = "PENDING"
	AssetStatusCompleted AssetStatus = "COMPLETED"
)

// Variant labels that are not resolution strings.
const (
	VariantLabelSource    = "source"
	VariantLabelThumbnail = "thumbnail"
)

type Asset struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID       primitive.ObjectID `json:"project_id" bson:"project_id"`
	FileName        string             `json:"file_name" bson:"file_name"`
	ObjectName      string             `json:"object_name" bson:"object_name"`
	MimeType        string             `json:"mime_type" bson:"mime_type"`
	IsImage         bool               `json:"is_image" bson:"is_image"`
	Size            int64              `json:"size" bson:"size"`
	Width           *int               `json:"width,omitempty" bson:"width,omitempty"`
	Height          *int               `json:"height,omitempty" bson:"height,omitempty"`
	DurationSeconds *float64           `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
	URL             *string            `json:"url" bson:"url"`
	Variants        []Variant          `json:"variants" bson:"variants"`
	Status          AssetStatus        `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

func (a *Asset) IsPending() bool {
	return a.Status == AssetStatusPending
}

// Variant is one stored encoding of an asset. Label is "source",
// "thumbnail" or the actual "<w>x<h>" of the encoded image.
type Variant struct {
	URL    string `json:"url" bson:"url"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
	Size   int64  `json:"size" bson:"size"`
	Format string `json:"format" bson:"format"`
	Label  string `json:"label" bson:"label"`
}

// VariantOption is a caller-requested (size label, format) pair.
type VariantOption struct {
	SizeLabel string `json:"size_label" validate:"required,size_label"`
	Format    string `json:"format" validate:"required,variant_format"`
}

// AssetCompletion is the final state written when a pending asset is
// confirmed.
type AssetCompletion struct {
	IsImage         bool
	Size            int64
	Width           *int
	Height          *int
	DurationSeconds *float64
	URL             *string
	Variants        []Variant
}

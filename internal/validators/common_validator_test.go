package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/internal/models"
)

func validConfirm() models.ConfirmRequest {
	return models.ConfirmRequest{
		FileID:      primitive.NewObjectID().Hex(),
		ObjectName:  "p/a-photo.jpg",
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
		FileSize:    42,
		Variants: []models.VariantOption{
			{SizeLabel: "max800", Format: "webp"},
			{SizeLabel: "320x240", Format: "jpg"},
		},
	}
}

func TestValidateStructAcceptsValidConfirm(t *testing.T) {
	req := validConfirm()
	assert.Nil(t, ValidateStruct(&req))
}

func TestValidateStructVariantOnlyFailure(t *testing.T) {
	req := validConfirm()
	req.Variants[1].SizeLabel = "max801"
	req.Variants[0].Format = "gif"

	fieldErrors := ValidateStruct(&req)
	require.Len(t, fieldErrors, 2)

	verr := NewRequestError(fieldErrors)
	assert.Equal(t, KindInvalidVariantRequest, verr.Kind)
	assert.Equal(t, "Unsupported size label", verr.Details["ConfirmRequest.Variants[1].SizeLabel"])
	assert.Equal(t, "Unsupported variant format", verr.Details["ConfirmRequest.Variants[0].Format"])
}

func TestValidateStructMixedFailure(t *testing.T) {
	req := validConfirm()
	req.FileID = "not-an-id"
	req.Variants[0].Format = "gif"

	verr := NewRequestError(ValidateStruct(&req))
	assert.Equal(t, KindInvalidRequest, verr.Kind)
	assert.Equal(t, "Invalid ID format", verr.Details["ConfirmRequest.FileID"])
	assert.Equal(t, "Invalid request", verr.Error())
}

func TestValidateStructPresign(t *testing.T) {
	tooWide := 10001
	req := models.PresignRequest{FileName: "a.png", ContentType: "image/png", FileSize: 0, Width: &tooWide}

	fieldErrors := ValidateStruct(&req)
	details := fieldErrors.Details()
	assert.Contains(t, details, "PresignRequest.FileSize")
	assert.Equal(t, "Width must be at most 10000", details["PresignRequest.Width"])
	assert.Contains(t, fieldErrors.Error(), "PresignRequest.FileSize")
}

func TestIsValidObjectID(t *testing.T) {
	assert.True(t, IsValidObjectID(primitive.NewObjectID().Hex()))
	assert.False(t, IsValidObjectID("123"))
}

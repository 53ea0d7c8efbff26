package validators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/internal/media"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("size_label", validateSizeLabel)
	validate.RegisterValidation("variant_format", validateVariantFormat)
}

// FieldError is one failed struct-tag rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (v FieldErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into the response envelope's details map.
func (v FieldErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct checks validate tags on s. Field values are never echoed
// back in messages.
func ValidateStruct(s interface{}) FieldErrors {
	var fieldErrors FieldErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "request", Tag: "invalid", Message: "Invalid request"}}
	}

	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: getErrorMessage(fe),
		})
	}

	return fieldErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "len", "hexadecimal", "object_id":
		return "Invalid ID format"
	case "size_label":
		return "Unsupported size label"
	case "variant_format":
		return "Unsupported variant format"
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	return IsValidObjectID(fl.Field().String())
}

func validateSizeLabel(fl validator.FieldLevel) bool {
	_, err := media.ParseSizeLabel(fl.Field().String())
	return err == nil
}

func validateVariantFormat(fl validator.FieldLevel) bool {
	_, err := media.ParseFormat(fl.Field().String())
	return err == nil
}

func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

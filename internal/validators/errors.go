package validators

// Kind classifies a validation failure.
type Kind string

const (
	KindInvalidFileName       Kind = "INVALID_FILE_NAME"
	KindContentTypeMismatch   Kind = "CONTENT_TYPE_MISMATCH"
	KindMagicBytesMismatch    Kind = "MAGIC_BYTES_MISMATCH"
	KindInvalidVariantRequest Kind = "INVALID_VARIANT_REQUEST"
	KindInvalidRequest        Kind = "INVALID_REQUEST"
)

var kindMessages = map[Kind]string{
	KindInvalidFileName:       "Invalid file name",
	KindContentTypeMismatch:   "File extension does not match the declared content type",
	KindMagicBytesMismatch:    "File content does not match the declared content type",
	KindInvalidVariantRequest: "Invalid variant request",
	KindInvalidRequest:        "Invalid request",
}

// ValidationError is a user-safe validation failure. Messages are fixed per
// kind and never describe which rule matched.
type ValidationError struct {
	Kind    Kind              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(kind Kind) *ValidationError {
	return &ValidationError{Kind: kind, Message: kindMessages[kind]}
}

// NewError builds a ValidationError of the given kind with its fixed message.
func NewError(kind Kind) *ValidationError {
	return newValidationError(kind)
}

// NewRequestError wraps struct-tag failures as an INVALID_REQUEST, or
// INVALID_VARIANT_REQUEST when only variant fields failed.
func NewRequestError(fieldErrors FieldErrors) *ValidationError {
	kind := KindInvalidVariantRequest
	for _, fe := range fieldErrors {
		if fe.Tag != "size_label" && fe.Tag != "variant_format" {
			kind = KindInvalidRequest
			break
		}
	}

	err := newValidationError(kind)
	err.Details = fieldErrors.Details()
	return err
}

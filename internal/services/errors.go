package services

import "errors"

// ErrorKind classifies orchestrator failures.
type ErrorKind string

const (
	KindProjectNotFound        ErrorKind = "PROJECT_NOT_FOUND"
	KindAssetNotFound          ErrorKind = "ASSET_NOT_FOUND"
	KindInvalidUpload          ErrorKind = "INVALID_UPLOAD"
	KindUploadedObjectNotFound ErrorKind = "UPLOADED_OBJECT_NOT_FOUND"
	KindProcessingFailed       ErrorKind = "PROCESSING_FAILED"
	KindPersistFailed          ErrorKind = "PERSIST_FAILED"
	KindIncompleteMetadata     ErrorKind = "INCOMPLETE_METADATA"
)

var kindMessages = map[ErrorKind]string{
	KindProjectNotFound:        "Project not found",
	KindAssetNotFound:          "Asset not found",
	KindInvalidUpload:          "Invalid or already processed upload",
	KindUploadedObjectNotFound: "Uploaded object not found",
	KindProcessingFailed:       "Failed to process upload",
	KindPersistFailed:          "Failed to save upload",
	KindIncompleteMetadata:     "Original image metadata is incomplete",
}

// ServiceError is a user-safe orchestrator failure. The cause is kept for
// logging only.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

func newServiceError(kind ErrorKind, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Message: kindMessages[kind], cause: cause}
}

// KindOf returns the kind of a ServiceError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return ""
}

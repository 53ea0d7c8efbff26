package storage

import (
	"errors"
	"io/fs"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"google.golang.org/api/googleapi"
)

// Code is the closed taxonomy of storage failures exposed to callers.
type Code string

const (
	CodeProviderNotConfigured Code = "PROVIDER_NOT_CONFIGURED"
	CodePresignFailed         Code = "PRESIGN_FAILED"
	CodeObjectNotFound        Code = "OBJECT_NOT_FOUND"
	CodeUploadFailed          Code = "UPLOAD_FAILED"
	CodeDownloadFailed        Code = "DOWNLOAD_FAILED"
	CodeDeleteFailed          Code = "DELETE_FAILED"
	CodeInvalidProvider       Code = "INVALID_PROVIDER"
	CodeUnknown               Code = "UNKNOWN_ERROR"
)

var userMessages = map[Code]string{
	CodeProviderNotConfigured: "Storage provider is not configured",
	CodePresignFailed:         "Failed to create upload URL",
	CodeObjectNotFound:        "File not found in storage",
	CodeUploadFailed:          "Failed to upload file",
	CodeDownloadFailed:        "Failed to download file",
	CodeDeleteFailed:          "Failed to delete file",
	CodeInvalidProvider:       "Invalid storage provider",
	CodeUnknown:               "An unexpected storage error occurred",
}

// Error is a translated storage failure. Error() only ever renders the
// user-safe message; the backend cause stays reachable through Unwrap for
// logging.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the fixed user-facing message for a code.
func UserMessage(code Code) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[CodeUnknown]
}

func NewError(code Code, cause error) *Error {
	if _, ok := userMessages[code]; !ok {
		code = CodeUnknown
	}
	return &Error{Code: code, Message: UserMessage(code), Err: cause}
}

// TranslateError maps a backend-specific failure into the taxonomy.
// Recognised "object missing" faults from any provider become
// OBJECT_NOT_FOUND; everything else becomes fallback.
func TranslateError(err error, fallback Code) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	if isNotFound(err) {
		return NewError(CodeObjectNotFound, err)
	}

	if fallback == "" {
		fallback = CodeUnknown
	}
	return NewError(fallback, err)
}

// CodeOf reports the taxonomy code carried by err, or UNKNOWN_ERROR.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeObjectNotFound || isNotFound(err)
}

func isNotFound(err error) bool {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, fs.ErrNotExist) {
		return true
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusNotFound {
		return true
	}

	return false
}

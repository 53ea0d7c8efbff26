package utils

// Application Constants
const (
	AppName    = "mediahub"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken    = "invalid token"
	ErrInternalServer  = "internal server error"
	ErrUnauthorized    = "unauthorized"
	ErrForbidden       = "forbidden"
	ErrPayloadTooLarge = "upload exceeds the maximum size"
	ErrTooManyRequests = "too many requests"
)

// Cache Keys
const (
	CacheRateLimitPrefix = "rate_limit:"
)

// Context keys set by middleware
const (
	ContextUserID    = "user_id"
	ContextRequestID = "request_id"
)

// Upload events
const (
	EventUploadPresigned = "upload_presigned"
	EventUploadConfirmed = "upload_confirmed"
	EventAssetDeleted    = "asset_deleted"
	EventProjectPurged   = "project_assets_deleted"
)

package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every mediahub endpoint answers with.
// RequestID echoes the X-Request-ID assigned by middleware.
type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries a stable machine code and a fixed user-safe message.
// Details maps request fields to what was wrong with them.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

func respond(c *gin.Context, statusCode int, resp APIResponse) {
	resp.RequestID = c.GetString(ContextRequestID)
	resp.Timestamp = time.Now().UTC()
	c.JSON(statusCode, resp)
}

func respondError(c *gin.Context, statusCode int, apiErr *APIError) {
	respond(c, statusCode, APIResponse{Status: StatusError, Error: apiErr})
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, APIResponse{Status: StatusSuccess, Message: message, Data: data})
}

// SuccessResponseWithMeta is used by paginated asset listings.
func SuccessResponseWithMeta(c *gin.Context, message string, data interface{}, meta *Meta) {
	respond(c, http.StatusOK, APIResponse{Status: StatusSuccess, Message: message, Data: data, Meta: meta})
}

// CreatedResponse answers a presign: the pending asset now exists.
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, APIResponse{Status: StatusSuccess, Message: message, Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	respondError(c, statusCode, &APIError{Code: code, Message: message})
}

// ValidationErrorResponse reports a rejected presign or confirm body with
// per-field details.
func ValidationErrorResponse(c *gin.Context, code, message string, details map[string]string) {
	respondError(c, http.StatusBadRequest, &APIError{Code: code, Message: message, Details: details})
}

func InternalServerErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternalServer)
}

func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized)
}

// ForbiddenResponse rejects a request whose credentials were understood but
// do not grant the action, such as a forged or expired upload URL.
func ForbiddenResponse(c *gin.Context, code, message string) {
	if code == "" {
		code, message = "FORBIDDEN", ErrForbidden
	}
	ErrorResponse(c, http.StatusForbidden, code, message)
}

func NotFoundResponse(c *gin.Context, resource string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

func TooManyRequestsResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", ErrTooManyRequests)
}

func PayloadTooLargeResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", ErrPayloadTooLarge)
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

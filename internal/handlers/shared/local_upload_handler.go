package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediahub/internal/utils"
	"mediahub/pkg/logger"
	"mediahub/pkg/storage"
)

// LocalUploader accepts bytes against a signed upload token.
type LocalUploader interface {
	AcceptUpload(ctx context.Context, token, contentType string, data []byte) (string, error)
}

// LocalUploadHandler is the upload target for presigned URLs issued by the
// local storage provider.
type LocalUploadHandler struct {
	uploader LocalUploader
	maxSize  int64
	logger   *logger.Logger
}

func NewLocalUploadHandler(uploader LocalUploader, maxSize int64, log *logger.Logger) *LocalUploadHandler {
	return &LocalUploadHandler{
		uploader: uploader,
		maxSize:  maxSize,
		logger:   log,
	}
}

// Upload stores the request body under the object named in the token
func (h *LocalUploadHandler) Upload(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.UnauthorizedResponse(c)
		return
	}

	body := c.Request.Body
	if h.maxSize > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxSize)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.PayloadTooLargeResponse(c)
			return
		}
		utils.BadRequestResponse(c, "Failed to read upload")
		return
	}

	objectURL, err := h.uploader.AcceptUpload(c.Request.Context(), token, c.GetHeader("Content-Type"), data)
	switch {
	case errors.Is(err, storage.ErrInvalidUploadToken):
		utils.ForbiddenResponse(c, "INVALID_UPLOAD_TOKEN", "Upload URL is invalid or expired")
		return
	case errors.Is(err, storage.ErrUploadContentType):
		utils.ErrorResponse(c, http.StatusBadRequest, "CONTENT_TYPE_MISMATCH", "Content-Type does not match the upload URL")
		return
	case err != nil:
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Upload stored", map[string]interface{}{
		"object_url": objectURL,
		"size":       len(data),
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediahub/internal/services"
	"mediahub/internal/utils"
	"mediahub/internal/validators"
	"mediahub/pkg/logger"
	"mediahub/pkg/storage"
)

var serviceStatus = map[services.ErrorKind]int{
	services.KindProjectNotFound:        http.StatusNotFound,
	services.KindAssetNotFound:          http.StatusNotFound,
	services.KindInvalidUpload:          http.StatusBadRequest,
	services.KindUploadedObjectNotFound: http.StatusNotFound,
	services.KindProcessingFailed:       http.StatusInternalServerError,
	services.KindPersistFailed:          http.StatusInternalServerError,
	services.KindIncompleteMetadata:     http.StatusUnprocessableEntity,
}

var storageStatus = map[storage.Code]int{
	storage.CodeProviderNotConfigured: http.StatusServiceUnavailable,
	storage.CodePresignFailed:         http.StatusBadGateway,
	storage.CodeObjectNotFound:        http.StatusNotFound,
	storage.CodeUploadFailed:          http.StatusBadGateway,
	storage.CodeDownloadFailed:        http.StatusBadGateway,
	storage.CodeDeleteFailed:          http.StatusBadGateway,
	storage.CodeInvalidProvider:       http.StatusBadRequest,
	storage.CodeUnknown:               http.StatusInternalServerError,
}

// respondError renders err in the response envelope. Only fixed user-safe
// messages reach the client; causes are logged.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var verr *validators.ValidationError
	var serr *services.ServiceError
	var stErr *storage.Error

	switch {
	case errors.As(err, &verr):
		utils.ValidationErrorResponse(c, string(verr.Kind), verr.Message, verr.Details)
		return
	case errors.As(err, &serr):
		status, ok := serviceStatus[serr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).WithError(err).Error("Upload request failed")
		}
		utils.ErrorResponse(c, status, string(serr.Kind), serr.Message)
		return
	case errors.As(err, &stErr):
		status, ok := storageStatus[stErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		log.WithContext(c.Request.Context()).WithError(err).Warn("Storage operation failed")
		utils.ErrorResponse(c, status, string(stErr.Code), stErr.Message)
		return
	}

	log.WithContext(c.Request.Context()).WithError(err).Error("Unexpected error")
	utils.InternalServerErrorResponse(c)
}

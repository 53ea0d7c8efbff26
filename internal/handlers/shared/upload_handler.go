package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/internal/middleware"
	"mediahub/internal/models"
	"mediahub/internal/services"
	"mediahub/internal/utils"
	"mediahub/pkg/logger"
)

type UploadHandler struct {
	uploadService services.UploadService
	logger        *logger.Logger
}

func NewUploadHandler(uploadService services.UploadService, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        log,
	}
}

// projectID reads the id set by ProjectOwnerRequired, falling back to the
// route parameter.
func projectID(c *gin.Context) (primitive.ObjectID, bool) {
	if v, ok := c.Get(middleware.ContextProjectID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id, true
		}
	}
	id, err := primitive.ObjectIDFromHex(c.Param("project_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid project ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// Presign issues a time-limited upload URL and reserves the asset
func (h *UploadHandler) Presign(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	var request models.PresignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	request.ProjectID = projectID

	response, err := h.uploadService.Presign(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Upload URL created", response)
}

// Confirm finalises an upload and generates its variants
func (h *UploadHandler) Confirm(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	var request models.ConfirmRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	request.ProjectID = projectID

	response, err := h.uploadService.Confirm(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, response.Message, response)
}

func (h *UploadHandler) GetAsset(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	assetID, err := primitive.ObjectIDFromHex(c.Param("asset_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID")
		return
	}

	asset, err := h.uploadService.GetAsset(c.Request.Context(), projectID, assetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Asset retrieved successfully", asset)
}

func (h *UploadHandler) ListAssets(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	assets, total, err := h.uploadService.ListAssets(c.Request.Context(), projectID, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	response := map[string]interface{}{
		"assets": assets,
	}

	utils.SuccessResponseWithMeta(c, "Assets retrieved successfully", response, meta)
}

func (h *UploadHandler) DeleteAsset(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	assetID, err := primitive.ObjectIDFromHex(c.Param("asset_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID")
		return
	}

	response, err := h.uploadService.DeleteAsset(c.Request.Context(), projectID, assetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Asset deleted successfully", response)
}

// DeleteProjectAssets is the project teardown hook
func (h *UploadHandler) DeleteProjectAssets(c *gin.Context) {
	projectID, ok := projectID(c)
	if !ok {
		return
	}

	response, err := h.uploadService.DeleteProjectAssets(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Project assets deleted successfully", response)
}

func (h *UploadHandler) Providers(c *gin.Context) {
	response := map[string]interface{}{
		"providers": h.uploadService.Providers(),
	}

	utils.SuccessResponse(c, "Storage providers retrieved successfully", response)
}

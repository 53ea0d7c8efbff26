package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "mediahub/internal/handlers/shared"
	"mediahub/internal/middleware"
	"mediahub/internal/repositories/interfaces"
	"mediahub/pkg/logger"
)

// UploadRouteDeps carries what the upload routes need beyond the handlers.
type UploadRouteDeps struct {
	JWTSecret   string
	Projects    interfaces.ProjectRepository
	Limiter     middleware.SlidingWindowLimiter
	RateLimit   int
	RateWindow  time.Duration
	Logger      *logger.Logger
	LocalUpload *handlers.LocalUploadHandler
}

// SetupUploadRoutes sets up presign/confirm, asset and storage routes
func SetupUploadRoutes(r *gin.RouterGroup, uploadHandler *handlers.UploadHandler, deps UploadRouteDeps) {
	projects := r.Group("/projects/:project_id")
	projects.Use(middleware.AuthRequired(deps.JWTSecret), middleware.ProjectOwnerRequired(deps.Projects))
	{
		uploads := projects.Group("/uploads")
		uploads.Use(middleware.RateLimit(deps.Limiter, "uploads", deps.RateLimit, deps.RateWindow, deps.Logger))
		{
			uploads.POST("/presign", uploadHandler.Presign)
			uploads.POST("/confirm", uploadHandler.Confirm)
		}

		projects.GET("/assets", uploadHandler.ListAssets)
		projects.GET("/assets/:asset_id", uploadHandler.GetAsset)
		projects.DELETE("/assets/:asset_id", uploadHandler.DeleteAsset)

		// Project teardown hook
		projects.DELETE("/assets", uploadHandler.DeleteProjectAssets)
	}

	storage := r.Group("/storage")
	{
		storage.GET("/providers", middleware.AuthRequired(deps.JWTSecret), uploadHandler.Providers)

		// Authorised by the signed token in the query string
		if deps.LocalUpload != nil {
			storage.PUT("/local/upload", deps.LocalUpload.Upload)
		}
	}
}

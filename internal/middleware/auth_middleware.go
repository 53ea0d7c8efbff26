package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/internal/repositories/interfaces"
	"mediahub/internal/utils"
	"mediahub/pkg/logger"
)

// ContextProjectID holds the authorised project's ObjectID.
const ContextProjectID = "project_id"

// AuthRequired validates the bearer token and sets the caller's user id.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, claims.UserID)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

// ProjectOwnerRequired loads the :project_id route project and lets the
// request through only when the authenticated user owns it. Missing and
// foreign projects are indistinguishable to the caller.
func ProjectOwnerRequired(projects interfaces.ProjectRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := primitive.ObjectIDFromHex(c.Param("project_id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid project ID")
			c.Abort()
			return
		}

		project, err := projects.GetByID(c.Request.Context(), projectID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				utils.NotFoundResponse(c, "Project")
			} else {
				utils.InternalServerErrorResponse(c)
			}
			c.Abort()
			return
		}

		if project.OwnerID != c.GetString(utils.ContextUserID) {
			utils.NotFoundResponse(c, "Project")
			c.Abort()
			return
		}

		c.Set(ContextProjectID, projectID)
		c.Next()
	}
}

package interfaces

import (
	"context"

	"mediahub/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectRepository exposes the project lookups the upload pipeline needs.
// Project CRUD lives elsewhere.
type ProjectRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	InvalidateCache(ctx context.Context, id primitive.ObjectID) error
}

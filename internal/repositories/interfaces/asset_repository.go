package interfaces

import (
	"context"
	"errors"

	"mediahub/internal/models"
	"mediahub/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a filtered lookup or update matches nothing.
var ErrNotFound = errors.New("record not found")

type AssetRepository interface {
	// CreatePending inserts a placeholder reserving id and object name.
	CreatePending(ctx context.Context, asset *models.Asset) error
	// GetPending finds an asset by id that belongs to projectID and is still
	// PENDING. Any other case is ErrNotFound.
	GetPending(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error)
	// Complete moves a PENDING asset to COMPLETED. The update filters on
	// status, so a concurrent confirm that already won yields ErrNotFound.
	Complete(ctx context.Context, id, projectID primitive.ObjectID, completion *models.AssetCompletion) (*models.Asset, error)

	// Read paths only ever return COMPLETED assets.
	GetByID(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Asset, int64, error)

	// Deletion paths see every status.
	Delete(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error)
	ListAllByProject(ctx context.Context, projectID primitive.ObjectID) ([]*models.Asset, error)
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

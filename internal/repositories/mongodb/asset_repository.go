package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediahub/internal/models"
	"mediahub/internal/repositories/interfaces"
	"mediahub/internal/utils"
	"mediahub/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var assetSortFields = []string{"created_at", "updated_at", "file_name", "size"}

type assetRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewAssetRepository(db *database.MongoDB) interfaces.AssetRepository {
	return &assetRepository{
		collection: db.Collection(database.AssetsCollection),
		now:        time.Now,
	}
}

func (r *assetRepository) CreatePending(ctx context.Context, asset *models.Asset) error {
	if asset.ID.IsZero() {
		asset.ID = primitive.NewObjectID()
	}
	now := r.now()
	asset.Status = models.AssetStatusPending
	asset.Variants = []models.Variant{}
	asset.CreatedAt = now
	asset.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, asset); err != nil {
		return fmt.Errorf("failed to create pending asset: %w", err)
	}

	return nil
}

func (r *assetRepository) GetPending(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	return r.findOne(ctx, bson.M{
		"_id":        id,
		"project_id": projectID,
		"status":     models.AssetStatusPending,
	})
}

func (r *assetRepository) Complete(ctx context.Context, id, projectID primitive.ObjectID, completion *models.AssetCompletion) (*models.Asset, error) {
	variants := completion.Variants
	if variants == nil {
		variants = []models.Variant{}
	}

	set := bson.M{
		"status":     models.AssetStatusCompleted,
		"is_image":   completion.IsImage,
		"size":       completion.Size,
		"url":        completion.URL,
		"variants":   variants,
		"updated_at": r.now(),
	}
	if completion.Width != nil {
		set["width"] = *completion.Width
	}
	if completion.Height != nil {
		set["height"] = *completion.Height
	}
	if completion.DurationSeconds != nil {
		set["duration_seconds"] = *completion.DurationSeconds
	}

	filter := bson.M{
		"_id":        id,
		"project_id": projectID,
		"status":     models.AssetStatusPending,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var asset models.Asset
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to complete asset: %w", err)
	}

	return &asset, nil
}

func (r *assetRepository) GetByID(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	return r.findOne(ctx, bson.M{
		"_id":        id,
		"project_id": projectID,
		"status":     models.AssetStatusCompleted,
	})
}

func (r *assetRepository) ListByProject(ctx context.Context, projectID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Asset, int64, error) {
	filter := bson.M{
		"project_id": projectID,
		"status":     models.AssetStatusCompleted,
	}
	if search := params.GetSearchFilter([]string{"file_name", "mime_type"}); len(search) > 0 {
		for k, v := range search {
			filter[k] = v
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions(assetSortFields))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}
	defer cursor.Close(ctx)

	assets := make([]*models.Asset, 0, params.GetLimit())
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, 0, fmt.Errorf("failed to decode assets: %w", err)
	}

	return assets, total, nil
}

func (r *assetRepository) Delete(ctx context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	var asset models.Asset
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id, "project_id": projectID}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete asset: %w", err)
	}

	return &asset, nil
}

func (r *assetRepository) ListAllByProject(ctx context.Context, projectID primitive.ObjectID) ([]*models.Asset, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list project assets: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*models.Asset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode project assets: %w", err)
	}

	return assets, nil
}

func (r *assetRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete project assets: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *assetRepository) findOne(ctx context.Context, filter bson.M) (*models.Asset, error) {
	var asset models.Asset
	err := r.collection.FindOne(ctx, filter).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediahub/internal/models"
	"mediahub/internal/repositories/interfaces"
	"mediahub/pkg/cache"
	"mediahub/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type projectRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
	ttl        time.Duration
}

// NewProjectRepository reads projects through a redis cache when one is
// given. The pinned provider never changes, so cached entries only go stale
// on deletion.
func NewProjectRepository(db *database.MongoDB, cache *cache.RedisCache, ttl time.Duration) interfaces.ProjectRepository {
	return &projectRepository{
		collection: db.Collection(database.ProjectsCollection),
		cache:      cache,
		ttl:        ttl,
	}
}

func projectCacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("project:%s", id.Hex())
}

func (r *projectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	cacheKey := projectCacheKey(id)
	var project models.Project
	if r.cache != nil {
		if err := r.cache.Get(ctx, cacheKey, &project); err == nil {
			return &project, nil
		}
	}

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, project, r.ttl)
	}

	return &project, nil
}

func (r *projectRepository) InvalidateCache(ctx context.Context, id primitive.ObjectID) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, projectCacheKey(id))
}

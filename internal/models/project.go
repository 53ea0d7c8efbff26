package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/pkg/storage"
)

// Project is the tenant boundary. StorageProvider is pinned at creation and
// every object operation for the project's assets goes through it.
type Project struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID         string             `json:"owner_id" bson:"owner_id"`
	Name            string             `json:"name" bson:"name"`
	StorageProvider storage.Provider   `json:"storage_provider" bson:"storage_provider"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

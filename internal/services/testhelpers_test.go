package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/utils"
)

// stubStorage satisfies storage.IStorage without touching S3.
type stubStorage struct{}

func (stubStorage) GeneratePresignedPutURL(ctx context.Context, ownerID, itemID, filename, contentType string) (string, string, error) {
	return "https://upload.test/" + itemID, "closet/" + ownerID + "/" + itemID + "/" + filename, nil
}

func (stubStorage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://img.test/" + key
}

func (stubStorage) DeleteObject(ctx context.Context, key string) error { return nil }

func setupServiceTestDB(t *testing.T, dbName string) *mongo.Database {
	database := utils.SetupTestDB(t, dbName,
		db.UsersCollection, db.ItemsCollection, db.RequestsCollection,
		db.MessagesCollection, db.FollowsCollection, db.WearLogsCollection)
	require.NoError(t, db.EnsureIndexes(context.Background(), database))
	return database
}

func seedUser(t *testing.T, database *mongo.Database, id, email, username, city string, styles []string, isPublic bool) *models.User {
	now := time.Now().UTC()
	user := &models.User{
		ID:        id,
		Email:     email,
		Username:  username,
		Name:      username,
		City:      city,
		Styles:    styles,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := database.Collection(db.UsersCollection).InsertOne(context.Background(), user)
	require.NoError(t, err)
	return user
}

func seedItem(t *testing.T, database *mongo.Database, id, ownerID, name string, isPublic, trade, borrow bool) *models.ClosetItem {
	now := time.Now().UTC()
	item := &models.ClosetItem{
		ID:                id,
		OwnerID:           ownerID,
		Name:              name,
		Category:          models.CategoryTops,
		Color:             "#1A1A1A",
		IsPublic:          isPublic,
		AvailableToTrade:  trade,
		AvailableToBorrow: borrow,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err := database.Collection(db.ItemsCollection).InsertOne(context.Background(), item)
	require.NoError(t, err)
	return item
}

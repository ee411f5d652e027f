package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
)

// ItemInput carries the fields for creating or updating a closet item.
// On update, nil pointers mean "leave unchanged".
type ItemInput struct {
	Name              *string
	Category          *models.Category
	Color             *string
	Season            *string
	EstimatedValue    *int64
	IsPublic          *bool
	AvailableToTrade  *bool
	AvailableToBorrow *bool
}

// IItemService defines the interface for closet catalog operations.
type IItemService interface {
	CreateItem(ctx context.Context, ownerID string, input ItemInput) (*models.ClosetItem, error)
	FindByID(ctx context.Context, itemID string) (*models.ClosetItem, error)
	GetItemFor(ctx context.Context, viewerID, itemID string) (*models.ClosetItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error)
	ListPublicByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error)
	UpdateItem(ctx context.Context, itemID, ownerID string, input ItemInput) (*models.ClosetItem, error)
	SetImageKey(ctx context.Context, itemID, ownerID, key string) error
	SetThumbKey(ctx context.Context, itemID, key string) error
	DeleteItem(ctx context.Context, itemID, ownerID string) (*models.ClosetItem, error)
}

type itemService struct {
	db *mongo.Database
}

// NewItemService creates a new ItemService.
func NewItemService(database *mongo.Database) IItemService {
	return &itemService{db: database}
}

// CreateItem adds a piece to the owner's closet. Name and a valid category
// are required; everything else is optional.
func (s *itemService) CreateItem(ctx context.Context, ownerID string, input ItemInput) (*models.ClosetItem, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, models.NewValidationError("item name is required")
	}
	if input.Category == nil || !models.ValidCategory(*input.Category) {
		return nil, models.NewValidationError("invalid item category")
	}
	if input.EstimatedValue != nil && *input.EstimatedValue < 0 {
		return nil, models.NewValidationError("estimated value cannot be negative")
	}

	collection := s.db.Collection(db.ItemsCollection)
	now := time.Now().UTC()

	item := &models.ClosetItem{
		ID:        models.NewID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(*input.Name),
		Category:  *input.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Color != nil {
		item.Color = *input.Color
	}
	if input.Season != nil {
		item.Season = *input.Season
	}
	item.EstimatedValue = input.EstimatedValue
	if input.IsPublic != nil {
		item.IsPublic = *input.IsPublic
	}
	if input.AvailableToTrade != nil {
		item.AvailableToTrade = *input.AvailableToTrade
	}
	if input.AvailableToBorrow != nil {
		item.AvailableToBorrow = *input.AvailableToBorrow
	}

	operation := func() error {
		item.ID = models.NewID()
		_, insertErr := collection.InsertOne(ctx, item)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to create closet item: %w", err)
	}
	return item, nil
}

// FindByID loads a non-deleted item with no visibility check. Internal use;
// handlers go through GetItemFor.
func (s *itemService) FindByID(ctx context.Context, itemID string) (*models.ClosetItem, error) {
	var item models.ClosetItem
	err := s.db.Collection(db.ItemsCollection).FindOne(ctx, bson.M{"_id": itemID, "deleted": false}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetItemFor loads an item through the visibility rules. A private item that
// the viewer may not see reads as not found, so existence is never leaked.
func (s *itemService) GetItemFor(ctx context.Context, viewerID, itemID string) (*models.ClosetItem, error) {
	item, err := s.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == viewerID {
		return item, nil
	}

	var owner models.User
	err = s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": item.OwnerID, "deleted": false}).Decode(&owner)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding owner of item %s: %w", itemID, err)
	}
	if !models.CanViewItem(viewerID, item, &owner) {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *itemService) listItems(ctx context.Context, filter bson.M) ([]models.ClosetItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.ItemsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []models.ClosetItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding items: %w", err)
	}
	return items, nil
}

// ListByOwner returns the owner's full closet, newest first.
func (s *itemService) ListByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error) {
	return s.listItems(ctx, bson.M{"owner_id": ownerID, "deleted": false})
}

// ListPublicByOwner returns only the owner's public items. Used for profile
// pages viewed by others; the caller checks the owner profile is public.
func (s *itemService) ListPublicByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error) {
	return s.listItems(ctx, bson.M{"owner_id": ownerID, "deleted": false, "is_public": true})
}

// UpdateItem applies field and flag changes. Only the owner may update;
// anyone else reads as not found.
func (s *itemService) UpdateItem(ctx context.Context, itemID, ownerID string, input ItemInput) (*models.ClosetItem, error) {
	set := bson.M{"updated_at": time.Now().UTC()}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, models.NewValidationError("item name cannot be empty")
		}
		set["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			return nil, models.NewValidationError("invalid item category")
		}
		set["category"] = *input.Category
	}
	if input.Color != nil {
		set["color"] = *input.Color
	}
	if input.Season != nil {
		set["season"] = *input.Season
	}
	if input.EstimatedValue != nil {
		if *input.EstimatedValue < 0 {
			return nil, models.NewValidationError("estimated value cannot be negative")
		}
		set["estimated_value"] = *input.EstimatedValue
	}
	if input.IsPublic != nil {
		set["is_public"] = *input.IsPublic
	}
	if input.AvailableToTrade != nil {
		set["available_to_trade"] = *input.AvailableToTrade
	}
	if input.AvailableToBorrow != nil {
		set["available_to_borrow"] = *input.AvailableToBorrow
	}

	collection := s.db.Collection(db.ItemsCollection)
	filter := bson.M{"_id": itemID, "owner_id": ownerID, "deleted": false}
	result, err := collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("error updating item %s: %w", itemID, err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, itemID)
}

// SetImageKey records the uploaded photo's object key after the client
// confirms the presigned PUT completed.
func (s *itemService) SetImageKey(ctx context.Context, itemID, ownerID, key string) error {
	result, err := s.db.Collection(db.ItemsCollection).UpdateOne(ctx,
		bson.M{"_id": itemID, "owner_id": ownerID, "deleted": false},
		bson.M{"$set": bson.M{"image_key": key, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error setting image key on item %s: %w", itemID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetThumbKey records the generated thumbnail's key. Called from the
// background processor, so no owner check.
func (s *itemService) SetThumbKey(ctx context.Context, itemID, key string) error {
	result, err := s.db.Collection(db.ItemsCollection).UpdateOne(ctx,
		bson.M{"_id": itemID, "deleted": false},
		bson.M{"$set": bson.M{"thumb_key": key, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error setting thumb key on item %s: %w", itemID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem soft-deletes an item and returns the document as it was, so the
// caller can schedule image cleanup and the request cascade.
func (s *itemService) DeleteItem(ctx context.Context, itemID, ownerID string) (*models.ClosetItem, error) {
	item, err := s.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	result, err := s.db.Collection(db.ItemsCollection).UpdateOne(ctx,
		bson.M{"_id": itemID, "owner_id": ownerID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return nil, fmt.Errorf("error deleting item %s: %w", itemID, err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return item, nil
}

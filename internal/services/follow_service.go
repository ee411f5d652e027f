package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
)

// FollowCounts is the follower/following tally for a profile page.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// IFollowService defines the interface for the social graph.
type IFollowService interface {
	Follow(ctx context.Context, followerID, targetUserID string) error
	Unfollow(ctx context.Context, followerID, targetUserID string) error
	Counts(ctx context.Context, userID string) (*FollowCounts, error)
	IsFollowing(ctx context.Context, followerID, targetUserID string) (bool, error)
	ListFollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

type followService struct {
	db *mongo.Database
}

// NewFollowService creates a new FollowService.
func NewFollowService(database *mongo.Database) IFollowService {
	return &followService{db: database}
}

// Follow creates the directed edge. Idempotent: following someone twice is a
// no-op thanks to the unique (follower_id, following_id) index.
func (s *followService) Follow(ctx context.Context, followerID, targetUserID string) error {
	if followerID == targetUserID {
		return models.NewValidationError("cannot follow yourself")
	}

	count, err := s.db.Collection(db.UsersCollection).CountDocuments(ctx, bson.M{"_id": targetUserID, "deleted": false})
	if err != nil {
		return fmt.Errorf("error checking follow target %s: %w", targetUserID, err)
	}
	if count == 0 {
		return ErrNotFound
	}

	follow := &models.Follow{
		ID:          models.NewID(),
		FollowerID:  followerID,
		FollowingID: targetUserID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.Collection(db.FollowsCollection).InsertOne(ctx, follow)
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil // Already following
		}
		return fmt.Errorf("error creating follow: %w", err)
	}
	return nil
}

// Unfollow removes the edge. Idempotent.
func (s *followService) Unfollow(ctx context.Context, followerID, targetUserID string) error {
	_, err := s.db.Collection(db.FollowsCollection).DeleteOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": targetUserID,
	})
	if err != nil {
		return fmt.Errorf("error removing follow: %w", err)
	}
	return nil
}

// Counts returns the follower/following tally for a user.
func (s *followService) Counts(ctx context.Context, userID string) (*FollowCounts, error) {
	collection := s.db.Collection(db.FollowsCollection)
	followers, err := collection.CountDocuments(ctx, bson.M{"following_id": userID})
	if err != nil {
		return nil, fmt.Errorf("error counting followers of %s: %w", userID, err)
	}
	following, err := collection.CountDocuments(ctx, bson.M{"follower_id": userID})
	if err != nil {
		return nil, fmt.Errorf("error counting following of %s: %w", userID, err)
	}
	return &FollowCounts{Followers: followers, Following: following}, nil
}

// IsFollowing reports whether the directed edge exists.
func (s *followService) IsFollowing(ctx context.Context, followerID, targetUserID string) (bool, error) {
	err := s.db.Collection(db.FollowsCollection).FindOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": targetUserID,
	}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("error checking follow: %w", err)
	}
	return true, nil
}

// ListFollowingIDs returns the IDs of everyone the user follows.
func (s *followService) ListFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	cursor, err := s.db.Collection(db.FollowsCollection).Find(ctx, bson.M{"follower_id": followerID})
	if err != nil {
		return nil, fmt.Errorf("error listing follows of %s: %w", followerID, err)
	}
	defer cursor.Close(ctx)

	ids := []string{}
	for cursor.Next(ctx) {
		var follow models.Follow
		if err := cursor.Decode(&follow); err != nil {
			return nil, fmt.Errorf("error decoding follow: %w", err)
		}
		ids = append(ids, follow.FollowingID)
	}
	return ids, cursor.Err()
}

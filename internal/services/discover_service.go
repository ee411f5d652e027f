package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CJang10/my-style-ai/internal/config"
	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/storage"
)

// DiscoverCard is one entry in a discover feed: a public item plus enough of
// its owner to render the card.
type DiscoverCard struct {
	Item              models.ItemSnapshot   `json:"item"`
	Owner             models.PublicIdentity `json:"owner"`
	City              string                `json:"city,omitempty"`
	Styles            []string              `json:"styles,omitempty"`
	AvailableToTrade  bool                  `json:"available_to_trade"`
	AvailableToBorrow bool                  `json:"available_to_borrow"`
}

// IDiscoverService defines the interface for the discovery feeds.
type IDiscoverService interface {
	Nearby(ctx context.Context, viewer *models.User) ([]DiscoverCard, error)
	ForYou(ctx context.Context, viewer *models.User) ([]DiscoverCard, error)
	Following(ctx context.Context, viewer *models.User, followedIDs []string) ([]DiscoverCard, error)
}

type discoverService struct {
	db      *mongo.Database
	rdb     *redis.Client
	storage storage.IStorage
	cfg     *config.Config
}

// NewDiscoverService creates a new DiscoverService.
func NewDiscoverService(database *mongo.Database, rdb *redis.Client, store storage.IStorage, cfg *config.Config) IDiscoverService {
	return &discoverService{db: database, rdb: rdb, storage: store, cfg: cfg}
}

// Nearby surfaces public items from public profiles in the viewer's city,
// newest first. An empty viewer city yields an empty feed rather than the
// whole catalog.
func (s *discoverService) Nearby(ctx context.Context, viewer *models.User) ([]DiscoverCard, error) {
	city := strings.TrimSpace(viewer.City)
	if city == "" {
		return []DiscoverCard{}, nil
	}

	cacheKey := fmt.Sprintf("discover:nearby:%s:%s", strings.ToLower(city), viewer.ID)
	if cards, ok := s.cached(ctx, cacheKey); ok {
		return cards, nil
	}

	owners, err := s.findPublicUsers(ctx, bson.M{"city": city, "_id": bson.M{"$ne": viewer.ID}})
	if err != nil {
		return nil, err
	}

	cards, err := s.cardsForOwners(ctx, owners, s.cfg.DiscoverLimit)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cacheKey, cards)
	return cards, nil
}

// ForYou ranks public items by style tag overlap between the viewer and the
// item's owner. Owners with no overlap still appear, after everyone else.
func (s *discoverService) ForYou(ctx context.Context, viewer *models.User) ([]DiscoverCard, error) {
	cacheKey := "discover:foryou:" + viewer.ID
	if cards, ok := s.cached(ctx, cacheKey); ok {
		return cards, nil
	}

	owners, err := s.findPublicUsers(ctx, bson.M{"_id": bson.M{"$ne": viewer.ID}})
	if err != nil {
		return nil, err
	}

	viewerTags := tagSet(viewer.Styles)
	sort.SliceStable(owners, func(i, j int) bool {
		return overlap(viewerTags, owners[i].Styles) > overlap(viewerTags, owners[j].Styles)
	})

	cards, err := s.cardsForOwners(ctx, owners, s.cfg.DiscoverLimit)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cacheKey, cards)
	return cards, nil
}

// Following shows the latest public items from the people the viewer follows.
// Followed private profiles stay hidden; a follow edge is not a visibility
// grant.
func (s *discoverService) Following(ctx context.Context, viewer *models.User, followedIDs []string) ([]DiscoverCard, error) {
	if len(followedIDs) == 0 {
		return []DiscoverCard{}, nil
	}

	cacheKey := "discover:following:" + viewer.ID
	if cards, ok := s.cached(ctx, cacheKey); ok {
		return cards, nil
	}

	owners, err := s.findPublicUsers(ctx, bson.M{"_id": bson.M{"$in": followedIDs}})
	if err != nil {
		return nil, err
	}

	cards, err := s.cardsForOwners(ctx, owners, s.cfg.DiscoverLimit)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cacheKey, cards)
	return cards, nil
}

func (s *discoverService) findPublicUsers(ctx context.Context, extra bson.M) ([]models.User, error) {
	filter := bson.M{"is_public": true, "deleted": false}
	for k, v := range extra {
		filter[k] = v
	}
	cursor, err := s.db.Collection(db.UsersCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding public users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding public users: %w", err)
	}
	return users, nil
}

// cardsForOwners loads public items for the given owners, preserving owner
// order so an upstream ranking carries through to the feed.
func (s *discoverService) cardsForOwners(ctx context.Context, owners []models.User, limit int) ([]DiscoverCard, error) {
	cards := []DiscoverCard{}
	if len(owners) == 0 {
		return cards, nil
	}

	ownerIDs := make([]string, len(owners))
	byID := make(map[string]*models.User, len(owners))
	for i := range owners {
		ownerIDs[i] = owners[i].ID
		byID[owners[i].ID] = &owners[i]
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.ItemsCollection).Find(ctx, bson.M{
		"owner_id":  bson.M{"$in": ownerIDs},
		"is_public": true,
		"deleted":   false,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding discoverable items: %w", err)
	}
	defer cursor.Close(ctx)

	itemsByOwner := make(map[string][]models.ClosetItem, len(owners))
	for cursor.Next(ctx) {
		var item models.ClosetItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding item: %w", err)
		}
		itemsByOwner[item.OwnerID] = append(itemsByOwner[item.OwnerID], item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	for _, ownerID := range ownerIDs {
		owner := byID[ownerID]
		for _, item := range itemsByOwner[ownerID] {
			imageKey := item.ThumbKey
			if imageKey == "" {
				imageKey = item.ImageKey
			}
			cards = append(cards, DiscoverCard{
				Item:              *item.Snapshot(s.storage.PublicURL(imageKey)),
				Owner:             owner.Identity(),
				City:              owner.City,
				Styles:            owner.Styles,
				AvailableToTrade:  item.AvailableToTrade,
				AvailableToBorrow: item.AvailableToBorrow,
			})
			if len(cards) >= limit {
				return cards, nil
			}
		}
	}
	return cards, nil
}

// cached reads a feed from Redis. Cache failures are treated as misses.
func (s *discoverService) cached(ctx context.Context, key string) ([]DiscoverCard, bool) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var cards []DiscoverCard
	if err := json.Unmarshal(data, &cards); err != nil {
		log.Printf("Failed to decode cached feed %s: %v", key, err)
		return nil, false
	}
	return cards, true
}

func (s *discoverService) cache(ctx context.Context, key string, cards []DiscoverCard) {
	data, err := json.Marshal(cards)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cfg.DiscoverCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache feed %s: %v", key, err)
	}
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[strings.ToLower(tag)] = true
	}
	return set
}

func overlap(set map[string]bool, tags []string) int {
	n := 0
	for _, tag := range tags {
		if set[strings.ToLower(tag)] {
			n++
		}
	}
	return n
}

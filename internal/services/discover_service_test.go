package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CJang10/my-style-ai/internal/config"
)

func setupTestRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	require.NoError(t, rdb.FlushAll(context.Background()).Err(), "Failed to flush Redis")
	return rdb
}

func discoverTestConfig() *config.Config {
	return &config.Config{DiscoverLimit: 60, DiscoverCacheTTL: 30 * time.Second}
}

func TestDiscoverService_Nearby(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_discover_nearby")
	rdb := setupTestRedis(t)
	svc := NewDiscoverService(database, rdb, stubStorage{}, discoverTestConfig())
	ctx := context.Background()

	viewer := seedUser(t, database, "alice", "alice@example.com", "alice", "Portland", nil, true)
	seedUser(t, database, "bob", "bob@example.com", "bob", "Portland", nil, true)
	seedUser(t, database, "carol", "carol@example.com", "carol", "Seattle", nil, true)
	seedUser(t, database, "greta", "greta@example.com", "greta", "Portland", nil, false)
	seedItem(t, database, "jacket", "bob", "Denim Jacket", true, true, false)
	seedItem(t, database, "slip", "bob", "Silk Slip", false, false, false)
	seedItem(t, database, "own", "alice", "My Coat", true, true, true)
	seedItem(t, database, "boots", "carol", "Boots", true, true, false)
	seedItem(t, database, "scarf", "greta", "Scarf", true, true, true)

	cards, err := svc.Nearby(ctx, viewer)
	require.NoError(t, err)
	// Only Bob's public item: same city, public profile, not the viewer's
	// own closet. Carol is elsewhere, Greta's profile is private.
	require.Len(t, cards, 1)
	assert.Equal(t, "jacket", cards[0].Item.ID)
	assert.Equal(t, "bob", cards[0].Owner.UserID)
	assert.Equal(t, "Portland", cards[0].City)
	assert.True(t, cards[0].AvailableToTrade)

	// The second read is served from cache: a new item doesn't show up until
	// the TTL expires.
	seedItem(t, database, "hat", "bob", "Hat", true, false, true)
	cards, err = svc.Nearby(ctx, viewer)
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	// No city means no feed.
	nomad := seedUser(t, database, "dave", "dave@example.com", "dave", "", nil, true)
	cards, err = svc.Nearby(ctx, nomad)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestDiscoverService_ForYouRanking(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_discover_foryou")
	rdb := setupTestRedis(t)
	svc := NewDiscoverService(database, rdb, stubStorage{}, discoverTestConfig())
	ctx := context.Background()

	viewer := seedUser(t, database, "alice", "alice@example.com", "alice", "Portland", []string{"vintage", "minimal"}, true)
	seedUser(t, database, "bob", "bob@example.com", "bob", "Austin", []string{"streetwear"}, true)
	seedUser(t, database, "carol", "carol@example.com", "carol", "Seattle", []string{"Vintage", "minimal", "y2k"}, true)
	seedItem(t, database, "hoodie", "bob", "Hoodie", true, true, false)
	seedItem(t, database, "slip", "carol", "Silk Slip", true, false, true)

	cards, err := svc.ForYou(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	// Carol shares two style tags (case-insensitively), Bob none, so Carol's
	// item ranks first. No-overlap owners still make the feed.
	assert.Equal(t, "carol", cards[0].Owner.UserID)
	assert.Equal(t, "bob", cards[1].Owner.UserID)
}

func TestDiscoverService_Following(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_discover_following")
	rdb := setupTestRedis(t)
	followSvc := NewFollowService(database)
	svc := NewDiscoverService(database, rdb, stubStorage{}, discoverTestConfig())
	ctx := context.Background()

	viewer := seedUser(t, database, "alice", "alice@example.com", "alice", "Portland", nil, true)
	seedUser(t, database, "bob", "bob@example.com", "bob", "Austin", nil, true)
	seedUser(t, database, "carol", "carol@example.com", "carol", "Seattle", nil, true)
	seedUser(t, database, "greta", "greta@example.com", "greta", "Portland", nil, false)
	seedItem(t, database, "hoodie", "bob", "Hoodie", true, true, false)
	seedItem(t, database, "slip", "bob", "Silk Slip", false, false, false)
	seedItem(t, database, "boots", "carol", "Boots", true, true, false)
	seedItem(t, database, "scarf", "greta", "Scarf", true, true, true)

	// No follows yet, no feed.
	cards, err := svc.Following(ctx, viewer, nil)
	require.NoError(t, err)
	assert.Empty(t, cards)

	require.NoError(t, followSvc.Follow(ctx, "alice", "bob"))
	require.NoError(t, followSvc.Follow(ctx, "alice", "greta"))

	followed, err := followSvc.ListFollowingIDs(ctx, "alice")
	require.NoError(t, err)

	// Only Bob's public item shows: the private slip stays hidden, Greta's
	// whole closet is behind her private profile, Carol isn't followed.
	cards, err = svc.Following(ctx, viewer, followed)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "hoodie", cards[0].Item.ID)
	assert.Equal(t, "bob", cards[0].Owner.UserID)
}

func TestTagOverlap(t *testing.T) {
	set := tagSet([]string{"Vintage", "minimal"})
	assert.Equal(t, 2, overlap(set, []string{"vintage", "MINIMAL", "y2k"}))
	assert.Equal(t, 0, overlap(set, []string{"streetwear"}))
	assert.Equal(t, 0, overlap(tagSet(nil), []string{"vintage"}))
}

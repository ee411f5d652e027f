package handlers_test

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/CJang10/my-style-ai/internal/ai"
	"github.com/CJang10/my-style-ai/internal/api/middleware"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
)

// authedRouter returns a gin engine that pretends the given user passed auth.
func authedRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	})
	return r
}

// fakeStorage satisfies storage.IStorage for handler tests.
type fakeStorage struct{}

func (fakeStorage) GeneratePresignedPutURL(ctx context.Context, ownerID, itemID, filename, contentType string) (string, string, error) {
	return "https://upload.test/" + itemID, "closet/" + ownerID + "/" + itemID + "/" + filename, nil
}

func (fakeStorage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://img.test/" + key
}

func (fakeStorage) DeleteObject(ctx context.Context, key string) error { return nil }

// --- Mocks ---

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, update services.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetAvatarKey(ctx context.Context, userID, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

func (m *MockUserService) FindManyByID(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.User), args.Error(1)
}

// MockItemService
type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) CreateItem(ctx context.Context, ownerID string, input services.ItemInput) (*models.ClosetItem, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClosetItem), args.Error(1)
}

func (m *MockItemService) FindByID(ctx context.Context, itemID string) (*models.ClosetItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClosetItem), args.Error(1)
}

func (m *MockItemService) GetItemFor(ctx context.Context, viewerID, itemID string) (*models.ClosetItem, error) {
	args := m.Called(ctx, viewerID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClosetItem), args.Error(1)
}

func (m *MockItemService) ListByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ClosetItem), args.Error(1)
}

func (m *MockItemService) ListPublicByOwner(ctx context.Context, ownerID string) ([]models.ClosetItem, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ClosetItem), args.Error(1)
}

func (m *MockItemService) UpdateItem(ctx context.Context, itemID, ownerID string, input services.ItemInput) (*models.ClosetItem, error) {
	args := m.Called(ctx, itemID, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClosetItem), args.Error(1)
}

func (m *MockItemService) SetImageKey(ctx context.Context, itemID, ownerID, key string) error {
	args := m.Called(ctx, itemID, ownerID, key)
	return args.Error(0)
}

func (m *MockItemService) SetThumbKey(ctx context.Context, itemID, key string) error {
	args := m.Called(ctx, itemID, key)
	return args.Error(0)
}

func (m *MockItemService) DeleteItem(ctx context.Context, itemID, ownerID string) (*models.ClosetItem, error) {
	args := m.Called(ctx, itemID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClosetItem), args.Error(1)
}

// MockRequestService
type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) CreateRequest(ctx context.Context, requesterID string, input services.CreateRequestInput) (*models.TradeRequest, error) {
	args := m.Called(ctx, requesterID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockRequestService) FindRequestFor(ctx context.Context, userID, requestID string) (*models.TradeRequest, error) {
	args := m.Called(ctx, userID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockRequestService) ListSent(ctx context.Context, userID string) ([]services.RequestView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RequestView), args.Error(1)
}

func (m *MockRequestService) ListReceived(ctx context.Context, userID string) ([]services.RequestView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RequestView), args.Error(1)
}

func (m *MockRequestService) Transition(ctx context.Context, requestID, actorID string, target models.RequestStatus) (*models.TradeRequest, error) {
	args := m.Called(ctx, requestID, actorID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockRequestService) CancelOpenForItem(ctx context.Context, itemID string) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) PostMessage(ctx context.Context, userID, requestID, content string) (*models.Message, error) {
	args := m.Called(ctx, userID, requestID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) ListMessages(ctx context.Context, userID, requestID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MockFollowService
type MockFollowService struct {
	mock.Mock
}

func (m *MockFollowService) Follow(ctx context.Context, followerID, targetUserID string) error {
	args := m.Called(ctx, followerID, targetUserID)
	return args.Error(0)
}

func (m *MockFollowService) Unfollow(ctx context.Context, followerID, targetUserID string) error {
	args := m.Called(ctx, followerID, targetUserID)
	return args.Error(0)
}

func (m *MockFollowService) Counts(ctx context.Context, userID string) (*services.FollowCounts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FollowCounts), args.Error(1)
}

func (m *MockFollowService) IsFollowing(ctx context.Context, followerID, targetUserID string) (bool, error) {
	args := m.Called(ctx, followerID, targetUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowService) ListFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	args := m.Called(ctx, followerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockDiscoverService
type MockDiscoverService struct {
	mock.Mock
}

func (m *MockDiscoverService) Nearby(ctx context.Context, viewer *models.User) ([]services.DiscoverCard, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.DiscoverCard), args.Error(1)
}

func (m *MockDiscoverService) ForYou(ctx context.Context, viewer *models.User) ([]services.DiscoverCard, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.DiscoverCard), args.Error(1)
}

func (m *MockDiscoverService) Following(ctx context.Context, viewer *models.User, followedIDs []string) ([]services.DiscoverCard, error) {
	args := m.Called(ctx, viewer, followedIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.DiscoverCard), args.Error(1)
}

// MockStylingService
type MockStylingService struct {
	mock.Mock
}

func (m *MockStylingService) LogWear(ctx context.Context, userID, date, occasion string, itemNames []string) (*models.WearLog, error) {
	args := m.Called(ctx, userID, date, occasion, itemNames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WearLog), args.Error(1)
}

func (m *MockStylingService) ListRecentWear(ctx context.Context, userID string, limit int) ([]models.WearLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WearLog), args.Error(1)
}

func (m *MockStylingService) IdentifyItem(ctx context.Context, imageBase64, mediaType string) (*ai.IdentifiedItem, error) {
	args := m.Called(ctx, imageBase64, mediaType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.IdentifiedItem), args.Error(1)
}

func (m *MockStylingService) DailyOutfit(ctx context.Context, user *models.User, params services.OutfitParams) (json.RawMessage, error) {
	args := m.Called(ctx, user, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockStylingService) ShoppingRecommendations(ctx context.Context, user *models.User) (json.RawMessage, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

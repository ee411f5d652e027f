package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CJang10/my-style-ai/internal/ai"
	"github.com/CJang10/my-style-ai/internal/api/handlers"
	"github.com/CJang10/my-style-ai/internal/api/middleware"
	"github.com/CJang10/my-style-ai/internal/config"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/storage"
	"github.com/CJang10/my-style-ai/internal/weather"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers
	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}
	styleAI := ai.NewAnthropicClient(cfg)
	weatherClient := weather.NewOpenMeteoClient(cfg)

	userService := services.NewUserService(db)
	itemService := services.NewItemService(db)
	requestService := services.NewRequestService(db, s3StorageService)
	messageService := services.NewMessageService(db)
	followService := services.NewFollowService(db)
	discoverService := services.NewDiscoverService(db, rdb, s3StorageService, cfg)
	stylingService := services.NewStylingService(db, styleAI, weatherClient)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	profileHandler := handlers.NewProfileHandler(userService, itemService, followService, s3StorageService)
	closetHandler := handlers.NewClosetHandler(itemService, s3StorageService, taskClient)
	requestHandler := handlers.NewRequestHandler(requestService, messageService, itemService, userService, taskClient)
	discoverHandler := handlers.NewDiscoverHandler(userService, discoverService, followService)
	aiHandler := handlers.NewAIHandler(userService, stylingService)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/auth/signup", authHandler.Signup)
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/profile", profileHandler.GetMe)
			authRequired.PATCH("/profile", profileHandler.UpdateMe)
			authRequired.POST("/profile/avatar", profileHandler.AvatarUploadURL)

			authRequired.GET("/u/:username", profileHandler.GetPublicProfile)
			authRequired.POST("/u/:username/follow", profileHandler.Follow)
			authRequired.DELETE("/u/:username/follow", profileHandler.Unfollow)

			authRequired.POST("/closet", closetHandler.CreateItem)
			authRequired.GET("/closet", closetHandler.ListMine)
			authRequired.GET("/closet/:id", closetHandler.GetItem)
			authRequired.PATCH("/closet/:id", closetHandler.UpdateItem)
			authRequired.DELETE("/closet/:id", closetHandler.DeleteItem)
			authRequired.POST("/closet/:id/image-url", closetHandler.ImageUploadURL)
			authRequired.POST("/closet/:id/image", closetHandler.ConfirmImage)

			authRequired.GET("/discover", discoverHandler.Feed)

			authRequired.POST("/requests", requestHandler.Create)
			authRequired.GET("/requests/sent", requestHandler.ListSent)
			authRequired.GET("/requests/received", requestHandler.ListReceived)
			authRequired.GET("/requests/:id", requestHandler.Get)
			authRequired.POST("/requests/:id/accept", requestHandler.Transition(models.StatusAccepted))
			authRequired.POST("/requests/:id/decline", requestHandler.Transition(models.StatusDeclined))
			authRequired.POST("/requests/:id/cancel", requestHandler.Transition(models.StatusCancelled))
			authRequired.POST("/requests/:id/complete", requestHandler.Transition(models.StatusCompleted))
			authRequired.GET("/requests/:id/messages", requestHandler.ListMessages)
			authRequired.POST("/requests/:id/messages", requestHandler.PostMessage)

			authRequired.POST("/ai/identify", aiHandler.Identify)
			authRequired.POST("/ai/outfit", aiHandler.Outfit)
			authRequired.GET("/ai/shopping", aiHandler.Shopping)
			authRequired.POST("/wear-logs", aiHandler.LogWear)
			authRequired.GET("/wear-logs", aiHandler.ListWear)
		}
	}

	return r
}

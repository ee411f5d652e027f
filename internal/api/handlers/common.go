package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/CJang10/my-style-ai/internal/api/middleware"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
)

// IAsynqClient defines the enqueueing interface used by handlers.
// This allows easier mocking than using the concrete asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// currentUserID returns the authenticated user's ID set by AuthMiddleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextKeyUserID)
}

// respondError maps domain errors onto HTTP statuses:
// validation 400, authorization 403, not found 404, lifecycle conflicts 409,
// upstream failures 502, everything else 500.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var authzErr *models.AuthorizationError
	var transitionErr *models.InvalidTransitionError
	var closedErr *models.ClosedThreadError
	var orphanErr *models.OrphanedReferenceError
	var upstreamErr *models.UpstreamUnavailableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to do that"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Request state changed",
			"current_status": transitionErr.CurrentStatus,
		})
	case errors.As(err, &closedErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "This conversation is closed",
			"current_status": closedErr.Status,
		})
	case errors.As(err, &orphanErr):
		c.JSON(http.StatusConflict, gin.H{"error": "An item in this request no longer exists"})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable, please try again"})
	default:
		_ = c.Error(err)
		log.Printf("Internal error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

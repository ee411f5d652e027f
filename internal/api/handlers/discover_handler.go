package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CJang10/my-style-ai/internal/services"
)

// DiscoverHandler handles the discovery feeds.
type DiscoverHandler struct {
	userService     services.IUserService
	discoverService services.IDiscoverService
	followService   services.IFollowService
}

// NewDiscoverHandler creates a new DiscoverHandler.
func NewDiscoverHandler(userService services.IUserService, discoverService services.IDiscoverService, followService services.IFollowService) *DiscoverHandler {
	return &DiscoverHandler{userService: userService, discoverService: discoverService, followService: followService}
}

// Feed handles GET /v1/discover?feed=nearby|foryou|following (default foryou)
func (h *DiscoverHandler) Feed(c *gin.Context) {
	viewer, err := h.userService.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	feed := c.DefaultQuery("feed", "foryou")
	var cards []services.DiscoverCard
	switch feed {
	case "nearby":
		cards, err = h.discoverService.Nearby(c.Request.Context(), viewer)
	case "foryou":
		cards, err = h.discoverService.ForYou(c.Request.Context(), viewer)
	case "following":
		var followedIDs []string
		followedIDs, err = h.followService.ListFollowingIDs(c.Request.Context(), viewer.ID)
		if err == nil {
			cards, err = h.discoverService.Following(c.Request.Context(), viewer, followedIDs)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed must be nearby, foryou or following"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feed": feed, "data": cards})
}

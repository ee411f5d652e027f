package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/storage"
)

// ProfileHandler handles own-profile management, public profile pages and the
// follow graph.
type ProfileHandler struct {
	userService   services.IUserService
	itemService   services.IItemService
	followService services.IFollowService
	storage       storage.IStorage
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(userService services.IUserService, itemService services.IItemService, followService services.IFollowService, store storage.IStorage) *ProfileHandler {
	return &ProfileHandler{
		userService:   userService,
		itemService:   itemService,
		followService: followService,
		storage:       store,
	}
}

// GetMe handles GET /v1/profile
func (h *ProfileHandler) GetMe(c *gin.Context) {
	user, err := h.userService.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	counts, err := h.followService.Counts(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "follows": counts, "avatar_url": h.storage.PublicURL(user.AvatarKey)})
}

type profileUpdateRequest struct {
	Username   *string  `json:"username"`
	Name       *string  `json:"name"`
	City       *string  `json:"city"`
	Styles     []string `json:"styles"`
	Occupation *string  `json:"occupation"`
	AgeBracket *string  `json:"age_bracket"`
	IsPublic   *bool    `json:"is_public"`

	NotificationPreferences *models.NotificationPreferences `json:"notification_preferences"`
}

// UpdateMe handles PATCH /v1/profile
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), currentUserID(c), services.ProfileUpdate{
		Username:                req.Username,
		Name:                    req.Name,
		City:                    req.City,
		Styles:                  req.Styles,
		Occupation:              req.Occupation,
		AgeBracket:              req.AgeBracket,
		IsPublic:                req.IsPublic,
		NotificationPreferences: req.NotificationPreferences,
	})
	if err != nil {
		if errors.Is(err, services.ErrUsernameExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetPublicProfile handles GET /v1/u/:username
// Private profiles read as not found for everyone but their owner.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	viewerID := currentUserID(c)

	user, err := h.userService.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsPublic && user.ID != viewerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	items, err := h.itemService.ListPublicByOwner(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	counts, err := h.followService.Counts(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	following, err := h.followService.IsFollowing(c.Request.Context(), viewerID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	cards := make([]gin.H, 0, len(items))
	for i := range items {
		item := &items[i]
		key := item.ThumbKey
		if key == "" {
			key = item.ImageKey
		}
		cards = append(cards, gin.H{
			"item":                item.Snapshot(h.storage.PublicURL(key)),
			"available_to_trade":  item.AvailableToTrade,
			"available_to_borrow": item.AvailableToBorrow,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": gin.H{
			"user_id":    user.ID,
			"username":   user.Username,
			"name":       user.Name,
			"city":       user.City,
			"styles":     user.Styles,
			"avatar_url": h.storage.PublicURL(user.AvatarKey),
		},
		"items":        cards,
		"follows":      counts,
		"is_following": following,
	})
}

// Follow handles POST /v1/u/:username/follow
func (h *ProfileHandler) Follow(c *gin.Context) {
	target, err := h.userService.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.followService.Follow(c.Request.Context(), currentUserID(c), target.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow handles DELETE /v1/u/:username/follow
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	target, err := h.userService.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.followService.Unfollow(c.Request.Context(), currentUserID(c), target.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

type avatarUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// AvatarUploadURL handles POST /v1/profile/avatar
// Returns a presigned PUT URL and records the key on the profile.
func (h *ProfileHandler) AvatarUploadURL(c *gin.Context) {
	var req avatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required"})
		return
	}

	userID := currentUserID(c)
	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), userID, "avatar", req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.userService.SetAvatarKey(c.Request.Context(), userID, key); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": key})
}

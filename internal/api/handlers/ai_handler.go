package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CJang10/my-style-ai/internal/services"
)

// AIHandler handles the stylist endpoints and the wear log that feeds them.
type AIHandler struct {
	userService    services.IUserService
	stylingService services.IStylingService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(userService services.IUserService, stylingService services.IStylingService) *AIHandler {
	return &AIHandler{userService: userService, stylingService: stylingService}
}

type identifyRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	MediaType   string `json:"media_type"`
}

// Identify handles POST /v1/ai/identify
func (h *AIHandler) Identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is required"})
		return
	}

	item, err := h.stylingService.IdentifyItem(c.Request.Context(), req.ImageBase64, req.MediaType)
	if err != nil {
		respondError(c, err)
		return
	}
	if item.Error != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": item.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

type outfitRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Occasion  string   `json:"occasion"`
}

// Outfit handles POST /v1/ai/outfit
func (h *AIHandler) Outfit(c *gin.Context) {
	var req outfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	outfit, err := h.stylingService.DailyOutfit(c.Request.Context(), user, services.OutfitParams{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Occasion:  req.Occasion,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outfit": outfit})
}

// Shopping handles GET /v1/ai/shopping
func (h *AIHandler) Shopping(c *gin.Context) {
	user, err := h.userService.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	recs, err := h.stylingService.ShoppingRecommendations(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

type wearLogRequest struct {
	Date      string   `json:"date" binding:"required"`
	Occasion  string   `json:"occasion"`
	ItemNames []string `json:"item_names" binding:"required"`
}

// LogWear handles POST /v1/wear-logs
func (h *AIHandler) LogWear(c *gin.Context) {
	var req wearLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and item_names are required"})
		return
	}

	entry, err := h.stylingService.LogWear(c.Request.Context(), currentUserID(c), req.Date, req.Occasion, req.ItemNames)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wear_log": entry})
}

// ListWear handles GET /v1/wear-logs
func (h *AIHandler) ListWear(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 30
	}

	logs, err := h.stylingService.ListRecentWear(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

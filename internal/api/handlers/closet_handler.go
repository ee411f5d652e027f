package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/storage"
	"github.com/CJang10/my-style-ai/internal/tasks"
)

// ClosetHandler handles the wardrobe catalog endpoints.
type ClosetHandler struct {
	itemService services.IItemService
	storage     storage.IStorage
	taskClient  IAsynqClient
}

// NewClosetHandler creates a new ClosetHandler.
func NewClosetHandler(itemService services.IItemService, store storage.IStorage, taskClient IAsynqClient) *ClosetHandler {
	return &ClosetHandler{itemService: itemService, storage: store, taskClient: taskClient}
}

type itemRequest struct {
	Name              *string          `json:"name"`
	Category          *models.Category `json:"category"`
	Color             *string          `json:"color"`
	Season            *string          `json:"season"`
	EstimatedValue    *int64           `json:"estimated_value"`
	IsPublic          *bool            `json:"is_public"`
	AvailableToTrade  *bool            `json:"available_to_trade"`
	AvailableToBorrow *bool            `json:"available_to_borrow"`
}

func (r *itemRequest) toInput() services.ItemInput {
	return services.ItemInput{
		Name:              r.Name,
		Category:          r.Category,
		Color:             r.Color,
		Season:            r.Season,
		EstimatedValue:    r.EstimatedValue,
		IsPublic:          r.IsPublic,
		AvailableToTrade:  r.AvailableToTrade,
		AvailableToBorrow: r.AvailableToBorrow,
	}
}

// itemResponse decorates an item with its resolved image URLs.
func (h *ClosetHandler) itemResponse(item *models.ClosetItem) gin.H {
	return gin.H{
		"item":      item,
		"image_url": h.storage.PublicURL(item.ImageKey),
		"thumb_url": h.storage.PublicURL(item.ThumbKey),
	}
}

// CreateItem handles POST /v1/closet
func (h *ClosetHandler) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.itemResponse(item))
}

// ListMine handles GET /v1/closet
func (h *ClosetHandler) ListMine(c *gin.Context) {
	items, err := h.itemService.ListByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(items))
	for i := range items {
		data = append(data, h.itemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetItem handles GET /v1/closet/:id
func (h *ClosetHandler) GetItem(c *gin.Context) {
	item, err := h.itemService.GetItemFor(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.itemResponse(item))
}

// UpdateItem handles PATCH /v1/closet/:id
func (h *ClosetHandler) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), c.Param("id"), currentUserID(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.itemResponse(item))
}

// DeleteItem handles DELETE /v1/closet/:id
// Soft-deletes the item, then schedules image cleanup and the cancellation of
// any open requests that reference it.
func (h *ClosetHandler) DeleteItem(c *gin.Context) {
	itemID := c.Param("id")
	item, err := h.itemService.DeleteItem(c.Request.Context(), itemID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if item.ImageKey != "" || item.ThumbKey != "" {
		keys := []string{}
		if item.ImageKey != "" {
			keys = append(keys, item.ImageKey)
		}
		if item.ThumbKey != "" {
			keys = append(keys, item.ThumbKey)
		}
		payload, _ := json.Marshal(tasks.ImageCleanupPayload{Keys: keys})
		task := asynq.NewTask(tasks.TypeImageCleanup, payload, asynq.Queue("images"))
		if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqueueErr != nil {
			log.Printf("Failed to enqueue image cleanup for item %s: %v", itemID, enqueueErr)
		}
	}

	payload, _ := json.Marshal(tasks.OrphanCascadePayload{ItemID: itemID})
	task := asynq.NewTask(tasks.TypeOrphanCascade, payload, asynq.Queue("critical"))
	if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqueueErr != nil {
		log.Printf("Failed to enqueue orphan cascade for item %s: %v", itemID, enqueueErr)
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type imageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadURL handles POST /v1/closet/:id/image-url
func (h *ClosetHandler) ImageUploadURL(c *gin.Context) {
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required"})
		return
	}

	userID := currentUserID(c)
	itemID := c.Param("id")

	// Ownership check before handing out an upload slot.
	item, err := h.itemService.GetItemFor(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if item.OwnerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), userID, itemID, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": key})
}

type confirmImageRequest struct {
	Key string `json:"key" binding:"required"`
}

// ConfirmImage handles POST /v1/closet/:id/image
// The client calls this after completing the presigned PUT; we record the key
// and schedule thumbnail generation.
func (h *ClosetHandler) ConfirmImage(c *gin.Context) {
	var req confirmImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	itemID := c.Param("id")
	if err := h.itemService.SetImageKey(c.Request.Context(), itemID, currentUserID(c), req.Key); err != nil {
		respondError(c, err)
		return
	}

	payload, _ := json.Marshal(tasks.ImageThumbnailPayload{ItemID: itemID, S3Key: req.Key})
	task := asynq.NewTask(tasks.TypeImageThumbnail, payload, asynq.Queue("images"))
	if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqueueErr != nil {
		log.Printf("Failed to enqueue thumbnail for item %s: %v", itemID, enqueueErr)
	}

	c.JSON(http.StatusOK, gin.H{"image_url": h.storage.PublicURL(req.Key)})
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/tasks"
)

// RequestHandler handles the trade/borrow request lifecycle and its
// negotiation threads.
type RequestHandler struct {
	requestService services.IRequestService
	messageService services.IMessageService
	itemService    services.IItemService
	userService    services.IUserService
	taskClient     IAsynqClient
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(
	requestService services.IRequestService,
	messageService services.IMessageService,
	itemService services.IItemService,
	userService services.IUserService,
	taskClient IAsynqClient,
) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		messageService: messageService,
		itemService:    itemService,
		userService:    userService,
		taskClient:     taskClient,
	}
}

type createRequestRequest struct {
	RequestedItemID string `json:"requested_item_id" binding:"required"`
	OfferedItemID   string `json:"offered_item_id"`
	Type            string `json:"type" binding:"required"`
	MeetOrShip      string `json:"meet_or_ship" binding:"required"`
	Message         string `json:"message"`
}

// Create handles POST /v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requested_item_id, type and meet_or_ship are required"})
		return
	}

	requesterID := currentUserID(c)
	request, err := h.requestService.CreateRequest(c.Request.Context(), requesterID, services.CreateRequestInput{
		RequestedItemID: req.RequestedItemID,
		OfferedItemID:   req.OfferedItemID,
		Type:            models.RequestType(req.Type),
		MeetOrShip:      models.MeetOrShip(req.MeetOrShip),
		Message:         req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.notify(c, tasks.RequestNotifyPayload{
		RecipientID: request.OwnerID,
		Event:       tasks.EventRequestReceived,
		ItemName:    h.itemName(c, request.RequestedItemID),
		FromName:    h.userName(c, requesterID),
	})

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ListSent handles GET /v1/requests/sent
func (h *RequestHandler) ListSent(c *gin.Context) {
	views, err := h.requestService.ListSent(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// ListReceived handles GET /v1/requests/received
func (h *RequestHandler) ListReceived(c *gin.Context) {
	views, err := h.requestService.ListReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// Get handles GET /v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requestService.FindRequestFor(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

// Transition returns a handler that moves a request to the target status.
// Routes: accept, decline, complete (owner side), cancel, complete
// (requester side).
func (h *RequestHandler) Transition(target models.RequestStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := currentUserID(c)
		request, err := h.requestService.Transition(c.Request.Context(), c.Param("id"), actorID, target)
		if err != nil {
			respondError(c, err)
			return
		}

		// Tell the other party what happened.
		recipientID := request.RequesterID
		if actorID == request.RequesterID {
			recipientID = request.OwnerID
		}
		h.notify(c, tasks.RequestNotifyPayload{
			RecipientID: recipientID,
			Event:       tasks.EventRequestUpdated,
			ItemName:    h.itemName(c, request.RequestedItemID),
			Status:      string(target),
		})

		c.JSON(http.StatusOK, gin.H{"request": request})
	}
}

// ListMessages handles GET /v1/requests/:id/messages
func (h *RequestHandler) ListMessages(c *gin.Context) {
	messages, err := h.messageService.ListMessages(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage handles POST /v1/requests/:id/messages
func (h *RequestHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	message, err := h.messageService.PostMessage(c.Request.Context(), currentUserID(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// notify enqueues a notification task. Failures are logged, never surfaced;
// the request operation itself already succeeded.
func (h *RequestHandler) notify(c *gin.Context, payload tasks.RequestNotifyPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	task := asynq.NewTask(tasks.TypeRequestNotify, data)
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("Failed to enqueue %s notification: %v", payload.Event, err)
	}
}

// itemName resolves an item's display name for notifications, tolerating
// deleted items.
func (h *RequestHandler) itemName(c *gin.Context, itemID string) string {
	item, err := h.itemService.FindByID(c.Request.Context(), itemID)
	if err != nil {
		return "an item"
	}
	return item.Name
}

func (h *RequestHandler) userName(c *gin.Context, userID string) string {
	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		return "Someone"
	}
	if user.Name != "" {
		return user.Name
	}
	if user.Username != "" {
		return user.Username
	}
	return "Someone"
}

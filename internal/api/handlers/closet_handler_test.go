package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/CJang10/my-style-ai/internal/api/handlers"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/tasks"
)

func TestClosetHandler_CreateItem_Success(t *testing.T) {
	mockItemSvc := new(MockItemService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewClosetHandler(mockItemSvc, fakeStorage{}, mockClient)

	r := authedRouter("alice")
	r.POST("/v1/closet", h.CreateItem)

	created := &models.ClosetItem{ID: "i1", OwnerID: "alice", Name: "Wool Coat", Category: models.CategoryOuterwear}
	mockItemSvc.On("CreateItem", mock.Anything, "alice", mock.MatchedBy(func(input services.ItemInput) bool {
		return input.Name != nil && *input.Name == "Wool Coat" && input.Category != nil && *input.Category == models.CategoryOuterwear
	})).Return(created, nil)

	body, _ := json.Marshal(gin.H{"name": "Wool Coat", "category": "Outerwear"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/closet", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockItemSvc.AssertExpectations(t)
}

func TestClosetHandler_GetItem_NotFound(t *testing.T) {
	mockItemSvc := new(MockItemService)
	h := handlers.NewClosetHandler(mockItemSvc, fakeStorage{}, new(MockAsynqClient))

	r := authedRouter("bob")
	r.GET("/v1/closet/:id", h.GetItem)

	// Private items read as not found for everyone but the owner.
	mockItemSvc.On("GetItemFor", mock.Anything, "bob", "i1").Return(nil, services.ErrNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/closet/i1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockItemSvc.AssertExpectations(t)
}

func TestClosetHandler_DeleteItem_SchedulesCleanupAndCascade(t *testing.T) {
	mockItemSvc := new(MockItemService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewClosetHandler(mockItemSvc, fakeStorage{}, mockClient)

	r := authedRouter("alice")
	r.DELETE("/v1/closet/:id", h.DeleteItem)

	deleted := &models.ClosetItem{
		ID:       "i1",
		OwnerID:  "alice",
		Name:     "Wool Coat",
		ImageKey: "closet/alice/i1/photo.jpg",
		ThumbKey: "closet/alice/i1/photo_thumb.jpg",
	}
	mockItemSvc.On("DeleteItem", mock.Anything, "i1", "alice").Return(deleted, nil)

	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeImageCleanup {
			return false
		}
		var p tasks.ImageCleanupPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		return len(p.Keys) == 2
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeOrphanCascade {
			return false
		}
		var p tasks.OrphanCascadePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		return p.ItemID == "i1"
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/closet/i1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockItemSvc.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestClosetHandler_DeleteItem_NoImageSkipsCleanup(t *testing.T) {
	mockItemSvc := new(MockItemService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewClosetHandler(mockItemSvc, fakeStorage{}, mockClient)

	r := authedRouter("alice")
	r.DELETE("/v1/closet/:id", h.DeleteItem)

	deleted := &models.ClosetItem{ID: "i1", OwnerID: "alice", Name: "Wool Coat"}
	mockItemSvc.On("DeleteItem", mock.Anything, "i1", "alice").Return(deleted, nil)

	// Only the cascade task; there are no objects to clean up.
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == tasks.TypeOrphanCascade
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/closet/i1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockClient.AssertExpectations(t)
}

func TestClosetHandler_ConfirmImage_SchedulesThumbnail(t *testing.T) {
	mockItemSvc := new(MockItemService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewClosetHandler(mockItemSvc, fakeStorage{}, mockClient)

	r := authedRouter("alice")
	r.POST("/v1/closet/:id/image", h.ConfirmImage)

	mockItemSvc.On("SetImageKey", mock.Anything, "i1", "alice", "closet/alice/i1/photo.jpg").Return(nil)
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeImageThumbnail {
			return false
		}
		var p tasks.ImageThumbnailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		return p.ItemID == "i1" && p.S3Key == "closet/alice/i1/photo.jpg"
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil)

	body, _ := json.Marshal(gin.H{"key": "closet/alice/i1/photo.jpg"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/closet/i1/image", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "https://img.test/closet/alice/i1/photo.jpg", respBody["image_url"])
	mockItemSvc.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/CJang10/my-style-ai/internal/api/handlers"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/services"
)

func TestDiscoverHandler_Feed_Nearby(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockDiscoverSvc := new(MockDiscoverService)
	mockFollowSvc := new(MockFollowService)
	h := handlers.NewDiscoverHandler(mockUserSvc, mockDiscoverSvc, mockFollowSvc)

	r := authedRouter("alice")
	r.GET("/v1/discover", h.Feed)

	alice := &models.User{ID: "alice", City: "Portland"}
	mockUserSvc.On("FindByID", mock.Anything, "alice").Return(alice, nil)
	mockDiscoverSvc.On("Nearby", mock.Anything, alice).Return([]services.DiscoverCard{
		{Item: models.ItemSnapshot{ID: "jacket", Name: "Denim Jacket"}, City: "Portland"},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/discover?feed=nearby", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "nearby", respBody["feed"])
	data, ok := respBody["data"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, data, 1)
	mockDiscoverSvc.AssertExpectations(t)
}

func TestDiscoverHandler_Feed_DefaultsToForYou(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockDiscoverSvc := new(MockDiscoverService)
	mockFollowSvc := new(MockFollowService)
	h := handlers.NewDiscoverHandler(mockUserSvc, mockDiscoverSvc, mockFollowSvc)

	r := authedRouter("alice")
	r.GET("/v1/discover", h.Feed)

	alice := &models.User{ID: "alice"}
	mockUserSvc.On("FindByID", mock.Anything, "alice").Return(alice, nil)
	mockDiscoverSvc.On("ForYou", mock.Anything, alice).Return([]services.DiscoverCard{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/discover", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockDiscoverSvc.AssertExpectations(t)
}

func TestDiscoverHandler_Feed_Following(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockDiscoverSvc := new(MockDiscoverService)
	mockFollowSvc := new(MockFollowService)
	h := handlers.NewDiscoverHandler(mockUserSvc, mockDiscoverSvc, mockFollowSvc)

	r := authedRouter("alice")
	r.GET("/v1/discover", h.Feed)

	alice := &models.User{ID: "alice"}
	mockUserSvc.On("FindByID", mock.Anything, "alice").Return(alice, nil)
	mockFollowSvc.On("ListFollowingIDs", mock.Anything, "alice").Return([]string{"bob", "carol"}, nil)
	mockDiscoverSvc.On("Following", mock.Anything, alice, []string{"bob", "carol"}).Return([]services.DiscoverCard{
		{Item: models.ItemSnapshot{ID: "jacket", Name: "Denim Jacket"}},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/discover?feed=following", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "following", respBody["feed"])
	mockFollowSvc.AssertExpectations(t)
	mockDiscoverSvc.AssertExpectations(t)
}

func TestDiscoverHandler_Feed_UnknownFeed(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockDiscoverSvc := new(MockDiscoverService)
	mockFollowSvc := new(MockFollowService)
	h := handlers.NewDiscoverHandler(mockUserSvc, mockDiscoverSvc, mockFollowSvc)

	r := authedRouter("alice")
	r.GET("/v1/discover", h.Feed)

	mockUserSvc.On("FindByID", mock.Anything, "alice").Return(&models.User{ID: "alice"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/discover?feed=trending", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockDiscoverSvc.AssertNotCalled(t, "Nearby")
	mockDiscoverSvc.AssertNotCalled(t, "ForYou")
	mockDiscoverSvc.AssertNotCalled(t, "Following")
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func publicOwner() *User {
	return &User{ID: "bob", IsPublic: true}
}

func publicItem() *ClosetItem {
	return &ClosetItem{
		ID:                "item-1",
		OwnerID:           "bob",
		IsPublic:          true,
		AvailableToTrade:  true,
		AvailableToBorrow: false,
	}
}

func TestDiscoverable(t *testing.T) {
	assert.True(t, Discoverable(publicItem(), publicOwner()))

	privateItem := publicItem()
	privateItem.IsPublic = false
	assert.False(t, Discoverable(privateItem, publicOwner()))

	privateOwner := publicOwner()
	privateOwner.IsPublic = false
	assert.False(t, Discoverable(publicItem(), privateOwner), "private profile hides even public items")

	deletedItem := publicItem()
	deletedItem.Deleted = true
	assert.False(t, Discoverable(deletedItem, publicOwner()))

	assert.False(t, Discoverable(nil, publicOwner()))
	assert.False(t, Discoverable(publicItem(), nil))
}

func TestCanViewItem(t *testing.T) {
	item := publicItem()
	item.IsPublic = false

	assert.True(t, CanViewItem("bob", item, publicOwner()), "owner sees their private items")
	assert.False(t, CanViewItem("alice", item, publicOwner()))

	item.IsPublic = true
	assert.True(t, CanViewItem("alice", item, publicOwner()))

	item.Deleted = true
	assert.False(t, CanViewItem("bob", item, publicOwner()), "deleted items are gone for everyone")
}

func TestRequestable(t *testing.T) {
	item := publicItem()
	owner := publicOwner()

	assert.True(t, Requestable(RequestTypeTrade, item, owner))
	assert.False(t, Requestable(RequestTypeBorrow, item, owner), "borrow flag off")

	item.AvailableToBorrow = true
	assert.True(t, Requestable(RequestTypeBorrow, item, owner))

	owner.IsPublic = false
	assert.False(t, Requestable(RequestTypeTrade, item, owner), "undiscoverable items are unrequestable")
}

func TestCanViewRequest(t *testing.T) {
	r := &TradeRequest{RequesterID: "alice", OwnerID: "bob"}
	assert.True(t, CanViewRequest("alice", r))
	assert.True(t, CanViewRequest("bob", r))
	assert.False(t, CanViewRequest("mallory", r))
	assert.False(t, CanViewRequest("alice", nil))
}

func TestValidMessageContent(t *testing.T) {
	assert.True(t, ValidMessageContent("hi there"))
	assert.False(t, ValidMessageContent(""))
	assert.False(t, ValidMessageContent("   \t\n"))
}

func TestDepositAmount(t *testing.T) {
	item := publicItem()
	assert.EqualValues(t, 0, item.DepositAmount())

	value := int64(4500)
	item.EstimatedValue = &value
	assert.EqualValues(t, 45, item.DepositAmount())
}

func TestWantsNotification(t *testing.T) {
	user := publicOwner()
	assert.True(t, user.WantsNotification("request_received"), "unset preferences default to on")

	user.NotificationPreferences = &NotificationPreferences{RequestReceived: false, RequestUpdated: true}
	assert.False(t, user.WantsNotification("request_received"))
	assert.True(t, user.WantsNotification("request_updated"))
	assert.True(t, user.WantsNotification("unknown_event"))
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque identifier for any document.
func NewID() string {
	return uuid.NewString()
}

// NotificationPreferences allows users to control email notifications.
type NotificationPreferences struct {
	RequestReceived bool `bson:"request_received" json:"request_received"`
	RequestUpdated  bool `bson:"request_updated" json:"request_updated"`
}

// User represents an account plus its public style profile. The profile
// fields (username, city, styles) drive Discover; IsPublic gates whether any
// of the user's items are discoverable at all.
type User struct {
	ID           string `bson:"_id" json:"id"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password" json:"-"`

	Username   string   `bson:"username,omitempty" json:"username,omitempty"` // Unique once set
	Name       string   `bson:"name,omitempty" json:"name,omitempty"`
	City       string   `bson:"city,omitempty" json:"city,omitempty"`
	Styles     []string `bson:"styles,omitempty" json:"styles,omitempty"` // Style tags, e.g. "minimalist"
	Occupation string   `bson:"occupation,omitempty" json:"occupation,omitempty"`
	AgeBracket string   `bson:"age_bracket,omitempty" json:"age_bracket,omitempty"`
	AvatarKey  string   `bson:"avatar_key,omitempty" json:"-"`

	IsPublic                bool                     `bson:"is_public" json:"is_public"`
	NotificationPreferences *NotificationPreferences `bson:"notification_preferences,omitempty" json:"notification_preferences,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Deleted   bool      `bson:"deleted" json:"-"` // Soft delete flag
}

// PublicIdentity is the thin user snapshot attached to requests and discover
// cards. It never exposes email or preferences.
type PublicIdentity struct {
	UserID   string `bson:"user_id" json:"user_id"`
	Username string `bson:"username,omitempty" json:"username,omitempty"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
}

// Identity returns the user's public-facing snapshot.
func (u *User) Identity() PublicIdentity {
	return PublicIdentity{UserID: u.ID, Username: u.Username, Name: u.Name}
}

// WantsNotification reports whether the user should be emailed for the given
// event. Unset preferences default to on.
func (u *User) WantsNotification(event string) bool {
	if u.NotificationPreferences == nil {
		return true
	}
	switch event {
	case "request_received":
		return u.NotificationPreferences.RequestReceived
	case "request_updated":
		return u.NotificationPreferences.RequestUpdated
	}
	return true
}

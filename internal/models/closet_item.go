package models

import (
	"time"
)

// Category is the closed set of closet item categories.
type Category string

const (
	CategoryTops        Category = "Tops"
	CategoryBottoms     Category = "Bottoms"
	CategoryOuterwear   Category = "Outerwear"
	CategoryShoes       Category = "Shoes"
	CategoryAccessories Category = "Accessories"
	CategoryDresses     Category = "Dresses"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryTops, CategoryBottoms, CategoryOuterwear, CategoryShoes, CategoryAccessories, CategoryDresses:
		return true
	}
	return false
}

// ClosetItem represents a single piece in a user's wardrobe.
// The three visibility flags are independent booleans: IsPublic controls
// Discover exposure, AvailableToTrade/AvailableToBorrow control whether the
// item may be the subject (or offer) of a request.
type ClosetItem struct {
	ID       string   `bson:"_id" json:"id"`
	OwnerID  string   `bson:"owner_id" json:"owner_id"`
	Name     string   `bson:"name" json:"name"`
	Category Category `bson:"category" json:"category"`
	Color    string   `bson:"color" json:"color"` // Hex string, e.g. "#1B2838"
	Season   string   `bson:"season,omitempty" json:"season,omitempty"`

	ImageKey string `bson:"image_key,omitempty" json:"-"` // S3 object key
	ThumbKey string `bson:"thumb_key,omitempty" json:"-"` // Set by the thumbnail task

	// EstimatedValue is in minor currency units (4500 = $45.00). Meaningful
	// for borrowable items (deposit hint) but never required.
	EstimatedValue *int64 `bson:"estimated_value,omitempty" json:"estimated_value,omitempty"`

	IsPublic          bool `bson:"is_public" json:"is_public"`
	AvailableToTrade  bool `bson:"available_to_trade" json:"available_to_trade"`
	AvailableToBorrow bool `bson:"available_to_borrow" json:"available_to_borrow"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Deleted   bool      `bson:"deleted" json:"-"` // Soft delete flag
}

// DepositAmount returns the suggested borrow deposit in whole currency units:
// one percent of the estimated minor-unit value (4500 = $45.00 yields 45), or
// 0 when no value is set.
func (i *ClosetItem) DepositAmount() int64 {
	if i.EstimatedValue == nil {
		return 0
	}
	return *i.EstimatedValue / 100
}

// ItemSnapshot is the thin item view joined onto trade requests and discover
// cards. A nil snapshot on a request means the item was deleted after the
// request was created (orphaned reference).
type ItemSnapshot struct {
	ID       string   `bson:"id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	Category Category `bson:"category" json:"category"`
	Color    string   `bson:"color" json:"color"`
	ImageURL string   `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// Snapshot builds the thin view of the item. imageURL resolution is the
// caller's job since only the storage layer knows the public base URL.
func (i *ClosetItem) Snapshot(imageURL string) *ItemSnapshot {
	return &ItemSnapshot{
		ID:       i.ID,
		Name:     i.Name,
		Category: i.Category,
		Color:    i.Color,
		ImageURL: imageURL,
	}
}

package models

import "time"

// WearLog records an outfit the user actually wore. Recent logs feed the
// daily-outfit prompt so the stylist avoids repeating combinations.
type WearLog struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Date      string    `bson:"date" json:"date"` // YYYY-MM-DD, user-local
	Occasion  string    `bson:"occasion" json:"occasion"`
	ItemNames []string  `bson:"item_names" json:"item_names"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

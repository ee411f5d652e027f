package models

import "time"

// Follow is a directed relationship: follower follows following. Existence is
// the whole state; unfollowing deletes the document. A unique compound index
// on (follower_id, following_id) keeps the pair unique.
type Follow struct {
	ID          string    `bson:"_id" json:"id"`
	FollowerID  string    `bson:"follower_id" json:"follower_id"`
	FollowingID string    `bson:"following_id" json:"following_id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

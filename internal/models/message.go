package models

import (
	"strings"
	"time"
)

// Message is one entry in a request's negotiation thread. Messages are never
// edited or deleted; the thread is an immutable audit trail.
type Message struct {
	ID             string    `bson:"_id" json:"id"`
	TradeRequestID string    `bson:"trade_request_id" json:"trade_request_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"` // Must be a party to the request
	Content        string    `bson:"content" json:"content"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// ValidMessageContent rejects empty and whitespace-only bodies.
func ValidMessageContent(content string) bool {
	return strings.TrimSpace(content) != ""
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
)

// IMessageService defines the interface for request thread messaging.
type IMessageService interface {
	PostMessage(ctx context.Context, userID, requestID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, userID, requestID string) ([]models.Message, error)
}

type messageService struct {
	db *mongo.Database
}

// NewMessageService creates a new MessageService.
func NewMessageService(database *mongo.Database) IMessageService {
	return &messageService{db: database}
}

func (s *messageService) loadRequestForParty(ctx context.Context, userID, requestID string) (*models.TradeRequest, error) {
	var request models.TradeRequest
	err := s.db.Collection(db.RequestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding request %s: %w", requestID, err)
	}
	if !models.CanViewRequest(userID, &request) {
		return nil, models.NewAuthorizationError("user %s is not a party to request %s", userID, requestID)
	}
	return &request, nil
}

// PostMessage appends to the thread. Only a party may post, and only while
// the request is pending or accepted.
func (s *messageService) PostMessage(ctx context.Context, userID, requestID, content string) (*models.Message, error) {
	if !models.ValidMessageContent(content) {
		return nil, models.NewValidationError("message content cannot be empty")
	}

	request, err := s.loadRequestForParty(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if !request.ThreadOpen() {
		return nil, &models.ClosedThreadError{Status: request.Status}
	}

	message := &models.Message{
		TradeRequestID: requestID,
		SenderID:       userID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	operation := func() error {
		message.ID = models.NewID()
		_, insertErr := s.db.Collection(db.MessagesCollection).InsertOne(ctx, message)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return message, nil
}

// ListMessages returns the full thread oldest-first. Readable in any request
// status; closed threads are read-only, not hidden.
func (s *messageService) ListMessages(ctx context.Context, userID, requestID string) ([]models.Message, error) {
	if _, err := s.loadRequestForParty(ctx, userID, requestID); err != nil {
		return nil, err
	}

	// Timestamps round-trip at millisecond precision, so _id breaks ties to
	// keep the order stable across reads.
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(db.MessagesCollection).Find(ctx, bson.M{"trade_request_id": requestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing messages for request %s: %w", requestID, err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("error decoding messages: %w", err)
	}
	return messages, nil
}

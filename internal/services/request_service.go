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
	"github.com/CJang10/my-style-ai/internal/storage"
)

// CreateRequestInput carries the fields to open a trade or borrow request.
type CreateRequestInput struct {
	RequestedItemID string
	OfferedItemID   string // Required iff Type == trade
	Type            models.RequestType
	MeetOrShip      models.MeetOrShip
	Message         string
}

// RequestView is a request joined with item snapshots and the counterpart's
// identity, shaped for the inbox/outbox lists. A nil snapshot means the item
// was deleted after the request was created.
type RequestView struct {
	models.TradeRequest
	RequestedItem *models.ItemSnapshot  `json:"requested_item"`
	OfferedItem   *models.ItemSnapshot  `json:"offered_item,omitempty"`
	Counterpart   models.PublicIdentity `json:"counterpart"`
	DepositAmount int64                 `json:"deposit,omitempty"` // Borrow hint in whole currency units, minor value / 100
}

// IRequestService defines the interface for the trade/borrow request
// lifecycle.
type IRequestService interface {
	CreateRequest(ctx context.Context, requesterID string, input CreateRequestInput) (*models.TradeRequest, error)
	FindRequestFor(ctx context.Context, userID, requestID string) (*models.TradeRequest, error)
	ListSent(ctx context.Context, userID string) ([]RequestView, error)
	ListReceived(ctx context.Context, userID string) ([]RequestView, error)
	Transition(ctx context.Context, requestID, actorID string, target models.RequestStatus) (*models.TradeRequest, error)
	CancelOpenForItem(ctx context.Context, itemID string) (int64, error)
}

type requestService struct {
	db      *mongo.Database
	storage storage.IStorage
}

// NewRequestService creates a new RequestService. Storage is only used to
// resolve snapshot image URLs.
func NewRequestService(database *mongo.Database, store storage.IStorage) IRequestService {
	return &requestService{db: database, storage: store}
}

// CreateRequest validates and opens a new pending request, copying any seed
// message into the thread as its first entry.
func (s *requestService) CreateRequest(ctx context.Context, requesterID string, input CreateRequestInput) (*models.TradeRequest, error) {
	if input.Type != models.RequestTypeTrade && input.Type != models.RequestTypeBorrow {
		return nil, models.NewValidationError("type must be trade or borrow")
	}
	if input.MeetOrShip != models.MeetupExchange && input.MeetOrShip != models.ShipExchange {
		return nil, models.NewValidationError("meet_or_ship must be meetup or ship")
	}
	if input.RequestedItemID == "" {
		return nil, models.NewValidationError("requested_item_id is required")
	}

	// Load target item and its owner; requestability folds in the owner's
	// profile visibility and the item's availability flag.
	var item models.ClosetItem
	err := s.db.Collection(db.ItemsCollection).FindOne(ctx, bson.M{"_id": input.RequestedItemID, "deleted": false}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding requested item: %w", err)
	}
	if item.OwnerID == requesterID {
		return nil, models.NewValidationError("cannot request your own item")
	}

	var owner models.User
	err = s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": item.OwnerID, "deleted": false}).Decode(&owner)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding item owner: %w", err)
	}
	if !models.Requestable(input.Type, &item, &owner) {
		return nil, ErrNotFound
	}

	switch input.Type {
	case models.RequestTypeTrade:
		if input.OfferedItemID == "" {
			return nil, models.NewValidationError("trade requests require an offered item")
		}
		var offered models.ClosetItem
		err = s.db.Collection(db.ItemsCollection).FindOne(ctx, bson.M{"_id": input.OfferedItemID, "deleted": false}).Decode(&offered)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, models.NewValidationError("offered item does not exist")
			}
			return nil, fmt.Errorf("error finding offered item: %w", err)
		}
		if offered.OwnerID != requesterID {
			return nil, models.NewValidationError("offered item does not belong to you")
		}
		if !offered.AvailableToTrade {
			return nil, models.NewValidationError("offered item is not flagged for trade")
		}
	case models.RequestTypeBorrow:
		if input.OfferedItemID != "" {
			return nil, models.NewValidationError("borrow requests cannot offer an item")
		}
	}

	// One open request per (requester, item) pair. The count is a fast path
	// for a friendly error; the partial unique index on the collection is
	// what actually holds when two creates race.
	collection := s.db.Collection(db.RequestsCollection)
	pending, err := collection.CountDocuments(ctx, bson.M{
		"requester_id":      requesterID,
		"requested_item_id": input.RequestedItemID,
		"status":            models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error checking for duplicate request: %w", err)
	}
	if pending > 0 {
		return nil, models.NewValidationError("you already have a pending request for this item")
	}

	now := time.Now().UTC()
	request := &models.TradeRequest{
		RequesterID:     requesterID,
		OwnerID:         item.OwnerID,
		RequestedItemID: input.RequestedItemID,
		OfferedItemID:   input.OfferedItemID,
		Type:            input.Type,
		Status:          models.StatusPending,
		MeetOrShip:      input.MeetOrShip,
		Message:         input.Message,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	operation := func() error {
		request.ID = models.NewID()
		_, insertErr := collection.InsertOne(ctx, request)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		// An ID collision would have been retried away, so a duplicate key
		// surviving Try is the pending-pair index firing under a race.
		if db.IsDuplicateKeyError(err) {
			return nil, models.NewValidationError("you already have a pending request for this item")
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Seed message becomes the first thread entry. A failure here leaves the
	// request intact; the text also survives on the request document itself.
	if models.ValidMessageContent(input.Message) {
		seed := &models.Message{
			TradeRequestID: request.ID,
			SenderID:       requesterID,
			Content:        input.Message,
			CreatedAt:      now,
		}
		seedOp := func() error {
			seed.ID = models.NewID()
			_, insertErr := s.db.Collection(db.MessagesCollection).InsertOne(ctx, seed)
			return insertErr
		}
		if err := db.Try(seedOp); err != nil {
			return nil, fmt.Errorf("request %s created but seed message failed: %w", request.ID, err)
		}
	}
	return request, nil
}

// FindRequestFor loads a request the user is a party to. Outsiders get an
// AuthorizationError even when the request exists.
func (s *requestService) FindRequestFor(ctx context.Context, userID, requestID string) (*models.TradeRequest, error) {
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

// ListSent returns requests the user opened, newest first.
func (s *requestService) ListSent(ctx context.Context, userID string) ([]RequestView, error) {
	return s.listViews(ctx, userID, bson.M{"requester_id": userID})
}

// ListReceived returns requests targeting the user's items, newest first.
func (s *requestService) ListReceived(ctx context.Context, userID string) ([]RequestView, error) {
	return s.listViews(ctx, userID, bson.M{"owner_id": userID})
}

func (s *requestService) listViews(ctx context.Context, userID string, filter bson.M) ([]RequestView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.RequestsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.TradeRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("error decoding requests: %w", err)
	}

	// Batch-load the referenced items and counterpart users.
	itemIDs := make([]string, 0, 2*len(requests))
	userIDs := make([]string, 0, len(requests))
	for _, r := range requests {
		itemIDs = append(itemIDs, r.RequestedItemID)
		if r.OfferedItemID != "" {
			itemIDs = append(itemIDs, r.OfferedItemID)
		}
		if r.RequesterID == userID {
			userIDs = append(userIDs, r.OwnerID)
		} else {
			userIDs = append(userIDs, r.RequesterID)
		}
	}

	items, err := s.findItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.findUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for _, r := range requests {
		view := RequestView{TradeRequest: r}
		if item, ok := items[r.RequestedItemID]; ok {
			view.RequestedItem = item.Snapshot(s.storage.PublicURL(item.ThumbKey))
			if r.Type == models.RequestTypeBorrow {
				view.DepositAmount = item.DepositAmount()
			}
		}
		if r.OfferedItemID != "" {
			if item, ok := items[r.OfferedItemID]; ok {
				view.OfferedItem = item.Snapshot(s.storage.PublicURL(item.ThumbKey))
			}
		}
		counterpartID := r.OwnerID
		if r.RequesterID != userID {
			counterpartID = r.RequesterID
		}
		if user, ok := users[counterpartID]; ok {
			view.Counterpart = user.Identity()
		} else {
			view.Counterpart = models.PublicIdentity{UserID: counterpartID}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *requestService) findItems(ctx context.Context, itemIDs []string) (map[string]*models.ClosetItem, error) {
	items := make(map[string]*models.ClosetItem, len(itemIDs))
	if len(itemIDs) == 0 {
		return items, nil
	}
	cursor, err := s.db.Collection(db.ItemsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": itemIDs}, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("error loading items: %w", err)
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var item models.ClosetItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding item: %w", err)
		}
		i := item
		items[i.ID] = &i
	}
	return items, cursor.Err()
}

func (s *requestService) findUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}
	cursor, err := s.db.Collection(db.UsersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("error decoding user: %w", err)
		}
		u := user
		users[u.ID] = &u
	}
	return users, cursor.Err()
}

// Transition moves a request along one edge of its lifecycle. The write is
// conditional on the status observed at read time, so when two transitions
// race the first writer wins and the loser gets an InvalidTransitionError
// carrying the fresh status.
func (s *requestService) Transition(ctx context.Context, requestID, actorID string, target models.RequestStatus) (*models.TradeRequest, error) {
	collection := s.db.Collection(db.RequestsCollection)

	var request models.TradeRequest
	err := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding request %s: %w", requestID, err)
	}

	if err := request.CheckTransition(actorID, target); err != nil {
		return nil, err
	}

	// Accepting or completing a request whose items vanished mid-flight is
	// refused; the deletion cascade will cancel it shortly.
	if target == models.StatusAccepted || target == models.StatusCompleted {
		if err := s.checkItemsPresent(ctx, &request); err != nil {
			return nil, err
		}
	}

	filter := bson.M{"_id": requestID, "status": request.Status}
	update := bson.M{"$set": bson.M{"status": target, "updated_at": time.Now().UTC()}}
	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("db error transitioning request %s: %w", requestID, err)
	}
	if result.MatchedCount == 0 {
		// Someone moved the request between our read and write. Re-fetch to
		// report the status that actually won.
		var fresh models.TradeRequest
		checkErr := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&fresh)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if checkErr != nil {
			return nil, fmt.Errorf("error re-reading request %s: %w", requestID, checkErr)
		}
		return nil, &models.InvalidTransitionError{CurrentStatus: fresh.Status, Target: target}
	}

	request.Status = target
	return &request, nil
}

func (s *requestService) checkItemsPresent(ctx context.Context, r *models.TradeRequest) error {
	ids := []string{r.RequestedItemID}
	if r.OfferedItemID != "" {
		ids = append(ids, r.OfferedItemID)
	}
	count, err := s.db.Collection(db.ItemsCollection).CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}, "deleted": false})
	if err != nil {
		return fmt.Errorf("error checking request items: %w", err)
	}
	if count != int64(len(ids)) {
		return &models.OrphanedReferenceError{ItemID: r.RequestedItemID}
	}
	return nil
}

// CancelOpenForItem cancels every pending or accepted request that references
// the item on either side. Each row goes through a conditional update, so a
// request that reaches a terminal status concurrently is left alone. Called
// from the deletion cascade task; returns the number cancelled.
func (s *requestService) CancelOpenForItem(ctx context.Context, itemID string) (int64, error) {
	collection := s.db.Collection(db.RequestsCollection)
	filter := bson.M{
		"$or":    bson.A{bson.M{"requested_item_id": itemID}, bson.M{"offered_item_id": itemID}},
		"status": bson.M{"$in": bson.A{models.StatusPending, models.StatusAccepted}},
	}
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error finding open requests for item %s: %w", itemID, err)
	}
	defer cursor.Close(ctx)

	var open []models.TradeRequest
	if err := cursor.All(ctx, &open); err != nil {
		return 0, fmt.Errorf("error decoding open requests: %w", err)
	}

	var cancelled int64
	for _, r := range open {
		result, err := collection.UpdateOne(ctx,
			bson.M{"_id": r.ID, "status": r.Status},
			bson.M{"$set": bson.M{"status": models.StatusCancelled, "updated_at": time.Now().UTC()}})
		if err != nil {
			return cancelled, fmt.Errorf("error cancelling request %s: %w", r.ID, err)
		}
		cancelled += result.ModifiedCount
	}
	return cancelled, nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CJang10/my-style-ai/internal/ai"
	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
	"github.com/CJang10/my-style-ai/internal/weather"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// wearHistoryDays bounds how far back the outfit prompt looks.
const wearHistoryDays = 7

// OutfitParams carries the optional inputs for a daily outfit generation.
// Latitude/Longitude come from the client when location is shared; without
// them the recommendation simply goes out weather-blind.
type OutfitParams struct {
	Latitude  *float64
	Longitude *float64
	Occasion  string
}

// IStylingService defines the interface for the AI stylist features and the
// wear log that feeds them.
type IStylingService interface {
	LogWear(ctx context.Context, userID, date, occasion string, itemNames []string) (*models.WearLog, error)
	ListRecentWear(ctx context.Context, userID string, limit int) ([]models.WearLog, error)
	IdentifyItem(ctx context.Context, imageBase64, mediaType string) (*ai.IdentifiedItem, error)
	DailyOutfit(ctx context.Context, user *models.User, params OutfitParams) (json.RawMessage, error)
	ShoppingRecommendations(ctx context.Context, user *models.User) (json.RawMessage, error)
}

type stylingService struct {
	db      *mongo.Database
	styleAI ai.IStyleAI
	weather weather.IWeather
}

// NewStylingService creates a new StylingService.
func NewStylingService(database *mongo.Database, styleAI ai.IStyleAI, weatherClient weather.IWeather) IStylingService {
	return &stylingService{db: database, styleAI: styleAI, weather: weatherClient}
}

// LogWear records an outfit the user wore.
func (s *stylingService) LogWear(ctx context.Context, userID, date, occasion string, itemNames []string) (*models.WearLog, error) {
	if !datePattern.MatchString(date) {
		return nil, models.NewValidationError("date must be YYYY-MM-DD")
	}
	if len(itemNames) == 0 {
		return nil, models.NewValidationError("at least one item name is required")
	}

	entry := &models.WearLog{
		UserID:    userID,
		Date:      date,
		Occasion:  occasion,
		ItemNames: itemNames,
		CreatedAt: time.Now().UTC(),
	}
	operation := func() error {
		entry.ID = models.NewID()
		_, insertErr := s.db.Collection(db.WearLogsCollection).InsertOne(ctx, entry)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to log wear: %w", err)
	}
	return entry, nil
}

// ListRecentWear returns the user's latest wear logs, newest first.
func (s *stylingService) ListRecentWear(ctx context.Context, userID string, limit int) ([]models.WearLog, error) {
	if limit <= 0 {
		limit = 30
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(db.WearLogsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing wear logs for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	logs := []models.WearLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("error decoding wear logs: %w", err)
	}
	return logs, nil
}

// IdentifyItem runs the photo through the vision model.
func (s *stylingService) IdentifyItem(ctx context.Context, imageBase64, mediaType string) (*ai.IdentifiedItem, error) {
	return s.styleAI.IdentifyItem(ctx, imageBase64, mediaType)
}

// promptProfile is the slice of the user profile sent to the stylist.
type promptProfile struct {
	Name       string   `json:"name,omitempty"`
	City       string   `json:"city,omitempty"`
	Styles     []string `json:"styles,omitempty"`
	Occupation string   `json:"occupation,omitempty"`
	AgeBracket string   `json:"age_bracket,omitempty"`
}

// promptItem is the slice of a closet item sent to the stylist.
type promptItem struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Color    string          `json:"color,omitempty"`
	Season   string          `json:"season,omitempty"`
}

// promptWear is one recent outfit for the repetition-avoidance hint.
type promptWear struct {
	Date      string   `json:"date"`
	Occasion  string   `json:"occasion,omitempty"`
	ItemNames []string `json:"items"`
}

func profileOf(user *models.User) promptProfile {
	return promptProfile{
		Name:       user.Name,
		City:       user.City,
		Styles:     user.Styles,
		Occupation: user.Occupation,
		AgeBracket: user.AgeBracket,
	}
}

func (s *stylingService) closetOf(ctx context.Context, userID string) ([]promptItem, error) {
	cursor, err := s.db.Collection(db.ItemsCollection).Find(ctx, bson.M{"owner_id": userID, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("error loading closet for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	items := []promptItem{}
	for cursor.Next(ctx) {
		var item models.ClosetItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding item: %w", err)
		}
		items = append(items, promptItem{Name: item.Name, Category: item.Category, Color: item.Color, Season: item.Season})
	}
	return items, cursor.Err()
}

// DailyOutfit builds the prompt inputs and asks the stylist for today's
// outfit. A weather fetch failure degrades the recommendation instead of
// failing it; an empty closet is refused up front since there is nothing to
// style.
func (s *stylingService) DailyOutfit(ctx context.Context, user *models.User, params OutfitParams) (json.RawMessage, error) {
	closet, err := s.closetOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(closet) == 0 {
		return nil, models.NewValidationError("closet is empty, add some items first")
	}

	var conditions *weather.Conditions
	if params.Latitude != nil && params.Longitude != nil {
		conditions, err = s.weather.Current(ctx, *params.Latitude, *params.Longitude)
		if err != nil {
			log.Printf("Weather lookup failed, generating outfit without it: %v", err)
			conditions = nil
		}
	}

	var history []promptWear
	cutoff := time.Now().UTC().AddDate(0, 0, -wearHistoryDays).Format("2006-01-02")
	recent, err := s.ListRecentWear(ctx, user.ID, 20)
	if err != nil {
		return nil, err
	}
	for _, entry := range recent {
		if entry.Date >= cutoff {
			history = append(history, promptWear{Date: entry.Date, Occasion: entry.Occasion, ItemNames: entry.ItemNames})
		}
	}

	req := ai.OutfitRequest{
		Profile:     profileOf(user),
		ClosetItems: closet,
		Occasion:    params.Occasion,
	}
	if conditions != nil {
		req.Weather = conditions
	}
	if len(history) > 0 {
		req.WearHistory = history
	}
	return s.styleAI.DailyOutfit(ctx, req)
}

// ShoppingRecommendations asks the stylist what the closet is missing.
func (s *stylingService) ShoppingRecommendations(ctx context.Context, user *models.User) (json.RawMessage, error) {
	closet, err := s.closetOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.styleAI.ShoppingRecommendations(ctx, profileOf(user), closet)
}

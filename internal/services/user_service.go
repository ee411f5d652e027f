package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CJang10/my-style-ai/internal/auth"
	"github.com/CJang10/my-style-ai/internal/db"
	"github.com/CJang10/my-style-ai/internal/models"
)

// ErrNotFound is the generic lookup failure surfaced to handlers as a 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an attempt is made to use an email that already exists.
var ErrEmailExists = errors.New("email already in use by another account")

// ErrUsernameExists is returned when the chosen username is taken.
var ErrUsernameExists = errors.New("username already taken")

// ErrInvalidCredentials is returned when login email/password don't match.
var ErrInvalidCredentials = errors.New("invalid email or password")

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// ProfileUpdate carries the onboarding / settings fields a user may change.
// Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	Username   *string
	Name       *string
	City       *string
	Styles     []string
	Occupation *string
	AgeBracket *string
	IsPublic   *bool

	NotificationPreferences *models.NotificationPreferences
}

// IUserService defines the interface for account and profile operations.
type IUserService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error)
	SetAvatarKey(ctx context.Context, userID, key string) error
	FindManyByID(ctx context.Context, userIDs []string) (map[string]*models.User, error)
}

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

// Signup creates a new account. The style profile starts empty; onboarding
// fills it in via UpdateProfile.
func (s *userService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, models.NewValidationError("invalid email address")
	}
	if len(password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	collection := s.db.Collection(db.UsersCollection)
	now := time.Now().UTC()

	var newUser *models.User
	operation := func() error {
		newUser = &models.User{
			ID:           models.NewID(),
			Email:        email,
			PasswordHash: hash,
			IsPublic:     true,
			NotificationPreferences: &models.NotificationPreferences{
				RequestReceived: true,
				RequestUpdated:  true,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if db.IsDuplicateKeyError(err) {
			// The retry already regenerated the random ID, so a surviving
			// duplicate key means the unique email index fired.
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return newUser, nil
}

// Login verifies credentials and returns the account.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"email": email, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindByID finds a non-deleted user by ID.
func (s *userService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID, err)
	}
	return &user, nil
}

// FindByUsername finds a non-deleted user by their unique username.
func (s *userService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"username": strings.ToLower(username), "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user by username %s: %w", username, err)
	}
	return &user, nil
}

// UpdateProfile applies onboarding/settings changes and returns the fresh
// document. Username changes go through the unique index; a duplicate key
// surfaces as ErrUsernameExists.
func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}

	if update.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*update.Username))
		if !usernamePattern.MatchString(username) {
			return nil, models.NewValidationError("username must be 3-30 lowercase letters, digits or underscores")
		}
		set["username"] = username
	}
	if update.Name != nil {
		set["name"] = strings.TrimSpace(*update.Name)
	}
	if update.City != nil {
		set["city"] = strings.TrimSpace(*update.City)
	}
	if update.Styles != nil {
		styles := make([]string, 0, len(update.Styles))
		for _, tag := range update.Styles {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				styles = append(styles, tag)
			}
		}
		set["styles"] = styles
	}
	if update.Occupation != nil {
		set["occupation"] = strings.TrimSpace(*update.Occupation)
	}
	if update.AgeBracket != nil {
		set["age_bracket"] = strings.TrimSpace(*update.AgeBracket)
	}
	if update.IsPublic != nil {
		set["is_public"] = *update.IsPublic
	}
	if update.NotificationPreferences != nil {
		set["notification_preferences"] = update.NotificationPreferences
	}

	collection := s.db.Collection(db.UsersCollection)
	result, err := collection.UpdateOne(ctx, bson.M{"_id": userID, "deleted": false}, bson.M{"$set": set})
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("error updating profile for user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, userID)
}

// SetAvatarKey records the object key of the user's uploaded avatar.
func (s *userService) SetAvatarKey(ctx context.Context, userID, key string) error {
	result, err := s.db.Collection(db.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": userID, "deleted": false},
		bson.M{"$set": bson.M{"avatar_key": key, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error setting avatar for user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindManyByID loads a batch of users keyed by ID. Missing or deleted users
// are simply absent from the map; callers decide what absence means.
func (s *userService) FindManyByID(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	cursor, err := s.db.Collection(db.UsersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}, "deleted": false})
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
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

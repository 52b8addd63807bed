package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/db"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// IUserService defines the interface for back-office user operations.
type IUserService interface {
	CreateUser(ctx context.Context, name, email, password string, isAdmin bool) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// CreateUser creates a back-office user with a hashed password.
func (s *userService) CreateUser(ctx context.Context, name, email, password string, isAdmin bool) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("user email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash user password: %w", err)
	}

	collection := s.db.Collection(usersCollection)
	now := time.Now().UTC()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	operation := func() error {
		user.ID = primitive.NewObjectID().Hex()
		_, insertErr := collection.InsertOne(ctx, user)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, fmt.Errorf("user with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to insert user %s after multiple retries: %w", email, err)
	}
	return user, nil
}

// FindUserByID finds a non-deleted user.
func (s *userService) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", id, err)
	}
	return &user, nil
}

// FindUserByEmail finds a non-deleted user by email, for login.
func (s *userService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"email": email, "deleted": bson.M{"$ne": true}}
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

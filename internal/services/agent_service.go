package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/db"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// IAgentService defines the interface for agent account operations.
type IAgentService interface {
	CreateAgent(ctx context.Context, name, email, phone, password string) (*models.Agent, error)
	FindAgentByID(ctx context.Context, id string) (*models.Agent, error)
	FindAgentByEmail(ctx context.Context, email string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	UpdateAgent(ctx context.Context, id string, updates map[string]interface{}) (*models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
}

const agentsCollection = "agents"

// agentService implements IAgentService.
type agentService struct {
	db *mongo.Database
}

// NewAgentService creates a new AgentService.
func NewAgentService(db *mongo.Database) IAgentService {
	return &agentService{db: db}
}

// CreateAgent creates a new agent account with a hashed password.
func (s *agentService) CreateAgent(ctx context.Context, name, email, phone, password string) (*models.Agent, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("agent email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash agent password: %w", err)
	}

	collection := s.db.Collection(agentsCollection)
	now := time.Now().UTC()
	agent := &models.Agent{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Deleted:      false,
	}

	operation := func() error {
		agent.ID = primitive.NewObjectID().Hex()
		_, insertErr := collection.InsertOne(ctx, agent)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, fmt.Errorf("agent with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to insert agent %s after multiple retries: %w", email, err)
	}
	return agent, nil
}

// FindAgentByID finds a non-deleted agent.
func (s *agentService) FindAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	err := s.db.Collection(agentsCollection).FindOne(ctx, filter).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding agent by ID %s: %w", id, err)
	}
	return &agent, nil
}

// FindAgentByEmail finds a non-deleted agent by email, for login.
func (s *agentService) FindAgentByEmail(ctx context.Context, email string) (*models.Agent, error) {
	var agent models.Agent
	filter := bson.M{"email": email, "deleted": bson.M{"$ne": true}}
	err := s.db.Collection(agentsCollection).FindOne(ctx, filter).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding agent by email: %w", err)
	}
	return &agent, nil
}

// ListAgents returns all non-deleted agents, newest first.
func (s *agentService) ListAgents(ctx context.Context) ([]models.Agent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(agentsCollection).Find(ctx, bson.M{"deleted": bson.M{"$ne": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing agents: %w", err)
	}
	defer cursor.Close(ctx)

	agents := []models.Agent{}
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}
	return agents, nil
}

// UpdateAgent applies a partial update. Passwords are re-hashed when passed
// under the "password" key.
func (s *agentService) UpdateAgent(ctx context.Context, id string, updates map[string]interface{}) (*models.Agent, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "email", "phone", "active":
			allowedUpdates[key] = value
		case "password":
			plain, ok := value.(string)
			if !ok || plain == "" {
				return nil, fmt.Errorf("password must be a non-empty string")
			}
			hash, err := auth.HashPassword(plain)
			if err != nil {
				return nil, fmt.Errorf("failed to hash agent password: %w", err)
			}
			allowedUpdates["password"] = hash
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateAgent", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Agent
	err := s.db.Collection(agentsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update agent %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteAgent soft-deletes an agent account. Their assigned inquiries keep
// the agent reference for history.
func (s *agentService) DeleteAgent(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"deleted": true, "active": false, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(agentsCollection).UpdateOne(ctx, bson.M{"_id": id, "deleted": bson.M{"$ne": true}}, update)
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

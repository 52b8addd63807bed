// Package identity resolves an agent identifier against the two collaborator
// stores. Agents normally live in the agents collection, but older deployments
// created some of them as back-office users, so both are consulted.
package identity

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// ErrNotFound is returned when no identity store knows the identifier.
var ErrNotFound = errors.New("identity not found")

// Identity is the resolved view of a collaborator, independent of which
// store it came from.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// IResolver defines the interface for resolving a collaborator identifier.
type IResolver interface {
	Resolve(ctx context.Context, id string) (*Identity, error)
}

// agentResolver resolves against the agents collection.
type agentResolver struct {
	db *mongo.Database
}

// NewAgentResolver creates a resolver backed by the agents collection.
func NewAgentResolver(db *mongo.Database) IResolver {
	return &agentResolver{db: db}
}

func (r *agentResolver) Resolve(ctx context.Context, id string) (*Identity, error) {
	var agent models.Agent
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	err := r.db.Collection("agents").FindOne(ctx, filter).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Identity{ID: agent.ID, Name: agent.Name, Email: agent.Email}, nil
}

// userResolver resolves against the back-office users collection.
type userResolver struct {
	db *mongo.Database
}

// NewUserResolver creates a resolver backed by the users collection.
func NewUserResolver(db *mongo.Database) IResolver {
	return &userResolver{db: db}
}

func (r *userResolver) Resolve(ctx context.Context, id string) (*Identity, error) {
	var user models.User
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	err := r.db.Collection("users").FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Identity{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Chain tries each resolver in order and returns the first hit. A store
// error stops the chain; only ErrNotFound falls through to the next.
type Chain []IResolver

// NewChain creates the default agents-then-users resolver chain.
func NewChain(db *mongo.Database) Chain {
	return Chain{NewAgentResolver(db), NewUserResolver(db)}
}

func (c Chain) Resolve(ctx context.Context, id string) (*Identity, error) {
	for _, r := range c {
		ident, err := r.Resolve(ctx, id)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

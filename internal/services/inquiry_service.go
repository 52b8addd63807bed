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

	"github.com/Abdullah7175/mustafabackend/internal/db"
	"github.com/Abdullah7175/mustafabackend/internal/ident"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// InquiryIdentifier is the projected identifier pair of a stored inquiry,
// used for dedup key construction.
type InquiryIdentifier struct {
	ID         string `bson:"_id"`
	ExternalID string `bson:"external_id,omitempty"`
}

// IInquiryService defines the interface for inquiry store operations.
type IInquiryService interface {
	CreateInquiry(ctx context.Context, inq *models.Inquiry) (*models.Inquiry, error)
	FindByLocalID(ctx context.Context, id string) (*models.Inquiry, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Inquiry, error)
	FindByRef(ctx context.Context, identifier string) (*models.Inquiry, error)
	ListAssigned(ctx context.Context) ([]models.Inquiry, error)
	ListByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error)
	ListIdentifiers(ctx context.Context) ([]InquiryIdentifier, error)
	UpdateInquiry(ctx context.Context, id string, ownedBy *string, updates map[string]interface{}) (*models.Inquiry, error)
	AppendResponse(ctx context.Context, id string, ownedBy *string, resp models.InquiryResponse) (*models.Inquiry, error)
	AssignConditional(ctx context.Context, id, agentID string) (*models.Inquiry, error)
	DeleteInquiry(ctx context.Context, id string) error
}

const inquiriesCollection = "inquiries"

// ErrStatusRegression is returned when an update would clear the status or
// return it to pending. Pending is reserved for unassigned inquiries; once an
// agent holds one there is no way back.
var ErrStatusRegression = errors.New("inquiry status cannot be cleared or returned to pending")

// inquiryService implements IInquiryService.
type inquiryService struct {
	db *mongo.Database
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database) IInquiryService {
	return &inquiryService{db: db}
}

// CreateInquiry inserts a new inquiry document. When no ID is carried in
// (public submission) a fresh local identifier is generated; the external_id
// unique index rejects a second sync of the same upstream record.
func (s *inquiryService) CreateInquiry(ctx context.Context, inq *models.Inquiry) (*models.Inquiry, error) {
	collection := s.db.Collection(inquiriesCollection)
	now := time.Now().UTC()

	if inq.Status == "" {
		inq.Status = models.InquiryStatusPending
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = now
	}
	inq.UpdatedAt = now
	if inq.Responses == nil {
		inq.Responses = []models.InquiryResponse{}
	}

	operation := func() error {
		if inq.ID == "" {
			inq.ID = primitive.NewObjectID().Hex()
		}
		_, insertErr := collection.InsertOne(ctx, inq)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry (external id %q) after multiple retries: %w", inq.ExternalID, err)
	}
	return inq, nil
}

// FindByLocalID finds an inquiry by its store identifier.
func (s *inquiryService) FindByLocalID(ctx context.Context, id string) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&inq)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry by ID %s: %w", id, err)
	}
	return &inq, nil
}

// FindByExternalID finds an inquiry by its upstream identifier.
func (s *inquiryService) FindByExternalID(ctx context.Context, externalID string) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOne(ctx, bson.M{"external_id": externalID}).Decode(&inq)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry by external ID %s: %w", externalID, err)
	}
	return &inq, nil
}

// FindByRef resolves an identifier that may be either a local ID or an
// upstream one: local lookup first when the shape matches, then external.
func (s *inquiryService) FindByRef(ctx context.Context, identifier string) (*models.Inquiry, error) {
	if ident.IsLocalHex(identifier) {
		inq, err := s.FindByLocalID(ctx, identifier)
		if err == nil {
			return inq, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}
	return s.FindByExternalID(ctx, identifier)
}

// ListAssigned returns all inquiries with an assigned agent, newest first.
func (s *inquiryService) ListAssigned(ctx context.Context) ([]models.Inquiry, error) {
	filter := bson.M{"assigned_agent": bson.M{"$nin": bson.A{nil, ""}}}
	return s.list(ctx, filter)
}

// ListByAgent returns the inquiries assigned to one agent, newest first.
func (s *inquiryService) ListByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error) {
	return s.list(ctx, bson.M{"assigned_agent": agentID})
}

func (s *inquiryService) list(ctx context.Context, filter bson.M) ([]models.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding inquiries: %w", err)
	}
	return inquiries, nil
}

// ListIdentifiers returns the identifier pair of every stored inquiry,
// projected to keep the dedup scan cheap.
func (s *inquiryService) ListIdentifiers(ctx context.Context) ([]InquiryIdentifier, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "external_id": 1})
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing inquiry identifiers: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []InquiryIdentifier{}
	if err := cursor.All(ctx, &ids); err != nil {
		return nil, fmt.Errorf("error decoding inquiry identifiers: %w", err)
	}
	return ids, nil
}

// UpdateInquiry applies a partial update. Only status and assignment may be
// changed this way; ownedBy, when set, restricts the update to inquiries
// assigned to that agent. Status updates that would regress to pending are
// rejected with ErrStatusRegression.
func (s *inquiryService) UpdateInquiry(ctx context.Context, id string, ownedBy *string, updates map[string]interface{}) (*models.Inquiry, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "status":
			label, _ := value.(string)
			if label == "" || label == models.InquiryStatusPending {
				return nil, ErrStatusRegression
			}
			allowedUpdates[key] = label
		case "assigned_agent":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateInquiry", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	filter := bson.M{"_id": id}
	if ownedBy != nil {
		filter["assigned_agent"] = *ownedBy
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update inquiry %s: %w", id, err)
	}
	return &updated, nil
}

// AppendResponse appends a response message to the inquiry's thread.
func (s *inquiryService) AppendResponse(ctx context.Context, id string, ownedBy *string, resp models.InquiryResponse) (*models.Inquiry, error) {
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"_id": id}
	if ownedBy != nil {
		filter["assigned_agent"] = *ownedBy
	}
	update := bson.M{
		"$push": bson.M{"responses": resp},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to append response to inquiry %s: %w", id, err)
	}
	return &updated, nil
}

// AssignConditional sets the assigned agent and advances a pending inquiry
// to in-progress. The status write is conditional on the current status so
// reassigning an in-progress inquiry never regresses it.
func (s *inquiryService) AssignConditional(ctx context.Context, id, agentID string) (*models.Inquiry, error) {
	collection := s.db.Collection(inquiriesCollection)
	now := time.Now().UTC()

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InquiryStatusPending},
		bson.M{"$set": bson.M{
			"assigned_agent": agentID,
			"status":         models.InquiryStatusInProgress,
			"updated_at":     now,
		}})
	if err != nil {
		return nil, fmt.Errorf("db error assigning inquiry %s: %w", id, err)
	}

	if result.MatchedCount == 0 {
		// Not pending (or gone). Set the agent without touching status.
		result, err = collection.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"assigned_agent": agentID,
				"updated_at":     now,
			}})
		if err != nil {
			return nil, fmt.Errorf("db error assigning inquiry %s: %w", id, err)
		}
		if result.MatchedCount == 0 {
			return nil, mongo.ErrNoDocuments
		}
	}

	return s.FindByLocalID(ctx, id)
}

// DeleteInquiry removes the inquiry document permanently.
func (s *inquiryService) DeleteInquiry(ctx context.Context, id string) error {
	result, err := s.db.Collection(inquiriesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete inquiry %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

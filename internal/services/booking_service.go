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
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// IBookingService defines the interface for booking operations.
type IBookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindBookingByID(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListByAgent(ctx context.Context, agentID string) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, id string, updates map[string]interface{}) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	FindOrphans(ctx context.Context, olderThan time.Duration) ([]models.Booking, error)
}

const bookingsCollection = "bookings"

// bookingService implements IBookingService.
type bookingService struct {
	db *mongo.Database
}

// NewBookingService creates a new BookingService.
func NewBookingService(db *mongo.Database) IBookingService {
	return &bookingService{db: db}
}

// CreateBooking inserts a new booking document.
func (s *bookingService) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	collection := s.db.Collection(bookingsCollection)
	now := time.Now().UTC()

	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	if booking.ApprovalStatus == "" {
		booking.ApprovalStatus = models.ApprovalPending
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	operation := func() error {
		booking.ID = primitive.NewObjectID().Hex()
		_, insertErr := collection.InsertOne(ctx, booking)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert booking for agent %s after multiple retries: %w", booking.AgentID, err)
	}
	return booking, nil
}

// FindBookingByID finds a non-deleted booking.
func (s *bookingService) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	err := s.db.Collection(bookingsCollection).FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding booking by ID %s: %w", id, err)
	}
	return &booking, nil
}

// ListBookings returns all non-deleted bookings, newest first.
func (s *bookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return s.list(ctx, bson.M{"deleted": bson.M{"$ne": true}})
}

// ListByAgent returns the bookings assigned to one agent, newest first.
func (s *bookingService) ListByAgent(ctx context.Context, agentID string) ([]models.Booking, error) {
	return s.list(ctx, bson.M{"agent_id": agentID, "deleted": bson.M{"$ne": true}})
}

func (s *bookingService) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(bookingsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBooking applies a partial update to the mutable booking fields.
func (s *bookingService) UpdateBooking(ctx context.Context, id string, updates map[string]interface{}) (*models.Booking, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "status", "approval_status", "agent_id", "travellers", "price", "currency", "package_name":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateBooking", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := s.db.Collection(bookingsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteBooking soft-deletes a booking.
func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(bookingsCollection).UpdateOne(ctx, bson.M{"_id": id, "deleted": bson.M{"$ne": true}}, update)
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindOrphans returns bookings older than the cutoff whose linked inquiry is
// missing or was never marked assigned. These come from the assignment flow's
// two independent writes: the booking insert can succeed while the inquiry
// save fails.
func (s *bookingService) FindOrphans(ctx context.Context, olderThan time.Duration) ([]models.Booking, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	filter := bson.M{
		"deleted":    bson.M{"$ne": true},
		"created_at": bson.M{"$lt": cutoff},
		"inquiry_id": bson.M{"$nin": bson.A{nil, ""}},
	}

	cursor, err := s.db.Collection(bookingsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error scanning for orphan bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []models.Booking
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("error decoding orphan candidates: %w", err)
	}

	orphans := []models.Booking{}
	inquiries := s.db.Collection(inquiriesCollection)
	for _, b := range candidates {
		var inq models.Inquiry
		err := inquiries.FindOne(ctx, bson.M{"_id": b.InquiryID}).Decode(&inq)
		if errors.Is(err, mongo.ErrNoDocuments) {
			orphans = append(orphans, b)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error checking inquiry %s for booking %s: %w", b.InquiryID, b.ID, err)
		}
		if inq.AssignedAgent == nil || *inq.AssignedAgent == "" {
			orphans = append(orphans, b)
		}
	}
	return orphans, nil
}

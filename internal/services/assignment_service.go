package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// ErrNeedsSync is returned when the inquiry identifier is unknown to both
// the store and the caller-supplied fallback data; the caller must refresh
// from the external source before retrying.
var ErrNeedsSync = errors.New("inquiry not found, needs sync from external source")

// ErrAgentNotFound is returned when the agent identifier resolves in neither
// identity store.
var ErrAgentNotFound = errors.New("agent not found")

// AssignmentResult is the outcome of a successful assignment, including the
// agent identity resolved from whichever store matched.
type AssignmentResult struct {
	Inquiry    *models.Inquiry
	AgentName  string
	AgentEmail string
}

// IAssignmentService defines the interface for the assignment workflow.
type IAssignmentService interface {
	Assign(ctx context.Context, inquiryIdentifier, agentIdentifier string, createBooking *bool, fallback *models.Inquiry) (*AssignmentResult, error)
}

// assignmentService implements IAssignmentService.
type assignmentService struct {
	inquiries IInquiryService
	bookings  IBookingService
	resolver  identity.IResolver
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(inquiries IInquiryService, bookings IBookingService, resolver identity.IResolver) IAssignmentService {
	return &assignmentService{inquiries: inquiries, bookings: bookings, resolver: resolver}
}

// Assign hands an inquiry to an agent. The inquiry is located by local ID,
// then by external ID, then materialized from the caller's fallback copy of
// the external record. Unless createBooking is explicitly false a Booking is
// created as a best-effort side effect; its failure never aborts the
// assignment itself.
func (s *assignmentService) Assign(ctx context.Context, inquiryIdentifier, agentIdentifier string, createBooking *bool, fallback *models.Inquiry) (*AssignmentResult, error) {
	agent, err := s.resolver.Resolve(ctx, agentIdentifier)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to resolve agent %s: %w", agentIdentifier, err)
	}

	inquiry, err := s.locateInquiry(ctx, inquiryIdentifier, fallback)
	if err != nil {
		return nil, err
	}

	if createBooking == nil || *createBooking {
		s.createBookingBestEffort(ctx, inquiry, agent.ID)
	}

	updated, err := s.inquiries.AssignConditional(ctx, inquiry.ID, agent.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNeedsSync
		}
		return nil, fmt.Errorf("failed to save assignment for inquiry %s: %w", inquiry.ID, err)
	}

	return &AssignmentResult{
		Inquiry:    updated,
		AgentName:  agent.Name,
		AgentEmail: agent.Email,
	}, nil
}

// locateInquiry resolves the target inquiry, materializing it from the
// fallback external record when the store has never seen it.
func (s *assignmentService) locateInquiry(ctx context.Context, identifier string, fallback *models.Inquiry) (*models.Inquiry, error) {
	inquiry, err := s.inquiries.FindByRef(ctx, identifier)
	if err == nil {
		return inquiry, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up inquiry %s: %w", identifier, err)
	}

	if fallback == nil {
		return nil, ErrNeedsSync
	}

	// Materialize from the caller's cached copy of the external record. A
	// fresh local ID is generated; the upstream identifier goes in
	// external_id where the dedup scan expects it.
	materialized := &models.Inquiry{
		ExternalID:     identifier,
		CustomerName:   fallback.CustomerName,
		CustomerEmail:  fallback.CustomerEmail,
		CustomerPhone:  fallback.CustomerPhone,
		Message:        fallback.Message,
		PackageDetails: fallback.PackageDetails,
		Status:         models.InquiryStatusPending,
	}
	created, err := s.inquiries.CreateInquiry(ctx, materialized)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize inquiry %s from fallback data: %w", identifier, err)
	}
	return created, nil
}

// createBookingBestEffort creates the side-effect booking. Failure is logged
// and swallowed.
func (s *assignmentService) createBookingBestEffort(ctx context.Context, inquiry *models.Inquiry, agentID string) {
	booking := &models.Booking{
		InquiryID:      inquiry.ID,
		CustomerName:   inquiry.CustomerName,
		CustomerEmail:  inquiry.CustomerEmail,
		CustomerPhone:  inquiry.CustomerPhone,
		AgentID:        agentID,
		PackageDetails: inquiry.PackageDetails,
	}
	if inquiry.PackageDetails != nil {
		booking.PackageName = inquiry.PackageDetails.PackageName
	}

	if _, err := s.bookings.CreateBooking(ctx, booking); err != nil {
		log.Printf("WARN: Booking creation failed during assignment of inquiry %s to agent %s: %v", inquiry.ID, agentID, err)
	}
}

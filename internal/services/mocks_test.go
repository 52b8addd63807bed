package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// --- Mock IInquiryService ---

type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) CreateInquiry(ctx context.Context, inq *models.Inquiry) (*models.Inquiry, error) {
	args := m.Called(ctx, inq)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) FindByLocalID(ctx context.Context, id string) (*models.Inquiry, error) {
	args := m.Called(ctx, id)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) FindByExternalID(ctx context.Context, externalID string) (*models.Inquiry, error) {
	args := m.Called(ctx, externalID)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) FindByRef(ctx context.Context, identifier string) (*models.Inquiry, error) {
	args := m.Called(ctx, identifier)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) ListAssigned(ctx context.Context) ([]models.Inquiry, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) ListByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error) {
	args := m.Called(ctx, agentID)
	if res, ok := args.Get(0).([]models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) ListIdentifiers(ctx context.Context) ([]InquiryIdentifier, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]InquiryIdentifier); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) UpdateInquiry(ctx context.Context, id string, ownedBy *string, updates map[string]interface{}) (*models.Inquiry, error) {
	args := m.Called(ctx, id, ownedBy, updates)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) AppendResponse(ctx context.Context, id string, ownedBy *string, resp models.InquiryResponse) (*models.Inquiry, error) {
	args := m.Called(ctx, id, ownedBy, resp)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) AssignConditional(ctx context.Context, id, agentID string) (*models.Inquiry, error) {
	args := m.Called(ctx, id, agentID)
	if res, ok := args.Get(0).(*models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInquiryService) DeleteInquiry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock IBookingService ---

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	args := m.Called(ctx, booking)
	if res, ok := args.Get(0).(*models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if res, ok := args.Get(0).(*models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) ListByAgent(ctx context.Context, agentID string) ([]models.Booking, error) {
	args := m.Called(ctx, agentID)
	if res, ok := args.Get(0).([]models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) UpdateBooking(ctx context.Context, id string, updates map[string]interface{}) (*models.Booking, error) {
	args := m.Called(ctx, id, updates)
	if res, ok := args.Get(0).(*models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) DeleteBooking(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingService) FindOrphans(ctx context.Context, olderThan time.Duration) ([]models.Booking, error) {
	args := m.Called(ctx, olderThan)
	if res, ok := args.Get(0).([]models.Booking); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Mock extsource.IFetcher ---

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) ([]models.Inquiry, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Mock identity.IResolver ---

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, id string) (*identity.Identity, error) {
	args := m.Called(ctx, id)
	if res, ok := args.Get(0).(*identity.Identity); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

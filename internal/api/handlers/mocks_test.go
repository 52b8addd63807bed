package handlers_test

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/models"
	"github.com/Abdullah7175/mustafabackend/internal/services"
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

func (m *MockInquiryService) ListIdentifiers(ctx context.Context) ([]services.InquiryIdentifier, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]services.InquiryIdentifier); ok {
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

// --- Mock IReconcileService ---

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ListForCaller(ctx context.Context, callerID, role string) ([]models.Inquiry, error) {
	args := m.Called(ctx, callerID, role)
	if res, ok := args.Get(0).([]models.Inquiry); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Mock IAssignmentService ---

type MockAssignmentService struct {
	mock.Mock
}

func (m *MockAssignmentService) Assign(ctx context.Context, inquiryIdentifier, agentIdentifier string, createBooking *bool, fallback *models.Inquiry) (*services.AssignmentResult, error) {
	args := m.Called(ctx, inquiryIdentifier, agentIdentifier, createBooking, fallback)
	if res, ok := args.Get(0).(*services.AssignmentResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
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

// --- Mock IAgentService ---

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) CreateAgent(ctx context.Context, name, email, phone, password string) (*models.Agent, error) {
	args := m.Called(ctx, name, email, phone, password)
	if res, ok := args.Get(0).(*models.Agent); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) FindAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if res, ok := args.Get(0).(*models.Agent); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) FindAgentByEmail(ctx context.Context, email string) (*models.Agent, error) {
	args := m.Called(ctx, email)
	if res, ok := args.Get(0).(*models.Agent); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) ListAgents(ctx context.Context) ([]models.Agent, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).([]models.Agent); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) UpdateAgent(ctx context.Context, id string, updates map[string]interface{}) (*models.Agent, error) {
	args := m.Called(ctx, id, updates)
	if res, ok := args.Get(0).(*models.Agent); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) DeleteAgent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock IUserService ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, name, email, password string, isAdmin bool) (*models.User, error) {
	args := m.Called(ctx, name, email, password, isAdmin)
	if res, ok := args.Get(0).(*models.User); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if res, ok := args.Get(0).(*models.User); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if res, ok := args.Get(0).(*models.User); ok {
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

// --- Mock storage.IInvoiceArchive ---

type MockInvoiceArchive struct {
	mock.Mock
}

func (m *MockInvoiceArchive) ArchiveInvoice(ctx context.Context, bookingID string, pdfData []byte) (string, error) {
	args := m.Called(ctx, bookingID, pdfData)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceArchive) GeneratePresignedGetURL(ctx context.Context, objectKey string) (string, error) {
	args := m.Called(ctx, objectKey)
	return args.String(0), args.Error(1)
}

// --- Mock webhook.Notifier ---

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	args := m.Called(ctx, inquiry)
	return args.Error(0)
}

// --- Mock handlers.TaskEnqueuer ---

type MockTaskEnqueuer struct {
	mock.Mock
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task)
	if res, ok := args.Get(0).(*asynq.TaskInfo); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

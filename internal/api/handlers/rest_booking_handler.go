package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/config"
	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/models"
	"github.com/Abdullah7175/mustafabackend/internal/pdf"
	"github.com/Abdullah7175/mustafabackend/internal/services"
	"github.com/Abdullah7175/mustafabackend/internal/storage"
	"github.com/Abdullah7175/mustafabackend/internal/tasks"
)

// RestBookingHandler handles REST requests for bookings.
type RestBookingHandler struct {
	cfg            *config.Config
	bookingService services.IBookingService
	resolver       identity.IResolver
	archive        storage.IInvoiceArchive
	taskClient     TaskEnqueuer
}

// NewRestBookingHandler creates a new RestBookingHandler.
func NewRestBookingHandler(
	cfg *config.Config,
	bookingService services.IBookingService,
	resolver identity.IResolver,
	archive storage.IInvoiceArchive,
	taskClient TaskEnqueuer,
) *RestBookingHandler {
	return &RestBookingHandler{
		cfg:            cfg,
		bookingService: bookingService,
		resolver:       resolver,
		archive:        archive,
		taskClient:     taskClient,
	}
}

// ListBookings handles GET /v1/bookings. Admins see everything; agents see
// their own.
func (h *RestBookingHandler) ListBookings(c *gin.Context) {
	userID, role := callerFromContext(c)

	var bookings []models.Booking
	var err error
	if role == auth.RoleAdmin {
		bookings, err = h.bookingService.ListBookings(c.Request.Context())
	} else {
		bookings, err = h.bookingService.ListByAgent(c.Request.Context(), userID)
	}
	if err != nil {
		log.Printf("Error listing bookings for %s (%s): %v", userID, role, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *RestBookingHandler) GetBooking(c *gin.Context) {
	booking, ok := h.loadBookingForCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *RestBookingHandler) loadBookingForCaller(c *gin.Context) (*models.Booking, bool) {
	userID, role := callerFromContext(c)

	booking, err := h.bookingService.FindBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booking"})
		return nil, false
	}
	if role != auth.RoleAdmin && booking.AgentID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Booking is not assigned to you"})
		return nil, false
	}
	return booking, true
}

type createBookingRequest struct {
	InquiryID      string                 `json:"inquiryId"`
	PackageName    string                 `json:"packageName"`
	PackageDetails *models.PackageDetails `json:"packageDetails"`
	CustomerName   string                 `json:"customerName" binding:"required"`
	CustomerEmail  string                 `json:"customerEmail"`
	CustomerPhone  string                 `json:"customerPhone"`
	AgentID        string                 `json:"agentId" binding:"required"`
	Travellers     int                    `json:"travellers"`
	Price          float64                `json:"price"`
	Currency       string                 `json:"currency"`
}

// CreateBooking handles POST /v1/bookings (admin only).
func (h *RestBookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerName and agentId are required"})
		return
	}

	if _, err := h.resolver.Resolve(c.Request.Context(), req.AgentID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve agent"})
		return
	}

	booking := &models.Booking{
		InquiryID:      req.InquiryID,
		PackageName:    req.PackageName,
		PackageDetails: req.PackageDetails,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		AgentID:        req.AgentID,
		Travellers:     req.Travellers,
		Price:          req.Price,
		Currency:       req.Currency,
	}
	created, err := h.bookingService.CreateBooking(c.Request.Context(), booking)
	if err != nil {
		log.Printf("Error creating booking: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type updateBookingRequest struct {
	Status         *string  `json:"status"`
	ApprovalStatus *string  `json:"approvalStatus"`
	AgentID        *string  `json:"agentId"`
	Travellers     *int     `json:"travellers"`
	Price          *float64 `json:"price"`
	Currency       *string  `json:"currency"`
	PackageName    *string  `json:"packageName"`
}

// UpdateBooking handles PUT /v1/bookings/:id (admin only).
func (h *RestBookingHandler) UpdateBooking(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload"})
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ApprovalStatus != nil {
		updates["approval_status"] = *req.ApprovalStatus
	}
	if req.AgentID != nil {
		updates["agent_id"] = *req.AgentID
	}
	if req.Travellers != nil {
		updates["travellers"] = *req.Travellers
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.PackageName != nil {
		updates["package_name"] = *req.PackageName
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	updated, err := h.bookingService.UpdateBooking(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		log.Printf("Error updating booking %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBooking handles DELETE /v1/bookings/:id (admin only).
func (h *RestBookingHandler) DeleteBooking(c *gin.Context) {
	err := h.bookingService.DeleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		log.Printf("Error deleting booking %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetInvoice handles GET /v1/bookings/:id/invoice.pdf. Renders the PDF inline;
// a copy is archived to S3 when that is configured.
func (h *RestBookingHandler) GetInvoice(c *gin.Context) {
	booking, ok := h.loadBookingForCaller(c)
	if !ok {
		return
	}

	agentName := ""
	if ident, err := h.resolver.Resolve(c.Request.Context(), booking.AgentID); err == nil {
		agentName = ident.Name
	}

	data, err := pdf.RenderInvoice(booking, pdf.InvoiceOptions{
		AgencyName: h.cfg.AppName,
		TaxRate:    h.cfg.InvoiceTaxRate,
		AgentName:  agentName,
	})
	if err != nil {
		log.Printf("Error rendering invoice for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render invoice"})
		return
	}

	if h.archive != nil {
		if key, err := h.archive.ArchiveInvoice(c.Request.Context(), booking.ID, data); err != nil {
			log.Printf("WARN: Failed to archive invoice for booking %s: %v", booking.ID, err)
		} else if key != "" {
			c.Header("X-Invoice-Archive-Key", key)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=INV-%s.pdf", booking.ID))
	c.Data(http.StatusOK, "application/pdf", data)
}

// TriggerOrphanSweep handles POST /v1/admin/tasks/orphan-sweep (admin only).
// The sweep itself runs on the worker.
func (h *RestBookingHandler) TriggerOrphanSweep(c *gin.Context) {
	if h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue not available"})
		return
	}
	info, err := h.taskClient.Enqueue(tasks.NewOrphanSweepTask())
	if err != nil {
		log.Printf("Error enqueueing orphan sweep: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue orphan sweep"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"taskId": info.ID})
}

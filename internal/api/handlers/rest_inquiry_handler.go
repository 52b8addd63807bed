package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/api/middleware"
	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/models"
	"github.com/Abdullah7175/mustafabackend/internal/services"
	"github.com/Abdullah7175/mustafabackend/internal/tasks"
	"github.com/Abdullah7175/mustafabackend/internal/webhook"
)

// TaskEnqueuer is the subset of the asynq client used by handlers.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RestInquiryHandler handles REST requests for inquiries.
type RestInquiryHandler struct {
	inquiryService    services.IInquiryService
	reconcileService  services.IReconcileService
	assignmentService services.IAssignmentService
	resolver          identity.IResolver
	notifier          webhook.Notifier
	taskClient        TaskEnqueuer
}

// NewRestInquiryHandler creates a new RestInquiryHandler.
func NewRestInquiryHandler(
	inquiryService services.IInquiryService,
	reconcileService services.IReconcileService,
	assignmentService services.IAssignmentService,
	resolver identity.IResolver,
	notifier webhook.Notifier,
	taskClient TaskEnqueuer,
) *RestInquiryHandler {
	return &RestInquiryHandler{
		inquiryService:    inquiryService,
		reconcileService:  reconcileService,
		assignmentService: assignmentService,
		resolver:          resolver,
		notifier:          notifier,
		taskClient:        taskClient,
	}
}

func callerFromContext(c *gin.Context) (string, string) {
	userID := c.GetString(middleware.ContextKeyUserID)
	role := c.GetString(middleware.ContextKeyRole)
	return userID, role
}

// ListInquiries handles GET /v1/inquiries.
func (h *RestInquiryHandler) ListInquiries(c *gin.Context) {
	userID, role := callerFromContext(c)

	inquiries, err := h.reconcileService.ListForCaller(c.Request.Context(), userID, role)
	if err != nil {
		log.Printf("Error listing inquiries for %s (%s): %v", userID, role, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// GetInquiry handles GET /v1/inquiries/:id. The identifier may be a local or
// an external one. Agents may only fetch their own assigned inquiries.
func (h *RestInquiryHandler) GetInquiry(c *gin.Context) {
	userID, role := callerFromContext(c)

	inquiry, err := h.inquiryService.FindByRef(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiry"})
		return
	}

	if role != auth.RoleAdmin {
		if inquiry.AssignedAgent == nil || *inquiry.AssignedAgent != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Inquiry is not assigned to you"})
			return
		}
	}
	c.JSON(http.StatusOK, inquiry)
}

type createInquiryRequest struct {
	CustomerName   string                 `json:"customerName" binding:"required"`
	CustomerEmail  string                 `json:"customerEmail" binding:"required,email"`
	CustomerPhone  string                 `json:"customerPhone"`
	Message        string                 `json:"message"`
	PackageDetails *models.PackageDetails `json:"packageDetails"`
}

// CreateInquiry handles POST /v1/inquiries (public submission). Delivery of
// the outbound webhook runs as a background task so the submitter is never
// held up by a slow receiver.
func (h *RestInquiryHandler) CreateInquiry(c *gin.Context) {
	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer name and a valid email are required"})
		return
	}

	inquiry := &models.Inquiry{
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Message:        req.Message,
		PackageDetails: req.PackageDetails,
	}
	created, err := h.inquiryService.CreateInquiry(c.Request.Context(), inquiry)
	if err != nil {
		log.Printf("Error creating inquiry: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create inquiry"})
		return
	}

	h.enqueueWebhook(created.ID)

	c.JSON(http.StatusCreated, created)
}

func (h *RestInquiryHandler) enqueueWebhook(inquiryID string) {
	if h.taskClient == nil {
		return
	}
	task, err := tasks.NewWebhookDeliverTask(inquiryID)
	if err != nil {
		log.Printf("WARN: Failed to build webhook task for inquiry %s: %v", inquiryID, err)
		return
	}
	if _, err := h.taskClient.Enqueue(task); err != nil {
		log.Printf("WARN: Failed to enqueue webhook task for inquiry %s: %v", inquiryID, err)
	}
}

type assignInquiryRequest struct {
	AgentID             string               `json:"agentId" binding:"required"`
	CreateBooking       *bool                `json:"createBooking"`
	FallbackInquiryData *fallbackInquiryData `json:"fallbackInquiryData"`
}

type fallbackInquiryData struct {
	CustomerName   string                 `json:"customerName"`
	CustomerEmail  string                 `json:"customerEmail"`
	CustomerPhone  string                 `json:"customerPhone"`
	Message        string                 `json:"message"`
	PackageDetails *models.PackageDetails `json:"packageDetails"`
}

// AssignInquiry handles PUT /v1/inquiries/:id/assign (admin only).
func (h *RestInquiryHandler) AssignInquiry(c *gin.Context) {
	var req assignInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agentId is required"})
		return
	}

	var fallback *models.Inquiry
	if req.FallbackInquiryData != nil {
		fallback = &models.Inquiry{
			CustomerName:   req.FallbackInquiryData.CustomerName,
			CustomerEmail:  req.FallbackInquiryData.CustomerEmail,
			CustomerPhone:  req.FallbackInquiryData.CustomerPhone,
			Message:        req.FallbackInquiryData.Message,
			PackageDetails: req.FallbackInquiryData.PackageDetails,
		}
	}

	result, err := h.assignmentService.Assign(c.Request.Context(), c.Param("id"), req.AgentID, req.CreateBooking, fallback)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAgentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		case errors.Is(err, services.ErrNeedsSync):
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found, needs sync from external source"})
		default:
			log.Printf("Error assigning inquiry %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign inquiry"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inquiry": result.Inquiry,
		"agent": gin.H{
			"id":    *result.Inquiry.AssignedAgent,
			"name":  result.AgentName,
			"email": result.AgentEmail,
		},
	})
}

type updateInquiryRequest struct {
	Status        *string `json:"status"`
	AssignedAgent *string `json:"assignedAgent"`
}

// UpdateInquiry handles PUT /v1/inquiries/:id. Agents may update the status
// of their own inquiries; admins may update status and assignment.
func (h *RestInquiryHandler) UpdateInquiry(c *gin.Context) {
	userID, role := callerFromContext(c)

	var req updateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload"})
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.AssignedAgent != nil {
		if role != auth.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators may change assignment"})
			return
		}
		updates["assigned_agent"] = *req.AssignedAgent
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	var ownedBy *string
	if role != auth.RoleAdmin {
		ownedBy = &userID
	}

	updated, err := h.inquiryService.UpdateInquiry(c.Request.Context(), c.Param("id"), ownedBy, updates)
	if err != nil {
		if errors.Is(err, services.ErrStatusRegression) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status cannot be cleared or set back to pending"})
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found or not assigned to you"})
			return
		}
		log.Printf("Error updating inquiry %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inquiry"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type appendResponseRequest struct {
	Message string `json:"message" binding:"required"`
}

// AppendResponse handles POST /v1/inquiries/:id/responses.
func (h *RestInquiryHandler) AppendResponse(c *gin.Context) {
	userID, role := callerFromContext(c)

	var req appendResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	authorName := ""
	if ident, err := h.resolver.Resolve(c.Request.Context(), userID); err == nil {
		authorName = ident.Name
	}

	var ownedBy *string
	if role != auth.RoleAdmin {
		ownedBy = &userID
	}

	updated, err := h.inquiryService.AppendResponse(c.Request.Context(), c.Param("id"), ownedBy, models.InquiryResponse{
		AuthorID:   userID,
		AuthorName: authorName,
		Message:    req.Message,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found or not assigned to you"})
			return
		}
		log.Printf("Error appending response to inquiry %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to append response"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteInquiry handles DELETE /v1/inquiries/:id (admin only).
func (h *RestInquiryHandler) DeleteInquiry(c *gin.Context) {
	err := h.inquiryService.DeleteInquiry(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		log.Printf("Error deleting inquiry %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inquiry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ForwardWebhook handles POST /v1/inquiries/:id/forward-webhook. Protected
// by a shared API key; re-sends the outbound notification synchronously so
// the operator sees the outcome.
func (h *RestInquiryHandler) ForwardWebhook(c *gin.Context) {
	inquiry, err := h.inquiryService.FindByRef(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiry"})
		return
	}

	if err := h.notifier.NotifyInquiry(c.Request.Context(), inquiry); err != nil {
		log.Printf("Error forwarding webhook for inquiry %s: %v", inquiry.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Webhook delivery failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forwarded": true})
}

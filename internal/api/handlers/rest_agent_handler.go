package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/services"
)

// RestAgentHandler handles REST requests for agent accounts (admin only).
type RestAgentHandler struct {
	agentService services.IAgentService
}

// NewRestAgentHandler creates a new RestAgentHandler.
func NewRestAgentHandler(agentService services.IAgentService) *RestAgentHandler {
	return &RestAgentHandler{agentService: agentService}
}

// ListAgents handles GET /v1/agents.
func (h *RestAgentHandler) ListAgents(c *gin.Context) {
	agents, err := h.agentService.ListAgents(c.Request.Context())
	if err != nil {
		log.Printf("Error listing agents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// GetAgent handles GET /v1/agents/:id.
func (h *RestAgentHandler) GetAgent(c *gin.Context) {
	agent, err := h.agentService.FindAgentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch agent"})
		return
	}
	c.JSON(http.StatusOK, agent)
}

type createAgentRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateAgent handles POST /v1/agents.
func (h *RestAgentHandler) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, a valid email and a password of at least 8 characters are required"})
		return
	}

	agent, err := h.agentService.CreateAgent(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, gin.H{"error": "An agent with this email already exists"})
			return
		}
		log.Printf("Error creating agent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create agent"})
		return
	}
	c.JSON(http.StatusCreated, agent)
}

type updateAgentRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

// UpdateAgent handles PUT /v1/agents/:id.
func (h *RestAgentHandler) UpdateAgent(c *gin.Context) {
	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	agent, err := h.agentService.UpdateAgent(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
		log.Printf("Error updating agent %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update agent"})
		return
	}
	c.JSON(http.StatusOK, agent)
}

// DeleteAgent handles DELETE /v1/agents/:id.
func (h *RestAgentHandler) DeleteAgent(c *gin.Context) {
	err := h.agentService.DeleteAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
		log.Printf("Error deleting agent %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete agent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/config"
	"github.com/Abdullah7175/mustafabackend/internal/services"
)

// RestAuthHandler handles login for back-office users and agents.
type RestAuthHandler struct {
	cfg          *config.Config
	userService  services.IUserService
	agentService services.IAgentService
}

// NewRestAuthHandler creates a new RestAuthHandler.
func NewRestAuthHandler(cfg *config.Config, userService services.IUserService, agentService services.IAgentService) *RestAuthHandler {
	return &RestAuthHandler{
		cfg:          cfg,
		userService:  userService,
		agentService: agentService,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login handles POST /v1/auth/login. Back-office users are checked first,
// then agent accounts; agents without admin flag always get the agent role.
func (h *RestAuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password are required"})
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.FindUserByEmail(ctx, req.Email)
	if err == nil {
		if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		role := auth.RoleAgent
		if user.IsAdmin {
			role = auth.RoleAdmin
		}
		h.issueToken(c, user.ID, user.Name, user.Email, role)
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	agent, err := h.agentService.FindAgentByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if !agent.Active || !auth.CheckPasswordHash(req.Password, agent.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.issueToken(c, agent.ID, agent.Name, agent.Email, auth.RoleAgent)
}

func (h *RestAuthHandler) issueToken(c *gin.Context, id, name, email, role string) {
	token, err := auth.GenerateJWT(id, role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Token: token,
		ID:    id,
		Name:  name,
		Email: email,
		Role:  role,
	})
}

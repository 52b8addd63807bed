package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdullah7175/mustafabackend/internal/api/handlers"
	"github.com/Abdullah7175/mustafabackend/internal/api/middleware"
	"github.com/Abdullah7175/mustafabackend/internal/config"
	"github.com/Abdullah7175/mustafabackend/internal/extsource"
	"github.com/Abdullah7175/mustafabackend/internal/identity"
	"github.com/Abdullah7175/mustafabackend/internal/services"
	"github.com/Abdullah7175/mustafabackend/internal/storage"
	"github.com/Abdullah7175/mustafabackend/internal/webhook"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.TaskEnqueuer) *gin.Engine {
	// Initialize services needed by API handlers
	inquiryService := services.NewInquiryService(db)
	bookingService := services.NewBookingService(db)
	agentService := services.NewAgentService(db)
	userService := services.NewUserService(db)
	resolver := identity.NewChain(db)

	fetcher := extsource.NewFetcher(cfg)
	reconcileService := services.NewReconcileService(inquiryService, fetcher)
	assignmentService := services.NewAssignmentService(inquiryService, bookingService, resolver)
	notifier := webhook.NewNotifier(cfg)

	invoiceArchive, err := storage.NewInvoiceArchive(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize invoice archive: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	authHandler := handlers.NewRestAuthHandler(cfg, userService, agentService)
	inquiryHandler := handlers.NewRestInquiryHandler(inquiryService, reconcileService, assignmentService, resolver, notifier, taskClient)
	bookingHandler := handlers.NewRestBookingHandler(cfg, bookingService, resolver, invoiceArchive, taskClient)
	agentHandler := handlers.NewRestAgentHandler(agentService)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/inquiries", inquiryHandler.CreateInquiry)
		v1.POST("/inquiries/:id/forward-webhook",
			middleware.APIKeyMiddleware(cfg.WebhookForwardAPIKey), inquiryHandler.ForwardWebhook)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes (agent or admin)
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/inquiries", inquiryHandler.ListInquiries)
			authRequired.GET("/inquiries/:id", inquiryHandler.GetInquiry)
			authRequired.PUT("/inquiries/:id", inquiryHandler.UpdateInquiry)
			authRequired.POST("/inquiries/:id/responses", inquiryHandler.AppendResponse)

			authRequired.GET("/bookings", bookingHandler.ListBookings)
			authRequired.GET("/bookings/:id", bookingHandler.GetBooking)
			authRequired.GET("/bookings/:id/invoice.pdf", bookingHandler.GetInvoice)
		}

		// Admin routes
		adminRequired := v1.Group("/")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.PUT("/inquiries/:id/assign", inquiryHandler.AssignInquiry)
			adminRequired.DELETE("/inquiries/:id", inquiryHandler.DeleteInquiry)

			adminRequired.POST("/bookings", bookingHandler.CreateBooking)
			adminRequired.PUT("/bookings/:id", bookingHandler.UpdateBooking)
			adminRequired.DELETE("/bookings/:id", bookingHandler.DeleteBooking)

			adminRequired.GET("/agents", agentHandler.ListAgents)
			adminRequired.GET("/agents/:id", agentHandler.GetAgent)
			adminRequired.POST("/agents", agentHandler.CreateAgent)
			adminRequired.PUT("/agents/:id", agentHandler.UpdateAgent)
			adminRequired.DELETE("/agents/:id", agentHandler.DeleteAgent)

			adminRequired.POST("/admin/tasks/orphan-sweep", bookingHandler.TriggerOrphanSweep)
		}
	}

	return r
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tarang-backend/assistant"
	"tarang-backend/config"
	"tarang-backend/database"
	"tarang-backend/email"
	"tarang-backend/handlers"
	"tarang-backend/middleware"
	"tarang-backend/rabbitmq"
	"tarang-backend/utils"
	"tarang-backend/version"
	ws "tarang-backend/websocket"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHealth             = "/health"
	EndPointVersion            = "/version"
	EndPointReports            = "/reports"
	EndPointReportStatus       = "/reports/:id/status"
	EndPointVolunteers         = "/volunteers"
	EndPointVolunteerCount     = "/volunteers/count"
	EndPointDonations          = "/donations"
	EndPointDonationTotal      = "/donations/total"
	EndPointStats              = "/stats"
	EndPointChat               = "/chat"
	EndPointAlertListen        = "/alerts/listen"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting the Tarang backend service...")

	// Connect to database
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize database schema
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize services
	dbService := database.NewService(db)

	// Assistant controller; nil means demo mode (no provider calls at all)
	var chat *assistant.Controller
	if cfg.GeminiAPIKey != "" {
		chat = assistant.NewController(assistant.NewClient(cfg.GeminiAPIKey), cfg.GeminiModels)
		log.Infof("Assistant enabled with models: %v", cfg.GeminiModels)
	} else {
		log.Warn("GEMINI_API_KEY not set, assistant runs in demo mode")
	}

	// Optional report event publisher
	var publisher *rabbitmq.Publisher
	if cfg.AMQPUrl != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPUrl, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	}

	// Optional donation receipt sender
	var mailer *email.Sender
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSender(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
	}

	// Initialize WebSocket hub for live alerts
	hub := ws.NewHub()
	go hub.Run()

	// Initialize handlers
	h := handlers.NewHandlers(dbService, hub, chat, publisher, mailer)

	// Setup router
	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Tarang backend starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// Add gzip compression middleware
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET(EndPointHealth, h.HealthCheck)
	router.GET(EndPointVersion, func(c *gin.Context) {
		c.JSON(200, version.Get("tarang-backend"))
	})

	// Create API v3 router group
	apiV3 := router.Group("/api/v3")
	{
		apiV3.POST(EndPointReports, h.CreateReport)
		apiV3.GET(EndPointReports, h.GetReports)
		apiV3.PATCH(EndPointReportStatus, middleware.AuthMiddleware(cfg.JWTSecret), h.UpdateReportStatus)

		apiV3.POST(EndPointVolunteers, h.RegisterVolunteer)
		apiV3.GET(EndPointVolunteerCount, h.GetVolunteerCount)
		apiV3.GET(EndPointVolunteers, middleware.AuthMiddleware(cfg.JWTSecret), h.ListVolunteers)

		apiV3.POST(EndPointDonations, h.CreateDonation)
		apiV3.GET(EndPointDonationTotal, h.GetDonationTotal)

		apiV3.GET(EndPointStats, h.GetStats)

		apiV3.POST(EndPointChat,
			middleware.RateLimitMiddleware(cfg.ChatRateLimitPerMinute, time.Minute), h.Chat)

		apiV3.GET(EndPointAlertListen, h.ListenAlerts)
	}

	return router
}

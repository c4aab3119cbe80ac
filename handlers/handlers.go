package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tarang-backend/assistant"
	"tarang-backend/database"
	"tarang-backend/email"
	"tarang-backend/models"
	"tarang-backend/rabbitmq"
	ws "tarang-backend/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	db        *database.Service
	hub       *ws.Hub
	chat      *assistant.Controller
	publisher *rabbitmq.Publisher
	mailer    *email.Sender
}

func NewHandlers(db *database.Service, hub *ws.Hub, chat *assistant.Controller, publisher *rabbitmq.Publisher, mailer *email.Sender) *Handlers {
	return &Handlers{
		db:        db,
		hub:       hub,
		chat:      chat,
		publisher: publisher,
		mailer:    mailer,
	}
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	connected := 0
	if h.hub != nil {
		connected = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "tarang-backend",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connected,
	})
}

// CreateReport handles hazard report submission
func (h *Handlers) CreateReport(c *gin.Context) {
	args := &models.CreateReportRequest{}
	if err := c.ShouldBindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /reports call: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and location are required"})
		return
	}

	report, err := h.db.CreateReport(c.Request.Context(), args)
	if err != nil {
		log.Errorf("Error creating report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	// Best-effort fan-out; the submission already succeeded.
	if h.hub != nil {
		h.hub.BroadcastReport(*report)
	}
	if h.publisher != nil {
		event := models.ReportEvent{
			Event:     "report.created",
			Report:    *report,
			Timestamp: time.Now().UTC(),
		}
		if err := h.publisher.Publish(event); err != nil {
			log.Warnf("Failed to publish report event for %s: %v", report.ID, err)
		}
	}

	c.JSON(http.StatusCreated, report)
}

// GetReports returns recent reports, optionally filtered by status
func (h *Handlers) GetReports(c *gin.Context) {
	limit := 20
	if n, err := parseIntQuery(c, "n"); err == nil {
		limit = n
	}
	status := c.Query("status")

	reports, err := h.db.GetRecentReports(c.Request.Context(), limit, status)
	if err != nil {
		log.Errorf("Error getting reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get reports"})
		return
	}
	if reports == nil {
		reports = []models.HazardReport{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// UpdateReportStatus handles an admin status transition
func (h *Handlers) UpdateReportStatus(c *gin.Context) {
	id := c.Param("id")
	args := &models.UpdateReportStatusRequest{}
	if err := c.ShouldBindJSON(args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := h.db.UpdateReportStatus(c.Request.Context(), id, args.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		log.Errorf("Error updating report %s: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": args.Status})
}

// RegisterVolunteer handles volunteer sign-up
func (h *Handlers) RegisterVolunteer(c *gin.Context) {
	args := &models.RegisterVolunteerRequest{}
	if err := c.ShouldBindJSON(args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a valid email are required"})
		return
	}

	volunteer, err := h.db.RegisterVolunteer(c.Request.Context(), args)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		log.Errorf("Error registering volunteer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register volunteer"})
		return
	}
	c.JSON(http.StatusCreated, volunteer)
}

// GetVolunteerCount returns the number of active volunteers
func (h *Handlers) GetVolunteerCount(c *gin.Context) {
	count, err := h.db.CountActiveVolunteers(c.Request.Context())
	if err != nil {
		log.Errorf("Error counting volunteers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count volunteers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_volunteers": count})
}

// ListVolunteers returns all volunteers (admin only)
func (h *Handlers) ListVolunteers(c *gin.Context) {
	volunteers, err := h.db.ListVolunteers(c.Request.Context())
	if err != nil {
		log.Errorf("Error listing volunteers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list volunteers"})
		return
	}
	if volunteers == nil {
		volunteers = []models.Volunteer{}
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": volunteers, "count": len(volunteers)})
}

// CreateDonation records a donation and sends a receipt email when configured
func (h *Handlers) CreateDonation(c *gin.Context) {
	args := &models.CreateDonationRequest{}
	if err := c.ShouldBindJSON(args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "donor_name, email and amount_inr are required"})
		return
	}

	donation, err := h.db.CreateDonation(c.Request.Context(), args)
	if err != nil {
		log.Errorf("Error recording donation: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.mailer != nil {
		if err := h.mailer.SendDonationReceipt(donation); err != nil {
			log.Warnf("Failed to send receipt %s: %v", donation.ReceiptNumber, err)
		}
	}

	c.JSON(http.StatusCreated, donation)
}

// GetDonationTotal returns the aggregate donation sum
func (h *Handlers) GetDonationTotal(c *gin.Context) {
	total, err := h.db.GetDonationTotal(c.Request.Context())
	if err != nil {
		log.Errorf("Error aggregating donations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate donations"})
		return
	}
	c.JSON(http.StatusOK, total)
}

// GetStats returns the dashboard aggregates
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.db.GetPlatformStats(c.Request.Context())
	if err != nil {
		log.Errorf("Error getting platform stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListenAlerts upgrades the connection and registers it with the alert hub
func (h *Handlers) ListenAlerts(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Info("Alert listener connected")
}

func parseIntQuery(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, errors.New("missing query parameter")
	}
	return strconv.Atoi(value)
}

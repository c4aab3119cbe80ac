package models

import (
	"time"
)

// HazardReport represents a citizen-submitted hazard report
type HazardReport struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Location    string    `json:"location" db:"location"`
	Severity    string    `json:"severity" db:"severity"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	Contact     string    `json:"contact,omitempty" db:"contact"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Report statuses
const (
	ReportStatusPending   = "pending"
	ReportStatusVerified  = "verified"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// CreateReportRequest is the payload for submitting a hazard report
type CreateReportRequest struct {
	Type        string `json:"type" binding:"required"`
	Location    string `json:"location" binding:"required"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
}

// UpdateReportStatusRequest is the payload for an admin status transition
type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Volunteer represents a registered volunteer
type Volunteer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Skills    string    `json:"skills,omitempty" db:"skills"`
	Location  string    `json:"location,omitempty" db:"location"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RegisterVolunteerRequest is the payload for volunteer registration
type RegisterVolunteerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Skills   string `json:"skills"`
	Location string `json:"location"`
}

// Donation represents a recorded donation
type Donation struct {
	ID            int64     `json:"id" db:"id"`
	ReceiptNumber string    `json:"receipt_number" db:"receipt_number"`
	DonorName     string    `json:"donor_name" db:"donor_name"`
	Email         string    `json:"email" db:"email"`
	AmountINR     float64   `json:"amount_inr" db:"amount_inr"`
	Purpose       string    `json:"purpose,omitempty" db:"purpose"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CreateDonationRequest is the payload for recording a donation
type CreateDonationRequest struct {
	DonorName string  `json:"donor_name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	AmountINR float64 `json:"amount_inr" binding:"required"`
	Purpose   string  `json:"purpose"`
}

// DonationTotal is the aggregate donation response
type DonationTotal struct {
	TotalINR float64 `json:"total_inr"`
	Count    int     `json:"count"`
}

// PlatformStats is the dashboard aggregate response
type PlatformStats struct {
	TotalReports     int     `json:"total_reports"`
	PendingReports   int     `json:"pending_reports"`
	ActiveVolunteers int     `json:"active_volunteers"`
	DonationTotalINR float64 `json:"donation_total_inr"`
}

// ChatHistoryEntry is one caller-supplied conversation turn
type ChatHistoryEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest is the payload for the assistant endpoint
type ChatRequest struct {
	Message string             `json:"message" binding:"required"`
	History []ChatHistoryEntry `json:"history"`
}

// ChatResponse is the assistant success payload
type ChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	ModelUsed string `json:"modelUsed,omitempty"`
}

// ChatErrorResponse is the assistant failure payload. Stack carries the
// per-model attempt trace for operator troubleshooting.
type ChatErrorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Stack    string `json:"stack"`
	Response string `json:"response"`
}

// BroadcastMessage wraps data pushed to alert listeners
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReportEvent is published to the message broker when a report is created
type ReportEvent struct {
	Event     string       `json:"event"`
	Report    HazardReport `json:"report"`
	Timestamp time.Time    `json:"timestamp"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
}

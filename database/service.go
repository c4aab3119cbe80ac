package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tarang-backend/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// ErrDuplicateEmail is returned when a volunteer email is already registered
var ErrDuplicateEmail = errors.New("email already registered")

// Service wraps all database access for the Tarang platform
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateReport inserts a new hazard report and returns it with the
// server-assigned id, status and timestamps.
func (s *Service) CreateReport(ctx context.Context, req *models.CreateReportRequest) (*models.HazardReport, error) {
	report := &models.HazardReport{
		ID:          uuid.New().String(),
		Type:        req.Type,
		Location:    req.Location,
		Severity:    req.Severity,
		Description: req.Description,
		Contact:     req.Contact,
		Status:      models.ReportStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if report.Severity == "" {
		report.Severity = "Medium"
	}
	report.UpdatedAt = report.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT
		INTO reports (id, type, location, severity, description, status, contact, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Type, report.Location, report.Severity, report.Description,
		report.Status, report.Contact, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		log.Errorf("Error inserting report: %v", err)
		return nil, err
	}
	log.Infof("Inserted report %s (%s at %s)", report.ID, report.Type, report.Location)
	return report, nil
}

// GetRecentReports returns up to limit reports ordered by creation time
// descending, optionally filtered by status.
func (s *Service) GetRecentReports(ctx context.Context, limit int, status string) ([]models.HazardReport, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT id, type, location, severity, description, status, contact, created_at, updated_at
		FROM reports`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("Error querying reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	var reports []models.HazardReport
	for rows.Next() {
		var r models.HazardReport
		var contact sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Location, &r.Severity, &r.Description,
			&r.Status, &contact, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Contact = contact.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// UpdateReportStatus transitions a report to a new status
func (s *Service) UpdateReportStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.ReportStatusPending, models.ReportStatusVerified,
		models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		return fmt.Errorf("invalid report status %q", status)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		log.Errorf("Error updating report %s status: %v", id, err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	log.Infof("Report %s status set to %s", id, status)
	return nil
}

// RegisterVolunteer inserts a new volunteer with status active
func (s *Service) RegisterVolunteer(ctx context.Context, req *models.RegisterVolunteerRequest) (*models.Volunteer, error) {
	volunteer := &models.Volunteer{
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		Skills:    req.Skills,
		Location:  req.Location,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `INSERT
		INTO volunteers (name, email, phone, skills, location, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		volunteer.Name, volunteer.Email, volunteer.Phone, volunteer.Skills,
		volunteer.Location, volunteer.Status, volunteer.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrDuplicateEmail
		}
		log.Errorf("Error inserting volunteer: %v", err)
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	volunteer.ID = id
	log.Infof("Registered volunteer %d (%s)", id, volunteer.Email)
	return volunteer, nil
}

// CountActiveVolunteers returns the number of volunteers with status active
func (s *Service) CountActiveVolunteers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM volunteers WHERE status = 'active'`).Scan(&count)
	if err != nil {
		log.Errorf("Error counting active volunteers: %v", err)
		return 0, err
	}
	return count, nil
}

// ListVolunteers returns all volunteers, newest first
func (s *Service) ListVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, skills, location, status, created_at
		FROM volunteers ORDER BY created_at DESC`)
	if err != nil {
		log.Errorf("Error querying volunteers: %v", err)
		return nil, err
	}
	defer rows.Close()

	var volunteers []models.Volunteer
	for rows.Next() {
		var v models.Volunteer
		var phone, skills, location sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &phone, &skills, &location,
			&v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Phone = phone.String
		v.Skills = skills.String
		v.Location = location.String
		volunteers = append(volunteers, v)
	}
	return volunteers, rows.Err()
}

// CreateDonation records a donation and returns it with the server-assigned
// receipt number.
func (s *Service) CreateDonation(ctx context.Context, req *models.CreateDonationRequest) (*models.Donation, error) {
	if req.AmountINR <= 0 {
		return nil, fmt.Errorf("donation amount must be positive, got %.2f", req.AmountINR)
	}

	donation := &models.Donation{
		ReceiptNumber: "TRG-" + strings.ToUpper(uuid.New().String()[:8]),
		DonorName:     req.DonorName,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		AmountINR:     req.AmountINR,
		Purpose:       req.Purpose,
		CreatedAt:     time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `INSERT
		INTO donations (receipt_number, donor_name, email, amount_inr, purpose, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		donation.ReceiptNumber, donation.DonorName, donation.Email,
		donation.AmountINR, donation.Purpose, donation.CreatedAt)
	if err != nil {
		log.Errorf("Error inserting donation: %v", err)
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	donation.ID = id
	log.Infof("Recorded donation %s of INR %.2f", donation.ReceiptNumber, donation.AmountINR)
	return donation, nil
}

// GetDonationTotal returns the aggregate donation sum and count
func (s *Service) GetDonationTotal(ctx context.Context) (*models.DonationTotal, error) {
	var total models.DonationTotal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_inr), 0), COUNT(*) FROM donations`).
		Scan(&total.TotalINR, &total.Count)
	if err != nil {
		log.Errorf("Error aggregating donations: %v", err)
		return nil, err
	}
	return &total, nil
}

// GetPlatformStats returns the dashboard aggregates
func (s *Service) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var stats models.PlatformStats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM reports),
		(SELECT COUNT(*) FROM reports WHERE status = 'pending'),
		(SELECT COUNT(*) FROM volunteers WHERE status = 'active'),
		(SELECT COALESCE(SUM(amount_inr), 0) FROM donations)`).
		Scan(&stats.TotalReports, &stats.PendingReports,
			&stats.ActiveVolunteers, &stats.DonationTotalINR)
	if err != nil {
		log.Errorf("Error querying platform stats: %v", err)
		return nil, err
	}
	return &stats, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tarang-backend/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	testVolunteerRequest = models.RegisterVolunteerRequest{
		Name:     "Asha",
		Email:    "A@B.C",
		Phone:    "9876543210",
		Skills:   "first aid",
		Location: "Chennai",
	}
	testDonationRequest = models.CreateDonationRequest{
		DonorName: "Ravi",
		Email:     "ravi@example.com",
		AmountINR: 500,
		Purpose:   "flood relief",
	}
)

var (
	db      *sql.DB
	mock    sqlmock.Sqlmock
	service *Service
)

func setUp() {
	db, mock, _ = sqlmock.New()
	service = NewService(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestGetRecentReports(t *testing.T) {
	it(func() {
		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "type", "location", "severity", "description", "status", "contact", "created_at", "updated_at"}).
			AddRow("r2", "flood", "Chennai", "high", "Water rising", "pending", nil, now, now).
			AddRow("r1", "cyclone", "Vizag", "high", "Wind warning", "verified", "9876543210", now.Add(-time.Hour), now)

		mock.ExpectQuery("SELECT id, type, location, severity, description, status, contact, created_at, updated_at FROM reports ORDER BY created_at DESC LIMIT \\?").
			WithArgs(2).
			WillReturnRows(rows)

		reports, err := service.GetRecentReports(context.Background(), 2, "")
		if err != nil {
			t.Fatalf("GetRecentReports failed: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("Expected 2 reports, got %d", len(reports))
		}
		if reports[0].ID != "r2" || reports[1].ID != "r1" {
			t.Errorf("Reports out of order: %v, %v", reports[0].ID, reports[1].ID)
		}
		if reports[0].Contact != "" {
			t.Errorf("NULL contact should scan to empty string, got %q", reports[0].Contact)
		}
	})
}

func TestGetRecentReportsWithStatusFilter(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, type, location, severity, description, status, contact, created_at, updated_at FROM reports WHERE status = \\? ORDER BY created_at DESC LIMIT \\?").
			WithArgs("pending", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "location", "severity", "description", "status", "contact", "created_at", "updated_at"}))

		reports, err := service.GetRecentReports(context.Background(), 0, "pending")
		if err != nil {
			t.Fatalf("GetRecentReports failed: %v", err)
		}
		if len(reports) != 0 {
			t.Errorf("Expected no reports, got %d", len(reports))
		}
	})
}

func TestUpdateReportStatus(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			status       string
			execExpected bool
			rowsAffected int64

			errorExpected bool
			notFound      bool
		}{
			{
				name:          "valid transition",
				status:        "verified",
				execExpected:  true,
				rowsAffected:  1,
				errorExpected: false,
			}, {
				name:          "invalid status",
				status:        "exploded",
				execExpected:  false,
				errorExpected: true,
			}, {
				name:          "unknown report",
				status:        "resolved",
				execExpected:  true,
				rowsAffected:  0,
				errorExpected: true,
				notFound:      true,
			},
		}

		for _, testCase := range testCases {
			if testCase.execExpected {
				mock.ExpectExec("UPDATE reports SET status = \\? WHERE id = \\?").
					WithArgs(testCase.status, "report-1").
					WillReturnResult(sqlmock.NewResult(0, testCase.rowsAffected))
			}
			err := service.UpdateReportStatus(context.Background(), "report-1", testCase.status)
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s: expected error: %v, got: %v", testCase.name, testCase.errorExpected, err)
			}
			if testCase.notFound && !errors.Is(err, sql.ErrNoRows) {
				t.Errorf("%s: expected ErrNoRows, got: %v", testCase.name, err)
			}
		}
	})
}

func TestCountActiveVolunteers(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM volunteers WHERE status = 'active'").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := service.CountActiveVolunteers(context.Background())
		if err != nil {
			t.Fatalf("CountActiveVolunteers failed: %v", err)
		}
		if count != 7 {
			t.Errorf("Expected 7, got %d", count)
		}
	})
}

func TestRegisterVolunteerDuplicateEmail(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO volunteers").
			WillReturnError(errors.New("Error 1062: Duplicate entry 'a@b.c' for key 'unique_volunteer_email'"))

		_, err := service.RegisterVolunteer(context.Background(), &testVolunteerRequest)
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestCreateDonationRejectsNonPositiveAmount(t *testing.T) {
	it(func() {
		// No Exec expected: validation happens before any query.
		req := testDonationRequest
		req.AmountINR = 0
		if _, err := service.CreateDonation(context.Background(), &req); err == nil {
			t.Error("Expected error for zero amount")
		}

		req.AmountINR = -50
		if _, err := service.CreateDonation(context.Background(), &req); err == nil {
			t.Error("Expected error for negative amount")
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unexpected database calls: %v", err)
		}
	})
}

func TestCreateDonationAssignsReceiptNumber(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO donations").
			WillReturnResult(sqlmock.NewResult(12, 1))

		req := testDonationRequest
		donation, err := service.CreateDonation(context.Background(), &req)
		if err != nil {
			t.Fatalf("CreateDonation failed: %v", err)
		}
		if donation.ID != 12 {
			t.Errorf("Expected id 12, got %d", donation.ID)
		}
		if len(donation.ReceiptNumber) != len("TRG-XXXXXXXX") || donation.ReceiptNumber[:4] != "TRG-" {
			t.Errorf("Unexpected receipt number format: %q", donation.ReceiptNumber)
		}
	})
}

func TestGetAssistantContextAppliesDefaults(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows([]string{"type", "location", "severity", "description", "status", "created_at"}).
			AddRow(nil, nil, nil, nil, nil, nil).
			AddRow("flood", "Chennai", "high", "Water rising", "pending", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))

		mock.ExpectQuery("SELECT type, location, severity, description, status, created_at FROM reports ORDER BY created_at DESC LIMIT 5").
			WillReturnRows(rows)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM volunteers WHERE status = 'active'").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		snapshot, err := service.GetAssistantContext(context.Background())
		if err != nil {
			t.Fatalf("GetAssistantContext failed: %v", err)
		}
		if len(snapshot.Reports) != 2 {
			t.Fatalf("Expected 2 reports, got %d", len(snapshot.Reports))
		}

		defaulted := snapshot.Reports[0]
		if defaulted.Type != "Hazard" || defaulted.Location != "Unknown" ||
			defaulted.Severity != "Medium" || defaulted.Description != "No description" ||
			defaulted.Status != "pending" || defaulted.Time != "Just now" {
			t.Errorf("Defaults not applied: %+v", defaulted)
		}

		live := snapshot.Reports[1]
		if live.Type != "flood" || live.Location != "Chennai" || live.Time == "Just now" {
			t.Errorf("Live values overwritten: %+v", live)
		}
		if snapshot.ActiveVolunteers != 3 {
			t.Errorf("Expected 3 active volunteers, got %d", snapshot.ActiveVolunteers)
		}
	})
}

func TestGetAssistantContextPropagatesQueryError(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT type, location, severity, description, status, created_at FROM reports").
			WillReturnError(errors.New("connection reset"))

		if _, err := service.GetAssistantContext(context.Background()); err == nil {
			t.Error("Expected error to propagate to the caller for degradation")
		}
	})
}

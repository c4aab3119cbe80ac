package database

import (
	"context"
	"database/sql"
	"time"
)

// ReportSnapshot is one hazard report shaped for prompt embedding.
// Missing fields are substituted with display defaults at query time so the
// prompt never contains empty values.
type ReportSnapshot struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Time        string `json:"time"`
}

// AssistantContext is the request-scoped snapshot handed to the prompt
// assembler. It is never persisted.
type AssistantContext struct {
	Reports          []ReportSnapshot `json:"reports"`
	ActiveVolunteers int              `json:"activeVolunteers"`
}

// GetAssistantContext loads the 5 most recent reports plus the active
// volunteer count. Callers degrade to a nil snapshot on error; this method
// only reports what went wrong.
func (s *Service) GetAssistantContext(ctx context.Context) (*AssistantContext, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, location, severity, description, status, created_at
		FROM reports ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &AssistantContext{}
	for rows.Next() {
		var rtype, location, severity, description, status sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&rtype, &location, &severity, &description, &status, &createdAt); err != nil {
			return nil, err
		}
		snapshot.Reports = append(snapshot.Reports, ReportSnapshot{
			Type:        orDefault(rtype, "Hazard"),
			Location:    orDefault(location, "Unknown"),
			Severity:    orDefault(severity, "Medium"),
			Description: orDefault(description, "No description"),
			Status:      orDefault(status, "pending"),
			Time:        formatReportTime(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	count, err := s.CountActiveVolunteers(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.ActiveVolunteers = count

	return snapshot, nil
}

func orDefault(v sql.NullString, def string) string {
	if v.Valid && v.String != "" {
		return v.String
	}
	return def
}

func formatReportTime(t sql.NullTime) string {
	if !t.Valid {
		return "Just now"
	}
	return t.Time.UTC().Format(time.RFC3339)
}

package database

import (
	"database/sql"

	"github.com/apex/log"
)

// Schema contains the database schema for the Tarang platform
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id VARCHAR(64) PRIMARY KEY,
    type VARCHAR(64),
    location VARCHAR(256),
    severity VARCHAR(32),
    description TEXT,
    status VARCHAR(32) DEFAULT 'pending',
    contact VARCHAR(256),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_reports_created_at (created_at),
    INDEX idx_reports_status (status)
);

CREATE TABLE IF NOT EXISTS volunteers (
    id INT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL,
    phone VARCHAR(32),
    skills VARCHAR(512),
    location VARCHAR(256),
    status ENUM('active', 'inactive') DEFAULT 'active',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY unique_volunteer_email (email),
    INDEX idx_volunteers_status (status)
);

CREATE TABLE IF NOT EXISTS donations (
    id INT AUTO_INCREMENT PRIMARY KEY,
    receipt_number VARCHAR(64) NOT NULL,
    donor_name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL,
    amount_inr DECIMAL(12,2) NOT NULL,
    purpose VARCHAR(256),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY unique_receipt_number (receipt_number)
);
`

// InitSchema creates the tables if they do not exist
func InitSchema(db *sql.DB) error {
	statements := splitStatements(Schema)
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Errorf("Failed to execute schema statement: %v", err)
			return err
		}
	}
	log.Info("Database schema initialized")
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	var current []byte
	for i := 0; i < len(schema); i++ {
		current = append(current, schema[i])
		if schema[i] == ';' {
			out = append(out, string(current))
			current = nil
		}
	}
	return out
}

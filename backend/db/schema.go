package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the tables if they don't exist. The locations table
// is populated by the offline CSV importer, never by the service.
func InitSchema(dbc *sql.DB) error {
	casesTableSQL := `
	CREATE TABLE IF NOT EXISTS cases(
		id INT NOT NULL AUTO_INCREMENT,
		pet_name VARCHAR(255),
		species VARCHAR(64) NOT NULL,
		street VARCHAR(255) NOT NULL DEFAULT '',
		neighborhood VARCHAR(255) NOT NULL DEFAULT '',
		city VARCHAR(255) NOT NULL DEFAULT '',
		contact VARCHAR(255),
		comment TEXT,
		photo_key VARCHAR(512) NOT NULL,
		thumbnail_key VARCHAR(512) NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		status VARCHAR(64) NOT NULL DEFAULT 'Perdi meu PET',
		resolved BOOL NOT NULL DEFAULT false,
		resolved_at TIMESTAMP NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX resolved_index (resolved),
		INDEX created_at_index (created_at)
	)`
	if _, err := dbc.Exec(casesTableSQL); err != nil {
		return fmt.Errorf("failed to create cases table: %w", err)
	}
	log.Info("Cases table created/verified")

	messagesTableSQL := `
	CREATE TABLE IF NOT EXISTS messages(
		id INT NOT NULL AUTO_INCREMENT,
		case_id INT NOT NULL,
		commenter_name VARCHAR(100) NOT NULL DEFAULT 'Anônimo',
		message_text VARCHAR(100) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX case_id_index (case_id),
		CONSTRAINT fk_messages_case FOREIGN KEY (case_id) REFERENCES cases (id)
	)`
	if _, err := dbc.Exec(messagesTableSQL); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	log.Info("Messages table created/verified")

	locationsTableSQL := `
	CREATE TABLE IF NOT EXISTS locations(
		street VARCHAR(255) NOT NULL,
		neighborhood VARCHAR(255) NOT NULL,
		city VARCHAR(255) NOT NULL,
		postal_code VARCHAR(16),
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		INDEX neighborhood_street_index (neighborhood, street)
	)`
	if _, err := dbc.Exec(locationsTableSQL); err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}
	log.Info("Locations table created/verified")

	return nil
}

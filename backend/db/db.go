// Package db is the relational store of pet cases and their message
// boards. It owns the one-way open -> resolved lifecycle; the locations
// lookup table is read through package location and written only by the
// offline importer.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"buscapet/backend/server/api"
	"buscapet/backend/util"
	"buscapet/common"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound means the case ID does not exist.
	ErrNotFound = errors.New("case not found")
	// ErrAlreadyResolved means the conditional resolve update matched no
	// open row because the case is already closed.
	ErrAlreadyResolved = errors.New("case already resolved")
	// ErrEmptyMessage and ErrMessageTooLong reject message-board input.
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = errors.New("message text too long")
)

// DefaultCommenterName substitutes a blank commenter name.
const DefaultCommenterName = "Anônimo"

// InsertCase writes a new case row and returns its assigned ID. The two
// asset keys must already exist in the asset store; the caller owns the
// compensating deletes when this insert fails.
func InsertCase(ctx context.Context, dbc *sql.DB, c *api.Case) (int64, error) {
	tx, err := dbc.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT
	  INTO cases (pet_name, species, street, neighborhood, city, contact, comment,
	              photo_key, thumbnail_key, latitude, longitude, status, resolved, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		c.PetName, c.Species, c.Street, c.Neighborhood, c.City, c.Contact, c.Comment,
		c.PhotoKey, c.ThumbnailKey, c.Latitude, c.Longitude, string(c.Status), c.CreatedAt)
	common.LogResult("insertCase", result, err, true)
	if err != nil {
		return 0, fmt.Errorf("failed to insert case: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new case id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		log.Errorf("Error committing the transaction: %v", err)
		return 0, err
	}
	return id, nil
}

// GetCase reads one full case row.
func GetCase(ctx context.Context, dbc *sql.DB, id int64) (*api.Case, error) {
	row := dbc.QueryRowContext(ctx, `SELECT
	  id, pet_name, species, street, neighborhood, city, contact, comment,
	  photo_key, thumbnail_key, latitude, longitude, status, resolved, resolved_at, created_at
	  FROM cases
	  WHERE id = ?`, id)
	return scanCase(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*api.Case, error) {
	var (
		c          api.Case
		petName    sql.NullString
		contact    sql.NullString
		comment    sql.NullString
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &petName, &c.Species, &c.Street, &c.Neighborhood, &c.City,
		&contact, &comment, &c.PhotoKey, &c.ThumbnailKey, &c.Latitude, &c.Longitude,
		&status, &c.Resolved, &resolvedAt, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.PetName = petName.String
	c.Contact = contact.String
	c.Comment = comment.String
	c.Status = util.ParseStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

// OpenCases returns all unresolved cases, newest first, with the fields
// the map needs populated.
func OpenCases(ctx context.Context, dbc *sql.DB) ([]api.Case, error) {
	rows, err := dbc.QueryContext(ctx, `SELECT
	  id, pet_name, species, neighborhood, status, thumbnail_key, latitude, longitude
	  FROM cases
	  WHERE resolved = 0
	  ORDER BY created_at DESC`)
	if err != nil {
		log.Errorf("Could not retrieve open cases: %v", err)
		return nil, err
	}
	defer rows.Close()

	cases := make([]api.Case, 0, 50)
	for rows.Next() {
		var (
			c       api.Case
			petName sql.NullString
			status  string
		)
		if err := rows.Scan(&c.ID, &petName, &c.Species, &c.Neighborhood, &status,
			&c.ThumbnailKey, &c.Latitude, &c.Longitude); err != nil {
			log.Errorf("Cannot scan a case row: %v", err)
			continue
		}
		c.PetName = petName.String
		c.Status = util.ParseStatus(status)
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// CaseAssetKeys reads the asset-store keys a case owns.
func CaseAssetKeys(ctx context.Context, dbc *sql.DB, id int64) (photoKey, thumbKey string, err error) {
	err = dbc.QueryRowContext(ctx,
		`SELECT photo_key, thumbnail_key FROM cases WHERE id = ?`, id).
		Scan(&photoKey, &thumbKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return photoKey, thumbKey, err
}

// ResolveCase flips an open case to resolved. The update is conditional
// on the row still being open, so concurrent resolve attempts are safe:
// the loser matches zero rows and gets ErrAlreadyResolved.
func ResolveCase(ctx context.Context, dbc *sql.DB, id int64, now time.Time) error {
	result, err := dbc.ExecContext(ctx,
		`UPDATE cases SET resolved = 1, resolved_at = ? WHERE id = ? AND resolved = 0`,
		now, id)
	if err != nil {
		log.Errorf("Error resolving case %d: %v", id, err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Zero rows: the case is either gone or already closed.
	var resolved bool
	err = dbc.QueryRowContext(ctx, `SELECT resolved FROM cases WHERE id = ?`, id).Scan(&resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyResolved
}

// LatestMessages returns the newest messages on a case's board.
func LatestMessages(ctx context.Context, dbc *sql.DB, caseID int64, limit int) ([]api.Message, error) {
	rows, err := dbc.QueryContext(ctx, `SELECT
	  id, case_id, commenter_name, message_text, created_at
	  FROM messages
	  WHERE case_id = ?
	  ORDER BY created_at DESC
	  LIMIT ?`, caseID, limit)
	if err != nil {
		log.Errorf("Could not retrieve messages for case %d: %v", caseID, err)
		return nil, err
	}
	defer rows.Close()

	msgs := make([]api.Message, 0, limit)
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.CaseID, &m.CommenterName, &m.MessageText, &m.CreatedAt); err != nil {
			log.Errorf("Cannot scan a message row: %v", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AddMessage appends a message to an open or resolved case. Text must be
// non-empty after trimming and fit maxLen runes; a blank commenter name
// becomes DefaultCommenterName.
func AddMessage(ctx context.Context, dbc *sql.DB, caseID int64, commenterName, messageText string, maxLen int) (int64, error) {
	messageText = strings.TrimSpace(messageText)
	if messageText == "" {
		return 0, ErrEmptyMessage
	}
	if len([]rune(messageText)) > maxLen {
		return 0, fmt.Errorf("%w: %d > %d", ErrMessageTooLong, len([]rune(messageText)), maxLen)
	}
	commenterName = strings.TrimSpace(commenterName)
	if commenterName == "" {
		commenterName = DefaultCommenterName
	}

	var existing int64
	err := dbc.QueryRowContext(ctx, `SELECT id FROM cases WHERE id = ?`, caseID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	result, err := dbc.ExecContext(ctx,
		`INSERT INTO messages (case_id, commenter_name, message_text) VALUES (?, ?, ?)`,
		caseID, commenterName, messageText)
	common.LogResult("addMessage", result, err, true)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return result.LastInsertId()
}

// Stats aggregates the dashboard numbers: open/resolved totals, the five
// neighborhoods with the most open cases and the five newest open cases.
func Stats(ctx context.Context, dbc *sql.DB) (*api.StatsResponse, error) {
	resp := &api.StatsResponse{
		TopNeighborhoods: []api.NeighborhoodCount{},
		LatestCases:      []api.CaseSummary{},
	}

	err := dbc.QueryRowContext(ctx, `SELECT
	  COALESCE(SUM(IF(resolved = 0, 1, 0)), 0) AS open_cnt,
	  COALESCE(SUM(IF(resolved = 1, 1, 0)), 0) AS resolved_cnt
	  FROM cases`).Scan(&resp.TotalOpen, &resp.TotalResolved)
	if err != nil {
		log.Errorf("Could not calculate case totals: %v", err)
		return nil, err
	}

	rows, err := dbc.QueryContext(ctx, `SELECT neighborhood, COUNT(*) AS cnt
	  FROM cases
	  WHERE resolved = 0 AND neighborhood <> ''
	  GROUP BY neighborhood
	  ORDER BY cnt DESC
	  LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var nc api.NeighborhoodCount
		if err := rows.Scan(&nc.Neighborhood, &nc.Count); err != nil {
			return nil, err
		}
		resp.TopNeighborhoods = append(resp.TopNeighborhoods, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	latest, err := dbc.QueryContext(ctx, `SELECT pet_name, species, neighborhood, created_at
	  FROM cases
	  WHERE resolved = 0
	  ORDER BY created_at DESC
	  LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer latest.Close()
	for latest.Next() {
		var (
			cs      api.CaseSummary
			petName sql.NullString
		)
		if err := latest.Scan(&petName, &cs.Species, &cs.Neighborhood, &cs.CreatedAt); err != nil {
			return nil, err
		}
		cs.PetName = petName.String
		resp.LatestCases = append(resp.LatestCases, cs)
	}
	return resp, latest.Err()
}

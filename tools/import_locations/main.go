// Command import_locations bulk-loads the locations table from a
// semicolon-delimited CSV export (RUA;BAIRRO;CIDADE;CEP;LATITUDE;LONGITUDE).
// Decimal coordinates may use either a comma or a dot separator.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"buscapet/backend/config"
	"buscapet/common"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

var (
	csvPath   = flag.String("csv", "", "Path to the locations CSV file.")
	batchSize = flag.Int("batch", 300, "Rows per transaction commit.")
	truncate  = flag.Bool("truncate", false, "Empty the locations table before importing.")
)

const insertQuery = `INSERT INTO locations
	(street, neighborhood, city, postal_code, latitude, longitude)
	VALUES (?, ?, ?, ?, ?, ?)`

type row struct {
	street, neighborhood, city, postalCode string
	latitude, longitude                    float64
}

// parseRow validates one CSV record. Street, neighborhood, city and both
// coordinates are mandatory; the postal code is kept only for reporting.
func parseRow(record []string) (*row, error) {
	if len(record) < 6 {
		return nil, fmt.Errorf("expected 6 fields, got %d", len(record))
	}
	r := &row{
		street:       strings.TrimSpace(record[0]),
		neighborhood: strings.TrimSpace(record[1]),
		city:         strings.TrimSpace(record[2]),
		postalCode:   strings.TrimSpace(record[3]),
	}
	if r.street == "" || r.neighborhood == "" || r.city == "" {
		return nil, fmt.Errorf("missing required address fields")
	}
	var err error
	r.latitude, err = parseCoordinate(record[4])
	if err != nil {
		return nil, fmt.Errorf("bad latitude: %w", err)
	}
	r.longitude, err = parseCoordinate(record[5])
	if err != nil {
		return nil, fmt.Errorf("bad longitude: %w", err)
	}
	return r, nil
}

func parseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func importCSV(ctx context.Context, dbc *sql.DB, r io.Reader) (inserted int, failed []string, err error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	// Header line.
	if _, err := reader.Read(); err != nil {
		return 0, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	tx, err := dbc.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	inBatch := 0
	line := 1
	for {
		line++
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			failed = append(failed, fmt.Sprintf("line %d: %v", line, readErr))
			continue
		}

		r, parseErr := parseRow(record)
		if parseErr != nil {
			failed = append(failed, fmt.Sprintf("line %d: %v", line, parseErr))
			continue
		}

		if _, execErr := tx.ExecContext(ctx, insertQuery,
			r.street, r.neighborhood, r.city, r.postalCode,
			r.latitude, r.longitude); execErr != nil {
			failed = append(failed, fmt.Sprintf("line %d (CEP %s): %v", line, r.postalCode, execErr))
			continue
		}
		inserted++
		inBatch++

		if inBatch >= *batchSize {
			if err := tx.Commit(); err != nil {
				return inserted, failed, err
			}
			tx, err = dbc.BeginTx(ctx, nil)
			if err != nil {
				return inserted, failed, err
			}
			inBatch = 0
		}
	}
	if err := tx.Commit(); err != nil {
		return inserted, failed, err
	}
	return inserted, failed, nil
}

func main() {
	flag.Parse()
	if *csvPath == "" {
		log.Fatal("The -csv flag is required.")
	}
	if err := godotenv.Load(); err != nil {
		log.Infof("No .env file, using process environment: %v", err)
	}
	cfg := config.Load()

	dbc, err := common.DBConnect(cfg.DB)
	if err != nil {
		log.Fatalf("Error connecting to DB: %v", err)
	}
	defer dbc.Close()

	ctx := context.Background()
	if *truncate {
		if _, err := dbc.ExecContext(ctx, "TRUNCATE TABLE locations"); err != nil {
			log.Fatalf("Failed to truncate locations: %v", err)
		}
		log.Info("Locations table truncated.")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *csvPath, err)
	}
	defer f.Close()

	inserted, failed, err := importCSV(ctx, dbc, f)
	if err != nil {
		log.Fatalf("Import aborted after %d rows: %v", inserted, err)
	}

	log.Infof("Inserted %d rows.", inserted)
	if len(failed) > 0 {
		log.Warnf("Skipped %d rows:", len(failed))
		for i, f := range failed {
			if i == 20 {
				log.Warnf("... and %d more.", len(failed)-20)
				break
			}
			log.Warn(f)
		}
	}
}

// Package location maps a (neighborhood, street) pair onto coordinates
// using the pre-loaded locations reference table. The table is owned by
// the offline importer; this package only reads it.
package location

import (
	"context"
	"database/sql"
	"errors"

	"github.com/apex/log"
)

type Resolver struct {
	dbc *sql.DB
}

func NewResolver(dbc *sql.DB) *Resolver {
	return &Resolver{dbc: dbc}
}

// Resolve looks up the coordinates for an exact (neighborhood, street)
// match. A miss is not an error: ok is false and the case is registered
// without precise map placement. When either field is blank the lookup
// is skipped entirely.
func (r *Resolver) Resolve(ctx context.Context, neighborhood, street string) (lat, lon float64, ok bool, err error) {
	if neighborhood == "" || street == "" {
		return 0, 0, false, nil
	}
	err = r.dbc.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM locations WHERE neighborhood = ? AND street = ? LIMIT 1`,
		neighborhood, street).Scan(&lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		log.Infof("No coordinates for %s, %s", street, neighborhood)
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return lat, lon, true, nil
}

// Neighborhoods lists the distinct neighborhoods of the reference table,
// for the registration form's dropdown.
func (r *Resolver) Neighborhoods(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT neighborhood FROM locations ORDER BY neighborhood ASC`)
}

// Streets lists the distinct streets of one neighborhood.
func (r *Resolver) Streets(ctx context.Context, neighborhood string) ([]string, error) {
	return r.distinct(ctx,
		`SELECT DISTINCT street FROM locations WHERE neighborhood = ? ORDER BY street ASC`,
		neighborhood)
}

func (r *Resolver) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.dbc.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("Could not query locations: %v", err)
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0, 50)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			log.Errorf("Cannot scan a location row: %v", err)
			continue
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codeapi/internal/repository"
)

// LastUpdatePostgres reads the ETL completion log.
type LastUpdatePostgres struct {
	db *sql.DB
}

// NewLastUpdatePostgres creates a new LastUpdatePostgres repository.
func NewLastUpdatePostgres(db *sql.DB) *LastUpdatePostgres {
	return &LastUpdatePostgres{db: db}
}

var _ repository.LastUpdateRepository = (*LastUpdatePostgres)(nil)

// LastETL returns the most recent completion time in UTC, or the zero time
// if the log is empty.
func (r *LastUpdatePostgres) LastETL(ctx context.Context) (time.Time, error) {
	const q = `SELECT MAX(completed_utc) FROM last_etl`

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, q).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("last etl: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time.UTC(), nil
}

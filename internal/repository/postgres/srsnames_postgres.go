package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"codeapi/internal/repository"
	"codeapi/internal/tabular"
)

// SrsnamesPostgres reads the public SRS names table.
type SrsnamesPostgres struct {
	db *sql.DB
}

// NewSrsnamesPostgres creates a new SrsnamesPostgres repository.
func NewSrsnamesPostgres(db *sql.DB) *SrsnamesPostgres {
	return &SrsnamesPostgres{db: db}
}

var _ repository.SrsnamesRepository = (*SrsnamesPostgres)(nil)

// MaxLastRevDate returns the newest last_rev_dt, or the zero time for an empty table.
func (r *SrsnamesPostgres) MaxLastRevDate(ctx context.Context) (time.Time, error) {
	const q = `SELECT MAX(last_rev_dt) FROM public_srsnames`

	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, q).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("max last_rev_dt: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// Stream yields the export rows ordered by parameter code. The query runs
// when iteration starts and the rows are released when it stops.
func (r *SrsnamesPostgres) Stream(ctx context.Context) iter.Seq2[tabular.Record, error] {
	const q = `
		SELECT parm_cd, description, characteristicname, measureunitcode,
		       resultsamplefraction, resulttemperaturebasis, resultstatisticalbasis,
		       resulttimebasis, resultweightbasis, resultparticlesizebasis, last_rev_dt
		FROM public_srsnames
		ORDER BY parm_cd
	`
	return func(yield func(tabular.Record, error) bool) {
		rows, err := r.db.QueryContext(ctx, q)
		if err != nil {
			yield(nil, fmt.Errorf("query public_srsnames: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan public_srsnames: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read public_srsnames: %w", err))
		}
	}
}

// scanRecord reads the current row into a record in column order. NULL
// columns are skipped, so records from one query may differ in key set.
func scanRecord(rows *sql.Rows) (tabular.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(tabular.Record, 0, len(cols))
	for i, col := range cols {
		switch v := values[i].(type) {
		case nil:
			continue
		case []byte:
			rec = append(rec, tabular.Field{Key: col, Value: string(v)})
		case time.Time:
			rec = append(rec, tabular.Field{Key: col, Value: v.Format(time.DateOnly)})
		default:
			rec = append(rec, tabular.Field{Key: col, Value: v})
		}
	}
	return rec, nil
}

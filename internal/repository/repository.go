// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"
	"iter"
	"time"

	"codeapi/internal/model"
	"codeapi/internal/tabular"
)

// CodeRepository reads reference codes. Matching semantics for the text
// filter belong to the implementation; callers pass "" for no filter.
type CodeRepository interface {
	// Count returns the number of codes of the type matching text.
	Count(ctx context.Context, ct model.CodeType, text string) (int, error)

	// FindPage returns one window of the codes matching text.
	FindPage(ctx context.Context, ct model.CodeType, text string, pq PageQuery) ([]model.Code, error)

	// FindOne returns the code with exactly this value, or sql.ErrNoRows.
	FindOne(ctx context.Context, ct model.CodeType, value string) (*model.Code, error)
}

// LastUpdateRepository reports when the backing data was last reloaded.
type LastUpdateRepository interface {
	// LastETL returns the completion time of the latest load, or the zero
	// time when no load has been recorded.
	LastETL(ctx context.Context) (time.Time, error)
}

// SrsnamesRepository reads the public SRS names export.
type SrsnamesRepository interface {
	// MaxLastRevDate returns the newest revision date in the export.
	MaxLastRevDate(ctx context.Context) (time.Time, error)

	// Stream yields rows one at a time. NULL columns are left out of a row.
	Stream(ctx context.Context) iter.Seq2[tabular.Record, error]
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"codeapi/internal/model"
	"codeapi/internal/repository"
)

// CodePostgres is a PostgreSQL implementation of repository.CodeRepository.
// Every code type lives in its own table with the columns
// code_value, description and providers.
type CodePostgres struct {
	db *sql.DB
}

// NewCodePostgres creates a new CodePostgres repository.
func NewCodePostgres(db *sql.DB) *CodePostgres {
	return &CodePostgres{db: db}
}

var _ repository.CodeRepository = (*CodePostgres)(nil)

// matchClause matches a prefix of the code value or any part of the
// description, case-insensitively. $1 is the LIKE-escaped filter text.
const matchClause = `($1 = '' OR code_value ILIKE $1 || '%' OR description ILIKE '%' || $1 || '%')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so the filter text matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func table(ct model.CodeType) (string, error) {
	if !ct.Valid() {
		return "", fmt.Errorf("unknown code type %q", string(ct))
	}
	return pgx.Identifier{ct.Table()}.Sanitize(), nil
}

// Count returns the number of codes matching text.
func (r *CodePostgres) Count(ctx context.Context, ct model.CodeType, text string) (int, error) {
	t, err := table(ct)
	if err != nil {
		return 0, err
	}
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, t, matchClause)

	var total int
	if err := r.db.QueryRowContext(ctx, q, escapeLike(text)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", ct, err)
	}
	return total, nil
}

// FindPage returns codes matching text ordered by value using LIMIT/OFFSET.
func (r *CodePostgres) FindPage(ctx context.Context, ct model.CodeType, text string, pq repository.PageQuery) ([]model.Code, error) {
	t, err := table(ct)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		SELECT code_value, description, providers
		FROM %s
		WHERE %s
		ORDER BY code_value
		LIMIT $2 OFFSET $3
	`, t, matchClause)

	rows, err := r.db.QueryContext(ctx, q, escapeLike(text), pq.Limit, pq.Offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ct, err)
	}
	defer rows.Close()

	codes := make([]model.Code, 0)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", ct, err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", ct, err)
	}
	return codes, nil
}

// FindOne fetches the code whose value matches exactly.
// It returns an error wrapping sql.ErrNoRows when there is none.
func (r *CodePostgres) FindOne(ctx context.Context, ct model.CodeType, value string) (*model.Code, error) {
	t, err := table(ct)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		SELECT code_value, description, providers
		FROM %s
		WHERE code_value = $1
	`, t)

	c, err := scanCode(r.db.QueryRowContext(ctx, q, value))
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", ct, value, err)
	}
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCode(s scanner) (model.Code, error) {
	var (
		c         model.Code
		desc      sql.NullString
		providers sql.NullString
	)
	if err := s.Scan(&c.Value, &desc, &providers); err != nil {
		return model.Code{}, err
	}
	c.Desc = desc.String
	c.Providers = providers.String
	return c, nil
}

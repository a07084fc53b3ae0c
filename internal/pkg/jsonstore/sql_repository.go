package jsonstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DocumentsTable is created by the migrations
const DocumentsTable = "documents"

// SQLRepository stores collection documents as rows of the documents table.
// It lets the same working set live in the relational database instead of
// loose files without touching any caller.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewSQLRepository wraps an open database; builder carries the placeholder format
func NewSQLRepository(db *sql.DB, builder sq.StatementBuilderType) *SQLRepository {
	return &SQLRepository{db: db, builder: builder}
}

// Load returns the stored document body
func (r *SQLRepository) Load(ctx context.Context, name string) ([]byte, error) {
	query, args, err := r.builder.
		Select("body").
		From(DocumentsTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var body string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading document %s: %w", name, err)
	}
	return []byte(body), nil
}

// Save upserts the document body
func (r *SQLRepository) Save(ctx context.Context, name string, data []byte) error {
	query, args, err := r.builder.
		Insert(DocumentsTable).
		Columns("name", "body", "updated_at").
		Values(name, string(data), time.Now().UTC()).
		Suffix("ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error saving document %s: %w", name, err)
	}
	return nil
}

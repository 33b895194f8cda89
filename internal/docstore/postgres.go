package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

const documentsTable = "documents"

// PostgresStore persists documents in a single generic table with a JSONB
// fields column, one row per (collection, key).
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Initialize ensures the backing table exists.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	schema := `CREATE TABLE IF NOT EXISTS documents (
        collection TEXT NOT NULL,
        key TEXT NOT NULL,
        fields JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (collection, key)
    )`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}

	return nil
}

// Put upserts the document. With serverTimestamp the row's created_at is
// refreshed to NOW(); without it an existing row keeps its original value.
func (s *PostgresStore) Put(ctx context.Context, collection, key string, fields map[string]any, serverTimestamp bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	suffix := "ON CONFLICT (collection, key) DO UPDATE SET fields = EXCLUDED.fields"
	if serverTimestamp {
		suffix += ", created_at = NOW()"
	}

	query, args, err := s.builder.
		Insert(documentsTable).
		Columns("collection", "key", "fields", "created_at").
		Values(collection, key, raw, sq.Expr("NOW()")).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", collection, key, err)
	}

	return nil
}

// Get reads a document by exact key.
func (s *PostgresStore) Get(ctx context.Context, collection, key string) (Document, error) {
	query, args, err := s.builder.
		Select("key", "fields", "created_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return Document{}, fmt.Errorf("build select: %w", err)
	}

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s/%s: %w", collection, key, err)
	}

	return doc, nil
}

// Query runs equality filters plus single-field ordering. Filters compare the
// JSONB field's text rendering, so numbers match regardless of stored width.
func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	builder := s.builder.
		Select("key", "fields", "created_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection})

	for _, f := range q.Filters {
		builder = builder.Where(sq.Expr("fields->>? = ?", f.Field, fmt.Sprint(f.Value)))
	}

	if q.OrderBy != "" {
		builder = builder.OrderByClause(orderExpr(q))
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return docs, nil
}

func orderExpr(q Query) sq.Sqlizer {
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	if q.OrderBy == CreatedAtField {
		return sq.Expr("created_at " + direction)
	}
	if q.Numeric {
		return sq.Expr("(fields->>?)::numeric "+direction, q.OrderBy)
	}
	return sq.Expr("fields->>? "+direction, q.OrderBy)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc Document
		raw []byte
	)
	if err := row.Scan(&doc.Key, &raw, &doc.CreatedAt); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return doc, nil
}

package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that no document exists under the requested key.
var ErrNotFound = errors.New("document not found")

// CreatedAtField is the reserved OrderBy name resolving to the document's
// server-assigned creation timestamp instead of a stored field.
const CreatedAtField = "createdAt"

// Document is one stored record: a flat field map plus the creation timestamp
// the store assigned on write.
type Document struct {
	Key       string
	Fields    map[string]any
	CreatedAt time.Time
}

// Filter is a single equality condition on a stored field. Values are
// compared by their text rendering, so int and float forms of the same
// number match.
type Filter struct {
	Field string
	Value any
}

// Query describes the only query shape the core ever issues: equality
// filters, single-field ordering, optional limit. OrderBy may name a stored
// field or CreatedAtField; Numeric orders field values as numbers rather
// than text.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Numeric    bool
	Limit      int
}

// Store is the remote document-store contract. Put with serverTimestamp
// assigns (or refreshes) the creation timestamp; without it, an existing
// document keeps its original timestamp, which is what in-place maintenance
// rewrites rely on.
type Store interface {
	Put(ctx context.Context, collection, key string, fields map[string]any, serverTimestamp bool) error
	Get(ctx context.Context, collection, key string) (Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
}

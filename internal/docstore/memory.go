package docstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and dry runs. It mirrors
// the text-rendering filter semantics of the Postgres adapter.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store on the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]Document{},
		now:         time.Now,
	}
}

// SetClock replaces the timestamp source; tests use it to write documents at
// controlled times.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put upserts the document, assigning the current clock as created_at on
// first write or whenever serverTimestamp is requested.
func (s *MemoryStore) Put(_ context.Context, collection, key string, fields map[string]any, serverTimestamp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = map[string]Document{}
		s.collections[collection] = docs
	}

	createdAt := s.now()
	if existing, ok := docs[key]; ok && !serverTimestamp {
		createdAt = existing.CreatedAt
	}

	docs[key] = Document{Key: key, Fields: copyFields(fields), CreatedAt: createdAt}
	return nil
}

// Get reads a document by exact key.
func (s *MemoryStore) Get(_ context.Context, collection, key string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Fields = copyFields(doc.Fields)
	return doc, nil
}

// Query applies equality filters, ordering, and limit over the collection.
func (s *MemoryStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for _, doc := range s.collections[collection] {
		if matches(doc, q.Filters) {
			doc.Fields = copyFields(doc.Fields)
			docs = append(docs, doc)
		}
	}

	if q.OrderBy != "" {
		sortDocuments(docs, q)
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(doc.Fields[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func sortDocuments(docs []Document, q Query) {
	less := func(i, j int) bool {
		if q.OrderBy == CreatedAtField {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		a, b := docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy]
		if q.Numeric {
			return toFloat(a) < toFloat(b)
		}
		return fmt.Sprint(a) < fmt.Sprint(b)
	}

	if q.Descending {
		sort.Slice(docs, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.Slice(docs, less)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		parsed, _ := strconv.ParseFloat(fmt.Sprint(v), 64)
		return parsed
	}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

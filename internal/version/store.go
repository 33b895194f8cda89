package version

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"MatchPredictor/internal/docstore"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/ports"
)

// Family selects which document collection a Store operates on. Context
// documents and KPI documents share the exact same version-chain logic and
// differ only in collection and the optional description field.
type Family string

const (
	// FamilyContext holds standings, history, and rules documents.
	FamilyContext Family = "context_documents"
	// FamilyKpi holds team/manager fact sheets for bonus questions.
	FamilyKpi Family = "kpi_documents"
)

// Store maintains append-only, content-deduplicated version chains per
// (name, communityContext) on top of the raw document-store contract.
type Store struct {
	store  docstore.Store
	family Family
}

var _ ports.DocumentProvider = (*Store)(nil)

// NewStore binds a version chain to one document family.
func NewStore(store docstore.Store, family Family) *Store {
	return &Store{store: store, family: family}
}

// SaveDocument appends the content as the next version of the named chain.
// It returns the written version and true, or the current version and false
// when the content matches the latest version byte for byte and no write
// happened. The read-latest/write-next pair is not transactional; callers
// must not run two writers for the same key concurrently.
func (s *Store) SaveDocument(ctx context.Context, name, content, community string) (int, bool, error) {
	return s.save(ctx, name, content, "", community)
}

func (s *Store) save(ctx context.Context, name, content, description, community string) (int, bool, error) {
	latest, err := s.GetLatestDocument(ctx, name, community)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return 0, false, fmt.Errorf("read latest %s: %w", name, err)
	}

	next := 0
	if err == nil {
		if latest.Content == content {
			return latest.Version, false, nil
		}
		next = latest.Version + 1
	}

	if err := s.put(ctx, name, content, description, community, next, true); err != nil {
		return 0, false, err
	}
	return next, true, nil
}

// GetLatestDocument returns the highest version of the named chain.
func (s *Store) GetLatestDocument(ctx context.Context, name, community string) (domain.VersionedDocument, error) {
	docs, err := s.store.Query(ctx, string(s.family), docstore.Query{
		Filters: []docstore.Filter{
			{Field: "name", Value: name},
			{Field: "communityContext", Value: community},
		},
		OrderBy:    "version",
		Descending: true,
		Numeric:    true,
		Limit:      1,
	})
	if err != nil {
		return domain.VersionedDocument{}, fmt.Errorf("query latest %s: %w", name, err)
	}
	if len(docs) == 0 {
		return domain.VersionedDocument{}, docstore.ErrNotFound
	}
	return decode(docs[0]), nil
}

// GetDocument returns one exact version, independent of the chain head.
func (s *Store) GetDocument(ctx context.Context, name string, version int, community string) (domain.VersionedDocument, error) {
	doc, err := s.store.Get(ctx, string(s.family), documentKey(community, name, version))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return domain.VersionedDocument{}, docstore.ErrNotFound
		}
		return domain.VersionedDocument{}, fmt.Errorf("get %s v%d: %w", name, version, err)
	}
	return decode(doc), nil
}

// GetDocumentVersions returns every version of the chain, ascending.
func (s *Store) GetDocumentVersions(ctx context.Context, name, community string) ([]domain.VersionedDocument, error) {
	docs, err := s.store.Query(ctx, string(s.family), docstore.Query{
		Filters: []docstore.Filter{
			{Field: "name", Value: name},
			{Field: "communityContext", Value: community},
		},
		OrderBy: "version",
		Numeric: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query versions %s: %w", name, err)
	}

	out := make([]domain.VersionedDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decode(doc))
	}
	return out, nil
}

// ListDocumentNames returns the distinct chain names of a community, sorted.
// Maintenance tooling only; the hot path never enumerates chains.
func (s *Store) ListDocumentNames(ctx context.Context, community string) ([]string, error) {
	docs, err := s.store.Query(ctx, string(s.family), docstore.Query{
		Filters: []docstore.Filter{{Field: "communityContext", Value: community}},
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	seen := map[string]struct{}{}
	var names []string
	for _, doc := range docs {
		name := docstore.String(doc.Fields, "name")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RewriteDocument corrects one existing version in place, keeping its
// creation timestamp. This is a maintenance operation for backfills and the
// single exception to version immutability; normal flow never calls it.
func (s *Store) RewriteDocument(ctx context.Context, name string, version int, content, community string) error {
	existing, err := s.store.Get(ctx, string(s.family), documentKey(community, name, version))
	if err != nil {
		return fmt.Errorf("rewrite %s v%d: %w", name, version, err)
	}

	description := docstore.String(existing.Fields, "description")
	return s.put(ctx, name, content, description, community, version, false)
}

func (s *Store) put(ctx context.Context, name, content, description, community string, version int, serverTimestamp bool) error {
	fields := map[string]any{
		"name":             name,
		"communityContext": community,
		"content":          content,
		"version":          version,
	}
	if description != "" {
		fields["description"] = description
	}

	key := documentKey(community, name, version)
	if err := s.store.Put(ctx, string(s.family), key, fields, serverTimestamp); err != nil {
		return fmt.Errorf("write %s v%d: %w", name, version, err)
	}
	return nil
}

func documentKey(community, name string, version int) string {
	return fmt.Sprintf("%s|%s|%d", community, name, version)
}

func decode(doc docstore.Document) domain.VersionedDocument {
	return domain.VersionedDocument{
		Name:             docstore.String(doc.Fields, "name"),
		CommunityContext: docstore.String(doc.Fields, "communityContext"),
		Content:          docstore.String(doc.Fields, "content"),
		Version:          docstore.Int(doc.Fields, "version"),
		CreatedAt:        doc.CreatedAt,
	}
}

// KpiStore is the KPI-family view of the chain, surfacing descriptions.
type KpiStore struct {
	*Store
}

// NewKpiStore binds a store to the KPI family.
func NewKpiStore(store docstore.Store) *KpiStore {
	return &KpiStore{Store: NewStore(store, FamilyKpi)}
}

// SaveKpiDocument appends a described fact sheet, with the same
// content-deduplication rules as SaveDocument.
func (s *KpiStore) SaveKpiDocument(ctx context.Context, name, content, description, community string) (int, bool, error) {
	return s.save(ctx, name, content, description, community)
}

// GetLatestKpiDocument returns the chain head including its description.
func (s *KpiStore) GetLatestKpiDocument(ctx context.Context, name, community string) (domain.KpiDocument, error) {
	latest, err := s.GetLatestDocument(ctx, name, community)
	if err != nil {
		return domain.KpiDocument{}, err
	}

	doc, err := s.store.Get(ctx, string(s.family), documentKey(community, name, latest.Version))
	if err != nil {
		return domain.KpiDocument{}, fmt.Errorf("get kpi %s v%d: %w", name, latest.Version, err)
	}

	return domain.KpiDocument{
		VersionedDocument: latest,
		Description:       docstore.String(doc.Fields, "description"),
	}, nil
}

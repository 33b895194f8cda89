package staleness

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"MatchPredictor/internal/docstore"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/ports"
)

// displaySuffix matches the cosmetic " (label)" decoration appended to
// context-document names for human-readable grouping. Storage keys never
// carry it.
var displaySuffix = regexp.MustCompile(` \([^)]*\)$`)

// DocumentReader is the single query the detector needs from a versioned
// document family.
type DocumentReader interface {
	GetLatestDocument(ctx context.Context, name, community string) (domain.VersionedDocument, error)
}

// Detector decides whether a prediction's context inputs changed after the
// prediction was made. Detection is best-effort: any lookup problem counts as
// "not stale", because the regeneration decision is a cost optimization, not
// a correctness requirement.
type Detector struct {
	documents DocumentReader
	excluded  map[string]struct{}
	logger    *slog.Logger
}

var _ ports.StalenessChecker = (*Detector)(nil)

// New builds a detector over one document family. Excluded names (e.g. the
// standings table, which changes mildly after every matchday) never trigger
// staleness; the exclusion list is deployment configuration, not a rule.
func New(documents DocumentReader, excluded []string, logger *slog.Logger) *Detector {
	set := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		set[name] = struct{}{}
	}
	return &Detector{documents: documents, excluded: set, logger: logger}
}

// IsOutdated reports whether any non-excluded context document the prediction
// was built from has a version created strictly after the prediction itself.
func (d *Detector) IsOutdated(ctx context.Context, meta domain.PredictionMetadata, community string) bool {
	for _, displayName := range meta.ContextDocumentNames {
		name := StripDisplaySuffix(displayName)
		if _, skip := d.excluded[name]; skip {
			continue
		}

		latest, err := d.documents.GetLatestDocument(ctx, name, community)
		if errors.Is(err, docstore.ErrNotFound) {
			// A removed document cannot invalidate the prediction.
			continue
		}
		if err != nil {
			d.warn("staleness lookup failed", "document", name, "error", err)
			continue
		}

		if latest.CreatedAt.After(meta.CreatedAt) {
			return true
		}
	}

	return false
}

// StripDisplaySuffix recovers the storage key from a decorated display name.
func StripDisplaySuffix(name string) string {
	return displaySuffix.ReplaceAllString(name, "")
}

func (d *Detector) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

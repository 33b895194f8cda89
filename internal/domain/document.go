package domain

import "time"

// VersionedDocument is one immutable snapshot in a per-name version chain.
// Versions for a fixed (Name, CommunityContext) form a dense sequence 0..N;
// a new version is only appended when the content actually changed.
type VersionedDocument struct {
	Name             string
	CommunityContext string
	Content          string
	Version          int
	CreatedAt        time.Time
}

// KpiDocument is a versioned team/manager fact sheet. It carries a human
// description on top of the plain document shape. Staleness checks compare
// its CreatedAt, never an update timestamp.
type KpiDocument struct {
	VersionedDocument
	Description string
}

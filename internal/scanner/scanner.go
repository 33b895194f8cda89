package scanner

import (
	"context"
	"fmt"
	"time"

	"MatchPredictor/internal/domain"
)

// Request carries all parameters required to fetch one matchday schedule.
type Request struct {
	Matchday int
	Day      time.Time
	SiteName string
	URL      string
	Options  map[string]string
}

// Scanner captures a single schedule-source strategy (Kicktipp table,
// federation site, etc.). Rows come back in stable table order with time
// cells verbatim, including blanks and cancellation markers.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ScheduleRow, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

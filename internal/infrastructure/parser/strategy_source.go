package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MatchPredictor/internal/config"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/ports"
	"MatchPredictor/internal/scanner"
)

// StrategySource implements MatchSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.MatchSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// FetchMatchday iterates over configured sites and executes their scanners,
// preserving per-site row order.
func (s *StrategySource) FetchMatchday(ctx context.Context, matchday int, day time.Time) ([]domain.ScheduleRow, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch matchday", "sites", len(s.sites), "matchday", matchday)

	var aggregated []domain.ScheduleRow
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		req := scanner.Request{
			Matchday: matchday,
			Day:      day,
			SiteName: site.Name,
			URL:      site.URL,
			Options:  site.Options,
		}

		rows, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
		}

		s.debug("site produced rows", "site", site.Name, "count", len(rows))
		aggregated = append(aggregated, rows...)
	}

	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/scanner"
)

const matchdayParam = "spieltagIndex"

// ScheduleScanner crawls a community schedule page and extracts the matchday
// table rows. Time cells are returned verbatim: blanks and cancellation
// placeholders are identity input, not noise, so nothing is normalized here.
type ScheduleScanner struct {
	client *http.Client
}

// NewScheduleScanner wires an HTTP client; a 20s-timeout default is used when
// nil is passed.
func NewScheduleScanner(client *http.Client) *ScheduleScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ScheduleScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *ScheduleScanner) Name() string {
	return "schedule"
}

// Scan fetches the matchday page and returns its rows in table order.
func (s *ScheduleScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ScheduleRow, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no schedule url provided for site %s", req.SiteName)
	}

	pageURL, err := buildMatchdayURL(req.URL, req.Matchday)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	return extractRows(doc), nil
}

func (s *ScheduleScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MatchPredictor/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractRows(doc *goquery.Document) []domain.ScheduleRow {
	var rows []domain.ScheduleRow

	doc.Find("table tbody tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}

		rows = append(rows, domain.ScheduleRow{
			TimeText: strings.TrimSpace(cells.Eq(0).Text()),
			HomeTeam: strings.TrimSpace(cells.Eq(1).Text()),
			AwayTeam: strings.TrimSpace(cells.Eq(2).Text()),
		})
	})

	return rows
}

func buildMatchdayURL(base string, matchday int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid schedule url %s: %w", base, err)
	}

	query := parsed.Query()
	if matchday > 0 {
		query.Set(matchdayParam, strconv.Itoa(matchday))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

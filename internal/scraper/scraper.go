package scraper

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/prairiefire/wildfire-evacs/internal/evac"
)

const (
	UserAgent = "wildfire-evacs/1.0 (github.com/prairiefire/wildfire-evacs)"
	Timeout   = 30 * time.Second

	fetchRetries = 3
)

// RequiredHeaders identify an evacuation table. Tables missing either
// column are ignored.
var RequiredHeaders = []string{evac.ColumnAuthority, evac.ColumnDate}

// ExtractSummary reports what extraction saw on one page.
type ExtractSummary struct {
	TablesFound   int `json:"tables_found"`
	TablesMatched int `json:"tables_matched"`
	RowsExtracted int `json:"rows_extracted"`
}

// SourceResult holds everything scraped from one source page.
type SourceResult struct {
	Records []*evac.Record
	RawText string
	Summary ExtractSummary
}

// Scraper fetches and parses evacuation pages.
type Scraper struct {
	client *http.Client
}

// New creates a new Scraper instance.
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
	}
}

// ScrapeSource fetches one source page and extracts its evacuation records.
func (s *Scraper) ScrapeSource(name, url, runID string) (*SourceResult, error) {
	body, err := s.fetch(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer body.Close()

	return ParseSource(body, name, url, runID, time.Now().UTC())
}

// fetch retrieves a URL with exponential backoff on transient failures.
func (s *Scraper) fetch(url string) (io.ReadCloser, error) {
	var body io.ReadCloser

	operation := func() error {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body = resp.Body
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchRetries)); err != nil {
		return nil, err
	}
	return body, nil
}

// ParseSource extracts evacuation records and raw review text from HTML.
// It is the entry point for both live scrapes and saved-page replays.
func ParseSource(r io.Reader, name, url, runID string, scrapedAt time.Time) (*SourceResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	result := &SourceResult{
		Records: make([]*evac.Record, 0),
		RawText: extractRawText(doc),
	}

	prov := Provenance{
		SourceName: name,
		SourceURL:  url,
		RunID:      runID,
		ScrapedAt:  scrapedAt,
	}

	for _, table := range parseTables(doc) {
		result.Summary.TablesFound++
		records, ok := Reconstruct(table, RequiredHeaders, prov)
		if !ok {
			continue
		}
		result.Summary.TablesMatched++
		result.Records = append(result.Records, records...)
	}
	result.Summary.RowsExtracted = len(result.Records)

	return result, nil
}

// extractRawText collects the page's visible text blocks (<p>, <li>, <div>)
// for the raw-text review dump.
func extractRawText(doc *goquery.Document) string {
	blocks := make([]string, 0)
	doc.Find("p, li, div").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			blocks = append(blocks, text)
		}
	})
	return strings.Join(blocks, "\n")
}

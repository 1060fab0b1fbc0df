package census

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jszwec/csvutil"
	"github.com/prairiefire/wildfire-evacs/internal/normalize"
)

// Characteristic rows extracted from the long-format census profile.
const (
	geoLevelSubdivision = "Census subdivision"
	charPopulation      = "Population, 2021"
	charIndigenousTotal = "Indigenous identity"
	charIndigenousDenom = "Total population in private households by Indigenous identity"
)

const fetchTimeout = 90 * time.Second

//go:embed fallback_manitoba_2021.csv
var fallbackCSV []byte

// profileRow is one line of the StatsCan long-format census profile.
type profileRow struct {
	GeoLevel       string `csv:"GEO_LEVEL"`
	Characteristic string `csv:"CHARACTERISTIC_NAME"`
	DGUID          string `csv:"DGUID"`
	AltGeoCode     string `csv:"ALT_GEO_CODE"`
	GeoName        string `csv:"GEO_NAME"`
	CountTotal     string `csv:"C1_COUNT_TOTAL"`
}

// requiredColumns must all be present in the census CSV header; schema
// drift in the source is a hard failure requiring a mapping update, never
// silently defaulted.
var requiredColumns = []string{
	"GEO_LEVEL", "CHARACTERISTIC_NAME", "DGUID", "GEO_NAME", "C1_COUNT_TOTAL",
}

// Geography is one census subdivision (or designated place) in the
// reference table. Numeric fields are nil when the source row was empty or
// suppressed.
type Geography struct {
	GeoID                 string
	AltGeoCode            string
	Name                  string
	NormalizedName        string
	Population            *float64
	IndigenousPopulation  *float64
	IndigenousDenominator *float64
	IndigenousShare       *float64 // nil when the denominator is zero or missing
}

// Reference is the read-only geography lookup built once per pipeline run.
// Entries keep source order so that normalized-name collisions resolve to
// the first occurrence.
type Reference struct {
	Entries []*Geography

	byGeoID map[string]*Geography
	byNorm  map[string]*Geography // first occurrence wins
}

// Summary reports how the reference table was built.
type Summary struct {
	Source       string `json:"source"` // path, URL, or "embedded fallback"
	UsedFallback bool   `json:"used_fallback"`
	ProfileRows  int    `json:"profile_rows"`
	Subdivisions int    `json:"subdivisions"`
}

// newReference indexes a list of geographies.
func newReference(entries []*Geography) *Reference {
	ref := &Reference{
		Entries: entries,
		byGeoID: make(map[string]*Geography, len(entries)),
		byNorm:  make(map[string]*Geography, len(entries)),
	}
	for _, g := range entries {
		if _, ok := ref.byGeoID[g.GeoID]; !ok {
			ref.byGeoID[g.GeoID] = g
		}
		if _, ok := ref.byNorm[g.NormalizedName]; !ok {
			ref.byNorm[g.NormalizedName] = g
		}
	}
	return ref
}

// Lookup returns the geography with the given id.
func (r *Reference) Lookup(geoID string) (*Geography, bool) {
	g, ok := r.byGeoID[geoID]
	return g, ok
}

// FirstByNormalizedName returns the first reference entry whose normalized
// name equals norm.
func (r *Reference) FirstByNormalizedName(norm string) (*Geography, bool) {
	g, ok := r.byNorm[norm]
	return g, ok
}

// NormalizedNames returns every entry's normalized name in reference order.
func (r *Reference) NormalizedNames() []string {
	names := make([]string, len(r.Entries))
	for i, g := range r.Entries {
		names[i] = g.NormalizedName
	}
	return names
}

// Load builds the reference table from a local CSV path or an HTTP(S) URL.
// An empty source means the embedded Manitoba dataset. Remote fetch failures
// fall back to the embedded dataset; a local file that cannot be read or
// parsed is an error.
func Load(source string) (*Reference, Summary, error) {
	if source == "" {
		ref, summary, err := LoadReader(strings.NewReader(string(fallbackCSV)))
		if err != nil {
			return nil, Summary{}, fmt.Errorf("loading embedded census data: %w", err)
		}
		summary.Source = "embedded fallback"
		summary.UsedFallback = true
		return ref, summary, nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return loadRemote(source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("opening census file: %w", err)
	}
	defer f.Close()

	ref, summary, err := LoadReader(f)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("loading census file %s: %w", source, err)
	}
	summary.Source = source
	return ref, summary, nil
}

// loadRemote fetches the census CSV over HTTP with retry, falling back to
// the embedded dataset when the fetch cannot be completed.
func loadRemote(url string) (*Reference, Summary, error) {
	var data []byte

	operation := func() error {
		client := &http.Client{Timeout: fetchTimeout}
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("fetching census data: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		ref, summary, fberr := LoadReader(strings.NewReader(string(fallbackCSV)))
		if fberr != nil {
			return nil, Summary{}, fmt.Errorf("census fetch failed (%v) and fallback failed: %w", err, fberr)
		}
		summary.Source = "embedded fallback"
		summary.UsedFallback = true
		return ref, summary, nil
	}

	ref, summary, err := LoadReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, Summary{}, fmt.Errorf("parsing census data from %s: %w", url, err)
	}
	summary.Source = url
	return ref, summary, nil
}

// LoadReader parses a long-format census profile CSV and assembles the
// per-subdivision reference table.
func LoadReader(r io.Reader) (*Reference, Summary, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, Summary{}, fmt.Errorf("reading census header: %w", err)
	}

	if err := checkColumns(dec.Header()); err != nil {
		return nil, Summary{}, err
	}

	var summary Summary
	order := make([]string, 0)
	byID := make(map[string]*Geography)
	indig := make(map[string]*float64)
	denoms := make(map[string]*float64)

	for {
		var row profileRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, Summary{}, fmt.Errorf("decoding census row: %w", err)
		}
		summary.ProfileRows++

		if row.GeoLevel != geoLevelSubdivision {
			continue
		}

		switch row.Characteristic {
		case charPopulation:
			if _, ok := byID[row.DGUID]; !ok {
				byID[row.DGUID] = &Geography{
					GeoID:          row.DGUID,
					AltGeoCode:     row.AltGeoCode,
					Name:           row.GeoName,
					NormalizedName: normalize.Name(row.GeoName),
					Population:     parseCount(row.CountTotal),
				}
				order = append(order, row.DGUID)
			}
		case charIndigenousTotal:
			indig[row.DGUID] = parseCount(row.CountTotal)
		case charIndigenousDenom:
			denoms[row.DGUID] = parseCount(row.CountTotal)
		}
	}

	// Characteristic rows may arrive in any order relative to the
	// population row that defines the geography, so counts are collected
	// independently and joined here.
	entries := make([]*Geography, 0, len(order))
	for _, id := range order {
		g := byID[id]
		g.IndigenousPopulation = indig[id]
		g.IndigenousDenominator = denoms[id]
		g.IndigenousShare = share(g.IndigenousPopulation, g.IndigenousDenominator)
		entries = append(entries, g)
	}
	summary.Subdivisions = len(entries)

	return newReference(entries), summary, nil
}

// checkColumns verifies the census header carries every required column.
func checkColumns(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = struct{}{}
	}
	for _, want := range requiredColumns {
		if _, ok := present[want]; !ok {
			return fmt.Errorf("census schema drift: required column %q missing", want)
		}
	}
	return nil
}

// parseCount parses a count cell; suppressed or non-numeric values become nil.
func parseCount(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// share computes indigenous population share, nil when undefined.
func share(pop, denom *float64) *float64 {
	if pop == nil || denom == nil || *denom == 0 {
		return nil
	}
	v := *pop / *denom
	return &v
}

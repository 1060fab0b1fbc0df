package match

import (
	"fmt"
	"sort"
	"strings"
)

// lowConfidenceThreshold flags accepted matches worth manual review.
const lowConfidenceThreshold = 90

// Bucket is one range of the score distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report tracks match quality for one pipeline run. Build it from match
// results with NewReport; it is a value to carry around, not a mutable
// global.
type Report struct {
	TotalAuthorities int       `json:"total_authorities"`
	Matched          int       `json:"matched"`
	Unmatched        []*Result `json:"unmatched"`
	LowConfidence    []*Result `json:"low_confidence"`
	Scores           []int     `json:"scores"`
	EnrichedRecords  int       `json:"enriched_records"`
	TotalRecords     int       `json:"total_records"`
}

// NewReport summarizes a set of match results. Record-level enrichment
// figures are filled in later by the joiner via SetEnrichment.
func NewReport(results map[string]*Result) *Report {
	report := &Report{
		Unmatched:     make([]*Result, 0),
		LowConfidence: make([]*Result, 0),
		Scores:        make([]int, 0, len(results)),
	}

	// Iterate names in sorted order so the report is identical across
	// runs regardless of map iteration order.
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := results[name]
		report.TotalAuthorities++
		report.Scores = append(report.Scores, res.Score)

		if !res.Matched() {
			report.Unmatched = append(report.Unmatched, res)
			continue
		}
		report.Matched++
		if res.Score < lowConfidenceThreshold {
			report.LowConfidence = append(report.LowConfidence, res)
		}
	}

	sort.Slice(report.LowConfidence, func(i, j int) bool {
		if report.LowConfidence[i].Score != report.LowConfidence[j].Score {
			return report.LowConfidence[i].Score < report.LowConfidence[j].Score
		}
		return report.LowConfidence[i].Authority < report.LowConfidence[j].Authority
	})

	return report
}

// SetEnrichment records record-level join statistics.
func (r *Report) SetEnrichment(enriched, total int) {
	r.EnrichedRecords = enriched
	r.TotalRecords = total
}

// MatchRate returns the percentage of authorities successfully matched.
func (r *Report) MatchRate() float64 {
	if r.TotalAuthorities == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.TotalAuthorities) * 100
}

// EnrichmentRate returns the percentage of records enriched.
func (r *Report) EnrichmentRate() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.EnrichedRecords) / float64(r.TotalRecords) * 100
}

// ScoreDistribution buckets scores into the standard quality ranges.
func (r *Report) ScoreDistribution() []Bucket {
	buckets := []Bucket{
		{Label: "Perfect (100)"},
		{Label: "Excellent (90-99)"},
		{Label: "Good (80-89)"},
		{Label: "Fair (70-79)"},
		{Label: "Poor (<70)"},
	}
	for _, s := range r.Scores {
		switch {
		case s == 100:
			buckets[0].Count++
		case s >= 90:
			buckets[1].Count++
		case s >= 80:
			buckets[2].Count++
		case s >= 70:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

// Render formats the report for the QA text export.
func (r *Report) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "%s\nMATCH QUALITY REPORT\n%s\n", rule, rule)

	fmt.Fprintf(&b, "\n[MATCHING STATISTICS]\n")
	fmt.Fprintf(&b, "  Total unique authorities: %d\n", r.TotalAuthorities)
	fmt.Fprintf(&b, "  Successfully matched: %d\n", r.Matched)
	fmt.Fprintf(&b, "  Unmatched: %d\n", len(r.Unmatched))
	fmt.Fprintf(&b, "  Match rate: %.1f%%\n", r.MatchRate())

	fmt.Fprintf(&b, "\n[ENRICHMENT STATISTICS]\n")
	fmt.Fprintf(&b, "  Total records: %d\n", r.TotalRecords)
	fmt.Fprintf(&b, "  Records enriched: %d\n", r.EnrichedRecords)
	fmt.Fprintf(&b, "  Enrichment rate: %.1f%%\n", r.EnrichmentRate())

	fmt.Fprintf(&b, "\n[MATCH SCORE DISTRIBUTION]\n")
	for _, bucket := range r.ScoreDistribution() {
		pct := 0.0
		if r.TotalAuthorities > 0 {
			pct = float64(bucket.Count) / float64(r.TotalAuthorities) * 100
		}
		fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", bucket.Label, bucket.Count, pct)
	}

	if len(r.LowConfidence) > 0 {
		fmt.Fprintf(&b, "\n[LOW CONFIDENCE MATCHES] (%d total)\n", len(r.LowConfidence))
		fmt.Fprintf(&b, "  Top 5 matches to review:\n")
		for i, res := range r.LowConfidence {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "    - %s: score=%d\n", res.Authority, res.Score)
		}
	}

	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&b, "\n[UNMATCHED AUTHORITIES] (%d total)\n", len(r.Unmatched))
		fmt.Fprintf(&b, "  Authorities without census match:\n")
		for i, res := range r.Unmatched {
			if i == 10 {
				fmt.Fprintf(&b, "    ... and %d more\n", len(r.Unmatched)-10)
				break
			}
			fmt.Fprintf(&b, "    - %s (best score: %d)\n", res.Authority, res.Score)
		}
	}

	b.WriteString(rule + "\n")
	return b.String()
}

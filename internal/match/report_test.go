package match

import (
	"strings"
	"testing"
)

func sampleResults() map[string]*Result {
	return map[string]*Result{
		"Town of Thompson": {Authority: "Town of Thompson", NormalizedKey: "thompson", GeoID: "X1", MatchedName: "Thompson", Score: 100, MatchType: TypeCensus},
		"Snow Lake":        {Authority: "Snow Lake", NormalizedKey: "snow lake", GeoID: "X3", MatchedName: "Snow Lake", Score: 100, MatchType: TypeCensus},
		"Leaf Rapid":       {Authority: "Leaf Rapid", NormalizedKey: "leaf rapid", GeoID: "X4", MatchedName: "Leaf Rapids", Score: 95, MatchType: TypeCensus},
		"Thmpson":          {Authority: "Thmpson", NormalizedKey: "thmpson", GeoID: "X1", MatchedName: "Thompson", Score: 88, MatchType: TypeCensus},
		"Mystery Place":    {Authority: "Mystery Place", NormalizedKey: "mystery place", Score: 42},
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport(sampleResults())

	if report.TotalAuthorities != 5 {
		t.Errorf("total authorities = %d, expected 5", report.TotalAuthorities)
	}
	if report.Matched != 4 {
		t.Errorf("matched = %d, expected 4", report.Matched)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0].Authority != "Mystery Place" {
		t.Errorf("unexpected unmatched list: %+v", report.Unmatched)
	}
	if len(report.LowConfidence) != 1 || report.LowConfidence[0].Authority != "Thmpson" {
		t.Errorf("unexpected low confidence list: %+v", report.LowConfidence)
	}
	if rate := report.MatchRate(); rate != 80.0 {
		t.Errorf("match rate = %.1f, expected 80.0", rate)
	}
}

func TestScoreDistribution(t *testing.T) {
	report := NewReport(sampleResults())

	buckets := report.ScoreDistribution()
	expected := map[string]int{
		"Perfect (100)":     2,
		"Excellent (90-99)": 1,
		"Good (80-89)":      1,
		"Fair (70-79)":      0,
		"Poor (<70)":        1,
	}

	for _, bucket := range buckets {
		if want := expected[bucket.Label]; bucket.Count != want {
			t.Errorf("bucket %s = %d, expected %d", bucket.Label, bucket.Count, want)
		}
	}
}

func TestRender(t *testing.T) {
	report := NewReport(sampleResults())
	report.SetEnrichment(8, 10)

	text := report.Render()

	for _, want := range []string{
		"MATCH QUALITY REPORT",
		"Match rate: 80.0%",
		"Enrichment rate: 80.0%",
		"Perfect (100): 2",
		"Mystery Place (best score: 42)",
		"Thmpson: score=88",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestReportDeterministicOrder(t *testing.T) {
	first := NewReport(sampleResults()).Render()
	for i := 0; i < 5; i++ {
		if NewReport(sampleResults()).Render() != first {
			t.Fatal("report rendering should not depend on map iteration order")
		}
	}
}

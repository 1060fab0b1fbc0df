// Package enrich joins evacuation records to census demographics.
//
// Every evacuation record is carried through unchanged (left outer join
// semantics: never dropped, never duplicated) and gains nullable geography
// fields via its authority's match result. Records whose authority was
// never resolved keep all-null enrichment.
package enrich

import (
	"github.com/prairiefire/wildfire-evacs/internal/census"
	"github.com/prairiefire/wildfire-evacs/internal/evac"
	"github.com/prairiefire/wildfire-evacs/internal/match"
)

// Record is an evacuation record with its enrichment columns.
type Record struct {
	*evac.Record

	GeoID       string `json:"geo_id,omitempty"`
	MatchedName string `json:"matched_name,omitempty"`
	MatchScore  int    `json:"match_score"`
	MatchType   string `json:"match_type,omitempty"`

	Population           *float64 `json:"population,omitempty"`
	IndigenousPopulation *float64 `json:"indigenous_population,omitempty"`
	IndigenousShare      *float64 `json:"indigenous_share,omitempty"`
}

// Summary reports record-level join outcomes.
type Summary struct {
	TotalRecords     int `json:"total_records"`
	Enriched         int `json:"enriched"`
	Unmatched        int `json:"unmatched"`
	NullAuthorities  int `json:"null_authorities"`
	DesignatedPlaces int `json:"designated_places"`
}

// Enrich joins each record to its match result and the matched geography.
// The designated-places reference may be nil when the second pass is
// disabled. Output length always equals input length.
func Enrich(records []*evac.Record, results map[string]*match.Result, ref, places *census.Reference) ([]*Record, Summary) {
	summary := Summary{TotalRecords: len(records)}
	enriched := make([]*Record, 0, len(records))

	for _, rec := range records {
		out := &Record{Record: rec}
		enriched = append(enriched, out)

		if rec.Authority == "" {
			summary.NullAuthorities++
			summary.Unmatched++
			continue
		}

		res, ok := results[rec.Authority]
		if !ok || !res.Matched() {
			if ok {
				out.MatchScore = res.Score
			}
			summary.Unmatched++
			continue
		}

		out.GeoID = res.GeoID
		out.MatchedName = res.MatchedName
		out.MatchScore = res.Score
		out.MatchType = res.MatchType
		summary.Enriched++
		if res.MatchType == match.TypeDesignatedPlace {
			summary.DesignatedPlaces++
		}

		// Defensive: a geo id the reference does not know leaves the
		// demographic fields null rather than failing the join.
		geo, found := lookupGeo(res, ref, places)
		if !found {
			continue
		}
		out.Population = geo.Population
		out.IndigenousPopulation = geo.IndigenousPopulation
		out.IndigenousShare = geo.IndigenousShare
	}

	return enriched, summary
}

// lookupGeo resolves a match result's geo id in the reference that
// produced it.
func lookupGeo(res *match.Result, ref, places *census.Reference) (*census.Geography, bool) {
	if res.MatchType == match.TypeDesignatedPlace {
		if places == nil {
			return nil, false
		}
		return places.Lookup(res.GeoID)
	}
	return ref.Lookup(res.GeoID)
}

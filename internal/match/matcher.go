package match

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/prairiefire/wildfire-evacs/internal/census"
	"github.com/prairiefire/wildfire-evacs/internal/normalize"
	"github.com/xrash/smetrics"
)

// DefaultCutoff is the minimum accepted match score.
const DefaultCutoff = 80

// Match types distinguishing how a geography was resolved.
const (
	TypeCensus          = "census"
	TypeDesignatedPlace = "designated_place"
)

// Result is the match outcome for one distinct authority name.
type Result struct {
	Authority     string `json:"authority" csv:"authority"`
	NormalizedKey string `json:"normalized_key" csv:"normalized_key"`
	// GeoID is empty when the match was rejected; MatchedName records
	// which reference entry was chosen.
	GeoID       string `json:"geo_id,omitempty" csv:"geo_id"`
	MatchedName string `json:"matched_name,omitempty" csv:"matched_name"`
	Score       int    `json:"score" csv:"score"`
	MatchType   string `json:"match_type,omitempty" csv:"match_type"`
}

// Matched reports whether the result resolved to a geography.
func (r *Result) Matched() bool {
	return r.GeoID != ""
}

// Authorities matches each distinct authority name against the census
// reference, returning results keyed by the name as it appeared. Matching
// is O(names × reference entries), acceptable at this pipeline's scale.
func Authorities(names []string, ref *census.Reference, cutoff int) map[string]*Result {
	results := make(map[string]*Result, len(names))
	for _, name := range names {
		results[name] = matchOne(name, ref, cutoff)
	}
	return results
}

// matchOne scores one authority against the full reference list.
func matchOne(name string, ref *census.Reference, cutoff int) *Result {
	result := &Result{
		Authority:     name,
		NormalizedKey: normalize.Name(name),
	}
	if result.NormalizedKey == "" {
		return result
	}

	bestScore := -1
	bestJW := -1.0
	bestNorm := ""

	for _, refName := range ref.NormalizedNames() {
		score := Score(result.NormalizedKey, refName)
		if score < bestScore {
			continue
		}
		jw := smetrics.JaroWinkler(result.NormalizedKey, refName, 0.7, 4)
		// Strictly-better score wins; equal scores fall to Jaro-Winkler,
		// then to the earlier reference entry.
		if score > bestScore || jw > bestJW {
			bestScore, bestJW, bestNorm = score, jw, refName
		}
	}

	if bestScore < 0 {
		return result
	}
	result.Score = bestScore

	if bestScore < cutoff {
		return result
	}

	// Normalized-name collisions resolve to the first occurrence in
	// reference order.
	geo, ok := ref.FirstByNormalizedName(bestNorm)
	if !ok {
		return result
	}
	result.GeoID = geo.GeoID
	result.MatchedName = geo.Name
	result.MatchType = TypeCensus
	return result
}

// DesignatedPlaces runs the supplementary second pass: authorities that
// failed the census match are looked up by exact normalized name in the
// designated-places reference. Hits carry a fixed score of 100 and the
// designated_place match type; census results are never overwritten.
func DesignatedPlaces(results map[string]*Result, places *census.Reference) int {
	upgraded := 0
	for _, res := range results {
		if res.Matched() || res.NormalizedKey == "" {
			continue
		}
		geo, ok := places.FirstByNormalizedName(res.NormalizedKey)
		if !ok {
			continue
		}
		res.GeoID = geo.GeoID
		res.MatchedName = geo.Name
		res.Score = 100
		res.MatchType = TypeDesignatedPlace
		upgraded++
	}
	return upgraded
}

// Score computes a 0-100 similarity between two normalized strings: the
// better of the plain edit-distance ratio and the token-sort ratio, so that
// word-order differences ("lake snow" vs "snow lake") still score high.
func Score(a, b string) int {
	plain := ratio(a, b)
	tokens := ratio(sortTokens(a), sortTokens(b))
	if tokens > plain {
		return tokens
	}
	return plain
}

// ratio is the normalized Levenshtein similarity scaled to 0-100.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// sortTokens rebuilds a string from its whitespace tokens in sorted order.
func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Package match resolves evacuation authority names to census geographies.
//
// Matching is a deterministic best-score scan of the full reference list
// using normalized-edit-distance and token-sort ratios scaled to 0-100,
// with Jaro-Winkler similarity breaking score ties and list order breaking
// anything left. Scores below the cutoff reject the match but are kept for
// diagnostics. A MatchReport accumulates rates, score distribution, and the
// unmatched and low-confidence name lists for QA export.
package match

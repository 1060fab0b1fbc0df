// Package scraper provides HTTP fetching and HTML table extraction for
// provincial wildfire evacuation pages.
//
// The scraper fetches a government evacuation page, locates tables carrying
// the required evacuation headers, and reconstructs logical records from
// them, propagating values through merged cells (rowspan/colspan). Tables
// failing header validation contribute no records. The page's visible text
// is also captured verbatim for manual review.
package scraper

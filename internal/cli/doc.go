// Package cli implements the command-line interface for wildfire-evacs.
//
// The cli package provides the Cobra-based CLI that runs the full pipeline:
// scraping evacuation pages, cleaning the extracted rows, loading the census
// reference, fuzzy-matching authorities, enriching records, writing output
// artifacts, and diffing against the previous run's snapshot. It coordinates
// the scraper, evac, census, match, enrich, export, and storage packages.
package cli

// Package evac provides types and functions for wildfire evacuation records.
//
// The evac package handles the record model produced by table extraction,
// lenient parsing of evacuation dates, the cleaning pass (section-header
// filtering, authority forward-fill, event id derivation), and snapshot-based
// detection of records that are new since the previous run.
package evac

// Package census builds the geography reference table used for enrichment.
//
// The primary source is a Statistics Canada census profile CSV in long
// format (one row per geography × characteristic), loaded from a local file
// or fetched over HTTP(S); when a remote fetch fails, a small embedded
// Manitoba dataset keeps the pipeline runnable. A secondary source, the
// Geographical Names Board of Canada (GNBC) geoname service, supplies
// designated places (lakes, parks, unincorporated communities) that fall
// outside census subdivision boundaries.
package census

// Package model defines the core data structures used throughout leadscan.
//
// This package contains the following main types:
//   - Page: A fetched web page with its decoded body
//   - SiteRecord: The contacts extracted for one seed URL
//   - RunStatistics: Aggregate counters for a crawl run
//   - RunResult: The ordered records and statistics of a run
package model

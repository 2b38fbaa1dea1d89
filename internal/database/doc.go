// Package database stores run history in SQLite.
//
// Every run is saved with its statistics and one row per site, so past
// results can be listed, re-exported or compared per domain without
// crawling again. The driver is modernc.org/sqlite, which needs no cgo.
package database

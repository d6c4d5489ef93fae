// Package database archives finished crawl runs in SQLite.
//
// ResultDB stores one row per run together with the URLs it crawled and the
// triplets it collected, so the history command can list past runs and
// print any of them again. The archive is write-once per run: a worker is
// never resumed from it.
//
// The driver is modernc.org/sqlite, which needs no cgo. The database is a
// single file, usercrawl.db, in the configured directory.
package database

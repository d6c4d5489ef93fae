// Package pipeline runs crawl workers for many seeds and hands each finished
// run to a sequence of post-run steps.
//
// A BatchProcessor builds one crawler.Worker per seed through a factory and
// runs up to a configured number of them at once with errgroup. Workers share
// nothing, so one user's failure never affects another's run.
//
// Once a worker returns, its RunSummary goes through a Pipeline: an ordered
// list of Steps such as archiving the run to SQLite or writing a report.
package pipeline

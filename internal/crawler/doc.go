// Package crawler implements the crawl worker for a single user profile.
//
// # Architecture
//
// The package is built around the Worker type, which drives one crawl from
// a seed URL. It pops URLs from a Frontier, fetches them through a Fetcher,
// turns the markup into triplets with a Parser, and hands results to a
// Submitter (the mothership).
//
// # Components
//
//   - Worker: The crawl loop and its RUNNING/DONE/FAILED state machine
//   - Frontier: The to-crawl queue and crawled set, with dedup and capacity
//   - Parser: Markup to (triplets, next page URL)
//   - HTTPFetcher: The fetch capability over net/http
//
// # Failure behavior
//
// Fetch, parse, and submit errors are not caught or retried inside Run.
// They are returned to the caller as-is, and the worker keeps whatever
// progress it made, so callers can inspect ToCrawl, Crawled, and Results
// after a failed run.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(httpClient)
//	worker, err := crawler.NewWorker(seed, fetcher, mothershipClient)
//	if err != nil {
//		return err
//	}
//	if err := worker.Run(ctx); err != nil {
//		// worker.Crawled() and worker.Results() still hold partial progress
//	}
package crawler

// Package report renders the summary of a crawl run.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: JSON for other tools
//   - MarkdownWriter: GitHub Flavored Markdown with tables and alerts
//   - MultiWriter: fans one summary out to several writers
//
// Every writer takes a *model.RunSummary, so the same report can be printed
// right after a crawl or later from the archive.
package report

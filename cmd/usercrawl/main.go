// Package main provides the entry point for the usercrawl CLI.
//
// usercrawl crawls the public activity pages of one or more users, extracts
// a (title, link, community) triplet per listing, and submits the results to
// a collection server (the mothership).
//
// Usage:
//
//	usercrawl crawl --mothership http://collector:9000 https://old.reddit.com/user/someone
//	usercrawl parse saved_page.html
//	usercrawl history
//
// See --help for all available options.
package main

func main() {
	Execute()
}

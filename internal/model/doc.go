// Package model defines the core data structures shared by usercrawl packages.
//
// This package contains the following main types:
//   - Triplet: One structured result extracted from a listing element
//   - Ack: The mothership acknowledgement for a submission
//   - RunSummary: The inspectable record of a single crawl run
//
// The crawler, mothership, database, and report packages all exchange these
// types, so they live here to keep the import graph acyclic.
//
// All types are serializable to JSON for report output and database storage.
package model

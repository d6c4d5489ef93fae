// Package mothership submits crawl results to the remote collection
// endpoint.
//
// The wire format is one JSON document per submission:
//
//	POST <base>/results
//	{"worker": "<seed URL>", "results": [["label", "value", "metadata"], ...]}
//
// A 2xx response is a success; its body may carry {"accepted": n, "id": "..."}.
// Transport failures wrap ErrUnreachable and non-2xx responses wrap
// ErrRejected. Requests are never retried.
package mothership

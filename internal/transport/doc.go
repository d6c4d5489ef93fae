// Package transport builds the HTTP clients used to fetch listing pages.
//
// A Client is created from Options. Without a proxy address it is a plain
// HTTP client with a timeout, a cookie jar, and a redirect limit. With a
// proxy address every connection is dialed through a SOCKS5 proxy using
// golang.org/x/net/proxy:
//
//	client, err := transport.NewClient(transport.Options{
//	    Timeout:      30 * time.Second,
//	    ProxyAddress: "127.0.0.1:1080",
//	})
//	if err != nil {
//	    return err
//	}
//	if status := client.CheckProxy(ctx); status != transport.ProxyStatusOK {
//	    return status.Error()
//	}
//	fetcher := crawler.NewHTTPFetcher(client.HTTPClient())
//
// Constructing a Client never touches the network. CheckProxy performs a
// SOCKS5 handshake so a misconfigured proxy is reported before crawling.
package transport

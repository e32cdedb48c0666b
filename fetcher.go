package sitecrawl

import "context"

// Response is the raw result of fetching a URL.
type Response struct {
	URL        string
	StatusCode int
	Body       string // decoded to UTF-8
}

// Fetcher retrieves pages over the network.
// Fetch returns a Response for any HTTP status; transport failures,
// timeouts and body decoding failures are returned as errors.
type Fetcher interface {
	// Fetch performs a GET request for the URL.
	// The context controls cancellation; implementations enforce their own
	// per-request timeout.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}

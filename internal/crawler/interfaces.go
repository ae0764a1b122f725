package crawler

import "context"

// Fetcher retrieves a URL. Implementations return a *StatusError for non-2xx
// responses and a wrapped transport error when no response arrived.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

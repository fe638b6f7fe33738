package youtube

import (
	"net/http"
	"time"
)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCacheTTL cambia cuánto se recuerda un título (0 desactiva el cache).
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.ttl = d }
}

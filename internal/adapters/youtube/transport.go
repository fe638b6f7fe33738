package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBase = "https://www.youtube.com"
	defaultTTL  = 30 * time.Minute
)

type cached struct {
	title string
	at    time.Time
}

type Client struct {
	http    *http.Client
	baseURL string
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cached
	now   func() time.Time
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBase,
		ttl:     defaultTTL,
		cache:   make(map[string]cached),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// doJSON: arma la URL, maneja 404 y un reintento en 429 según Retry-After.
func (c *Client) doJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, path, q, out, true)
}

func (c *Client) do(ctx context.Context, path string, q url.Values, out any, retry bool) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("oembed http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
			select {
			case <-time.After(time.Duration(sec) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			return c.do(ctx, path, q, out, false)
		}
	}

	// youtube contesta 401/403 para videos privados o con embebido deshabilitado
	switch res.StatusCode {
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return json.NewDecoder(res.Body).Decode(out)
}

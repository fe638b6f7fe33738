package youtube

import (
	"context"
	"net/url"
)

// Title devuelve el título público de un video vía oEmbed, con cache.
func (c *Client) Title(ctx context.Context, videoURL string) (string, error) {
	if t, ok := c.lookup(videoURL); ok {
		return t, nil
	}

	q := url.Values{}
	q.Set("url", videoURL)
	q.Set("format", "json")

	var dto oembedDTO
	if err := c.doJSON(ctx, "/oembed", q, &dto); err != nil {
		return "", err
	}
	c.store(videoURL, dto.Title)
	return dto.Title, nil
}

func (c *Client) lookup(key string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return "", false
	}
	return e.title, true
}

func (c *Client) store(key, title string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[key] = cached{title: title, at: c.now()}
	c.mu.Unlock()
}

// Package renderclient calls the preview endpoint to turn raw markup
// into display HTML. Rendering is cosmetic: every failure degrades to an
// empty rendering so the editor never blocks on it.
package renderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client renders markup via POST {base}/notes/preview.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the Bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the given API base URL, e.g.
// "http://localhost:8080/api".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type previewRequest struct {
	Text string `json:"text"`
}

type previewResponse struct {
	HTML string `json:"html"`
}

// Render returns the HTML rendering of markup. Any failure (transport,
// non-200 status, malformed body) returns an empty string and a nil
// error: an empty rendering is the defined degraded state, not a fault
// the caller should handle.
func (c *Client) Render(ctx context.Context, markup string) (string, error) {
	body, err := json.Marshal(previewRequest{Text: markup})
	if err != nil {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/notes/preview", bytes.NewReader(body))
	if err != nil {
		slog.Debug("preview request build failed", slog.String("error", err.Error()))
		return "", nil
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("preview request failed", slog.String("error", err.Error()))
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("preview request rejected", slog.Int("status", resp.StatusCode))
		return "", nil
	}

	var out previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		slog.Debug("preview response malformed", slog.String("error", err.Error()))
		return "", nil
	}
	return out.HTML, nil
}

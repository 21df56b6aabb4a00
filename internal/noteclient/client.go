// Package noteclient is the HTTP client for the notes API, used by the
// terminal editor front end. Unlike rendering, persistence failures are
// real errors and are returned to the caller.
package noteclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/halvard/othala/internal/apperr"
)

const defaultTimeout = 15 * time.Second

// Note is the API's note representation.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Links        []string  `json:"links"`
	MissingLinks []string  `json:"missing_links"`
	Backlinks    []string  `json:"backlinks"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Client talks to the notes API.
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

// New creates a Client for the given API base URL.
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

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return apperr.ErrAlreadyExists
	case resp.StatusCode >= 400:
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Get fetches a single note by id.
func (c *Client) Get(ctx context.Context, id string) (*Note, error) {
	var n Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+id, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Titles returns every note title.
func (c *Client) Titles(ctx context.Context) ([]string, error) {
	var out struct {
		Titles []string `json:"titles"`
	}
	if err := c.do(ctx, http.MethodGet, "/titles", nil, &out); err != nil {
		return nil, err
	}
	return out.Titles, nil
}

// Create makes a new note and returns it.
func (c *Client) Create(ctx context.Context, title, content string) (*Note, error) {
	req := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}{Title: title, Content: content}
	var n Note
	if err := c.do(ctx, http.MethodPost, "/notes", req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote persists new title and content for a note. It satisfies the
// editor's saver contract.
func (c *Client) UpdateNote(ctx context.Context, id, title, content string) error {
	req := struct {
		Title   *string `json:"title,omitempty"`
		Content *string `json:"content,omitempty"`
	}{Title: &title, Content: &content}
	return c.do(ctx, http.MethodPatch, "/notes/"+id, req, nil)
}

// Delete removes a note.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+id, nil, nil)
}

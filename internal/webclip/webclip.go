// Package webclip fetches a web page and reduces it to a note: the page
// title becomes the note title and a tag-stripped text extraction
// becomes the content.
package webclip

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/halvard/othala/internal/apperr"
)

const (
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 4 << 20
)

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
)

// Clip is the extracted page.
type Clip struct {
	Title   string
	Content string
}

// Clipper fetches pages.
type Clipper struct {
	http *http.Client
}

// New creates a Clipper.
func New() *Clipper {
	return &Clipper{http: &http.Client{Timeout: defaultTimeout}}
}

// NewWithClient creates a Clipper with a custom HTTP client.
func NewWithClient(hc *http.Client) *Clipper {
	return &Clipper{http: hc}
}

// Fetch downloads rawURL and extracts title and text. Only http and
// https URLs are accepted; the scheme is checked before any network
// traffic.
func (c *Clipper) Fetch(ctx context.Context, rawURL string) (*Clip, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url", apperr.ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", apperr.ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: url has no host", apperr.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := string(body)
	title := u.Host
	if m := titleRe.FindStringSubmatch(page); m != nil {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			title = t
		}
	}
	return &Clip{Title: title, Content: extractText(page)}, nil
}

// extractText strips markup down to readable plain text.
func extractText(page string) string {
	text := scriptRe.ReplaceAllString(page, "")
	text = tagRe.ReplaceAllString(text, "\n")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

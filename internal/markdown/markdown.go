// Package markdown renders raw note markup to HTML. Wikilinks are
// rewritten to anchors before the Markdown pass; every anchor carries a
// data-wikilink attribute naming its target so editors can reconstruct
// the [[Title]] syntax from rendered content.
package markdown

import (
	"html"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/halvard/othala/internal/wikilink"
)

// Resolver maps a wikilink target title to the href of an existing note.
// ok is false when no note with that title exists.
type Resolver func(title string) (href string, ok bool)

// Renderer converts raw markup to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer. Unsafe rendering is required so the
// injected wikilink anchors survive the Markdown pass.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Render converts markup to HTML. Wikilink targets that resolve get an
// anchor to the note; unresolved targets link to the create page and are
// tagged with a "missing" class. Both keep the data-wikilink marker.
func (r *Renderer) Render(markup string, resolve Resolver) (string, error) {
	anchored := wikilink.Replace(markup, func(target string) string {
		esc := html.EscapeString(target)
		if href, ok := resolve(target); ok {
			return `<a href="` + html.EscapeString(href) + `" data-wikilink="` + esc + `">` + esc + `</a>`
		}
		return `<a href="/create/?title=` + url.QueryEscape(target) + `" class="missing" data-wikilink="` + esc + `">` + esc + `</a>`
	})

	var b strings.Builder
	if err := r.md.Convert([]byte(anchored), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

package unrender

import "testing"

func TestHTMLToMarkup_CrossReferenceAnchor(t *testing.T) {
	// The marker attribute wins; visible text is discarded.
	got := HTMLToMarkup(`<a href="/notes/1" data-wikilink="Foo Bar" class="missing">anything at all</a>`)
	if got != "[[Foo Bar]]" {
		t.Errorf("got %q, want %q", got, "[[Foo Bar]]")
	}
}

func TestHTMLToMarkup_Headings(t *testing.T) {
	tests := []struct{ in, want string }{
		{`<h1>Top</h1>`, "# Top"},
		{`<h2 class="x">Sub</h2>`, "## Sub"},
		{`<h3>Deep</h3>`, "### Deep"},
		{`<h2>Mixed <em>nested</em> tags</h2>`, "## Mixed nested tags"},
	}
	for _, tt := range tests {
		if got := HTMLToMarkup(tt.in); got != tt.want {
			t.Errorf("HTMLToMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTMLToMarkup_InlineStyles(t *testing.T) {
	tests := []struct{ in, want string }{
		{`<strong>bold</strong>`, "**bold**"},
		{`<em>slanted</em>`, "*slanted*"},
		{`<code>x := 1</code>`, "`x := 1`"},
		{`<p><strong>bold</strong></p>`, "**bold**"},
	}
	for _, tt := range tests {
		if got := HTMLToMarkup(tt.in); got != tt.want {
			t.Errorf("HTMLToMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTMLToMarkup_PlainAnchorDropsHref(t *testing.T) {
	// Known lossy boundary: non-wikilink anchors keep their text only.
	got := HTMLToMarkup(`before <a href="https://example.com">the link</a> after`)
	if got != "before the link after" {
		t.Errorf("got %q", got)
	}
}

func TestHTMLToMarkup_BreaksAndParagraphs(t *testing.T) {
	if got := HTMLToMarkup("one<br>two<br/>three"); got != "one\ntwo\nthree" {
		t.Errorf("br: got %q", got)
	}
	if got := HTMLToMarkup("<p>first</p><p>second</p>"); got != "first\n\nsecond" {
		t.Errorf("paragraphs: got %q", got)
	}
}

func TestHTMLToMarkup_UnrecognisedStructureDegrades(t *testing.T) {
	// Foreign markup is stripped, never an error.
	got := HTMLToMarkup(`<div data-x="1"><span>kept text</span></div><table><tr><td>cell</td></tr></table>`)
	if got != "kept textcell" {
		t.Errorf("got %q", got)
	}
}

func TestHTMLToMarkup_CollapsesBlankRuns(t *testing.T) {
	got := HTMLToMarkup("<p>a</p><br><br><br><p>b</p>")
	if got != "a\n\nb" {
		t.Errorf("got %q", got)
	}
}

func TestHTMLToMarkup_WikilinkBeforePlainAnchorRule(t *testing.T) {
	// A marked anchor must not be consumed by the plain-anchor rule even
	// though it also carries an href.
	in := `<p><a href="/notes/x" data-wikilink="X">X</a> and <a href="/y">y</a></p>`
	if got := HTMLToMarkup(in); got != "[[X]] and y" {
		t.Errorf("got %q", got)
	}
}

func TestHTMLToMarkup_PlainTextPassesThrough(t *testing.T) {
	if got := HTMLToMarkup("just text with [[Existing]] syntax"); got != "just text with [[Existing]] syntax" {
		t.Errorf("got %q", got)
	}
}

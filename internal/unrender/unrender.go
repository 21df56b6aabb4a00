// Package unrender reconstructs raw markup from an edited rendered
// fragment. The transform is a fixed set of ordered pattern rules, not a
// general HTML parser: structure the rules don't recognise degrades to
// stripped plain text. Cross-reference anchors are the only element
// recovered losslessly, via their data-wikilink attribute.
package unrender

import (
	"regexp"
	"strings"
)

var (
	wikiAnchorRe  = regexp.MustCompile(`(?is)<a[^>]*data-wikilink="([^"]+)"[^>]*>[^<]*</a>`)
	h1Re          = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	h2Re          = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)
	h3Re          = regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`)
	strongRe      = regexp.MustCompile(`(?is)<strong[^>]*>(.*?)</strong>`)
	emRe          = regexp.MustCompile(`(?is)<em[^>]*>(.*?)</em>`)
	codeRe        = regexp.MustCompile(`(?is)<code[^>]*>(.*?)</code>`)
	plainAnchorRe = regexp.MustCompile(`(?is)<a[^>]*href="[^"]*"[^>]*>(.*?)</a>`)
	brRe          = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphRe   = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	anyTagRe      = regexp.MustCompile(`<[^>]+>`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// HTMLToMarkup converts an edited rendered fragment back to raw markup.
// Rules are applied in order; each consumes its matched span. The visible
// text of a cross-reference anchor is discarded — the marker attribute is
// authoritative for the link target. Plain anchors keep their inner text
// only; the href is intentionally dropped.
func HTMLToMarkup(fragment string) string {
	s := fragment
	s = sub(s, wikiAnchorRe, func(target string) string { return "[[" + target + "]]" })
	s = sub(s, h1Re, func(inner string) string { return "# " + stripTags(inner) })
	s = sub(s, h2Re, func(inner string) string { return "## " + stripTags(inner) })
	s = sub(s, h3Re, func(inner string) string { return "### " + stripTags(inner) })
	s = sub(s, strongRe, func(inner string) string { return "**" + stripTags(inner) + "**" })
	s = sub(s, emRe, func(inner string) string { return "*" + stripTags(inner) + "*" })
	s = sub(s, codeRe, func(inner string) string { return "`" + stripTags(inner) + "`" })
	s = sub(s, plainAnchorRe, func(inner string) string { return stripTags(inner) })
	s = brRe.ReplaceAllString(s, "\n")
	s = sub(s, paragraphRe, func(inner string) string { return stripTags(inner) + "\n\n" })
	s = stripTags(s)
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// sub rewrites every match of re using the first capture group.
func sub(s string, re *regexp.Regexp, f func(group string) string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return f(re.FindStringSubmatch(m)[1])
	})
}

func stripTags(s string) string {
	return anyTagRe.ReplaceAllString(s, "")
}

package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	reportPolicy = newReportPolicy()
	stripPolicy  = bluemonday.StrictPolicy()
)

func newReportPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "u", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "span", "div", "table", "thead",
		"tbody", "tr", "th", "td", "pre", "code",
	)
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class", "id").Globally()
	p.RequireNoFollowOnLinks(true)
	return p
}

// SanitizeHTML keeps the semantic markup reports use and drops scripts,
// event handlers and anything else.
func SanitizeHTML(s string) string {
	return reportPolicy.Sanitize(s)
}

// StripHTML removes all markup and decodes entities.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

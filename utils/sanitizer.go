package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	// StrictPolicy strips all markup
	StrictPolicy *bluemonday.Policy
	// MailPolicy allows the subset of HTML that mail bodies commonly use
	MailPolicy *bluemonday.Policy
)

func init() {
	StrictPolicy = bluemonday.StrictPolicy()

	MailPolicy = bluemonday.UGCPolicy()
	MailPolicy.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	MailPolicy.AllowElements("strong", "em", "u", "s", "code", "pre")
	MailPolicy.AllowElements("ul", "ol", "li", "blockquote")
	MailPolicy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	MailPolicy.AllowAttrs("href").OnElements("a")
	MailPolicy.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	MailPolicy.AllowAttrs("style").OnElements("span", "div", "p")
	MailPolicy.RequireParseableURLs(true)
	MailPolicy.AllowURLSchemes("http", "https", "mailto")
}

// SanitizeHTML sanitizes an HTML mail body for rendering
func SanitizeHTML(body string) string {
	return MailPolicy.Sanitize(body)
}

// StripHTML removes all HTML tags from content
func StripHTML(body string) string {
	return StrictPolicy.Sanitize(body)
}

// Preview derives a short plain-text preview from a message. The text body
// wins when present; otherwise the HTML body is tokenized and its text nodes
// joined, so tags and attributes never leak into list views.
func Preview(text, htmlBody string, max int) string {
	s := strings.TrimSpace(text)
	if s == "" && htmlBody != "" {
		s = htmlToText(htmlBody)
	}
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 {
		// Truncate on a rune boundary, never mid-character.
		if r := []rune(s); len(r) > max {
			s = string(r[:max]) + "…"
		}
	}
	return s
}

func htmlToText(body string) string {
	tok := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	skip := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := tok.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

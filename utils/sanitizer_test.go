package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTMLDropsScripts(t *testing.T) {
	out := SanitizeHTML(`<p>Hello</p><script>alert("x")</script>`)
	assert.Contains(t, out, "<p>Hello</p>")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "alert")
}

func TestSanitizeHTMLDropsEventHandlers(t *testing.T) {
	out := SanitizeHTML(`<div onclick="steal()">click me</div>`)
	assert.Contains(t, out, "click me")
	assert.NotContains(t, out, "onclick")
}

func TestSanitizeHTMLKeepsMailMarkup(t *testing.T) {
	in := `<h2>Report</h2><ul><li><strong>done</strong></li></ul><a href="https://example.com">link</a>`
	out := SanitizeHTML(in)
	assert.Contains(t, out, "<h2>Report</h2>")
	assert.Contains(t, out, "<strong>done</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestSanitizeHTMLRejectsJavascriptURLs(t *testing.T) {
	out := SanitizeHTML(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain words", StripHTML(`<b>plain</b> <i>words</i>`))
}

func TestPreviewPrefersTextBody(t *testing.T) {
	got := Preview("  the   text body ", "<p>the html body</p>", 120)
	assert.Equal(t, "the text body", got)
}

func TestPreviewFallsBackToHTML(t *testing.T) {
	got := Preview("", `<div><p>Hello</p><script>var x = 1;</script><p>world</p></div>`, 120)
	assert.Equal(t, "Hello world", got)
	assert.NotContains(t, got, "var x")
}

func TestPreviewTruncates(t *testing.T) {
	got := Preview(strings.Repeat("a", 200), "", 50)
	assert.Equal(t, strings.Repeat("a", 50)+"…", got)
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	got := Preview(strings.Repeat("é", 60), "", 50)
	assert.Equal(t, strings.Repeat("é", 50)+"…", got)
	assert.True(t, utf8.ValidString(got))
}

func TestPreviewEmpty(t *testing.T) {
	assert.Equal(t, "", Preview("", "", 120))
}

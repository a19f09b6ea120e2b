package markdown

import (
	"regexp"
	"strings"
)

var (
	boldRE   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRE = regexp.MustCompile(`\*(.*?)\*`)
	strikeRE = regexp.MustCompile(`~~(.*?)~~`)
	codeRE   = regexp.MustCompile("`(.*?)`")
	linkRE   = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)

	// Only these schemes are rendered as live links; anything else
	// collapses to the label so link syntax cannot smuggle javascript:
	// or data: URLs into the output.
	safeSchemeRE = regexp.MustCompile(`(?i)^(https?:|mailto:)`)

	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
)

// EscapeText neutralizes markup characters in raw text. It must run before
// any inline substitution so user content cannot reintroduce live markup.
func EscapeText(text string) string {
	return escaper.Replace(text)
}

// FormatInline converts a small Markdown subset to HTML-tagged text:
// bold, italic, strikethrough, inline code, and links. The input is
// escaped first; substitution order matters since ** must be consumed
// before *.
func FormatInline(text string) string {
	out := EscapeText(text)
	out = boldRE.ReplaceAllString(out, "<b>$1</b>")
	out = italicRE.ReplaceAllString(out, "<i>$1</i>")
	out = strikeRE.ReplaceAllString(out, "<s>$1</s>")
	out = codeRE.ReplaceAllString(out, "<code>$1</code>")
	out = linkRE.ReplaceAllStringFunc(out, func(match string) string {
		m := linkRE.FindStringSubmatch(match)
		label, url := m[1], m[2]
		if safeSchemeRE.MatchString(url) {
			return `<a href="` + url + `">` + label + `</a>`
		}
		return label
	})
	return out
}

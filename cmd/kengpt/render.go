package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/markdown"
)

// renderResponse writes one message to the terminal. Prose prints as-is;
// fenced code is set off with an indented body and a language header so
// it survives copy/paste.
func renderResponse(w io.Writer, message chat.Message, showThoughts bool) {
	if showThoughts && message.HasThoughts() {
		for _, thought := range message.Thoughts {
			fmt.Fprintf(w, "  [thinking] %s\n", thought)
		}
		fmt.Fprintln(w)
	}

	for _, content := range message.Contents {
		if content.Format != chat.FormatText {
			renderAttachment(w, content)
			continue
		}
		for _, block := range markdown.Segment(content.Content) {
			switch block.Kind {
			case markdown.BlockCode:
				label := block.Language
				if label == "" {
					label = "code"
				}
				fmt.Fprintf(w, "--- %s ---\n", label)
				for _, line := range strings.Split(block.Content, "\n") {
					fmt.Fprintf(w, "    %s\n", line)
				}
				fmt.Fprintln(w, "---")
			default:
				if block.Content != "" {
					fmt.Fprintln(w, block.Content)
				}
			}
		}
	}

	if message.ModelSignature != "" {
		fmt.Fprintf(w, "\n  (%s)\n", message.ModelSignature)
	}
}

func renderAttachment(w io.Writer, content chat.Content) {
	desc := content.Description
	if desc == "" {
		desc = content.Content
	}
	fmt.Fprintf(w, "[%s: %s]\n", content.Format, desc)
}

// exportTranscriptHTML renders the transcript as a standalone page. All
// message text passes through the escaping formatter; code blocks are
// escaped only, with no inline substitution.
func exportTranscriptHTML(memory []chat.Message, profile chat.Profile) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + markdown.EscapeText(profile.Botname) + " transcript</title>\n")
	b.WriteString(`<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
.msg { margin: 1rem 0; padding: 0.5rem 1rem; border-radius: 0.5rem; }
.user { background: #e8f0fe; }
.assistant { background: #f1f3f4; }
.meta { font-size: 0.8rem; color: #555; }
pre { background: #202124; color: #e8eaed; padding: 0.75rem; overflow-x: auto; }
</style>
`)
	b.WriteString("</head>\n<body>\n")
	b.WriteString("<h1>" + markdown.EscapeText(profile.Botname) + "</h1>\n")

	for _, message := range memory {
		author := profile.Username
		if author == "" {
			author = "You"
		}
		if message.Role == chat.RoleAssistant {
			author = profile.Botname
		}
		stamp := time.UnixMilli(message.Timestamp).Format("2006-01-02 15:04")

		b.WriteString(fmt.Sprintf("<div class=\"msg %s\">\n", message.Role))
		b.WriteString(fmt.Sprintf("<div class=\"meta\">%s &middot; %s</div>\n",
			markdown.EscapeText(author), stamp))

		for _, content := range message.Contents {
			if content.Format != chat.FormatText {
				b.WriteString("<p><em>[" + markdown.EscapeText(string(content.Format)) + " attachment]</em></p>\n")
				continue
			}
			for _, block := range markdown.Segment(content.Content) {
				switch block.Kind {
				case markdown.BlockCode:
					b.WriteString("<pre><code>" + markdown.EscapeText(block.Content) + "</code></pre>\n")
				default:
					if block.Content == "" {
						continue
					}
					for _, para := range strings.Split(block.Content, "\n\n") {
						b.WriteString("<p>" + markdown.FormatInline(para) + "</p>\n")
					}
				}
			}
		}

		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

// BlockKind separates prose from fenced code when a message is rendered.
type BlockKind string

const (
	BlockText BlockKind = "text"
	BlockCode BlockKind = "code"
)

// Block is one typed fragment of a segmented message.
type Block struct {
	Kind     BlockKind
	Language string // code blocks only; empty means no language hint
	Content  string
}

// Fenced regions are delimited by triple backticks and cannot nest: the
// interior excludes backticks entirely. An unterminated fence never
// matches and its content falls through as literal text.
var (
	fencedRE    = regexp.MustCompile("```[^`]*```")
	openFenceRE = regexp.MustCompile("```(.*)\n")
)

// Segment splits raw message text into an alternating sequence of text and
// code blocks. The result always starts and ends with a text block
// (possibly empty): text, code, text, code, ..., text. Text blocks are
// trimmed of surrounding whitespace; code keeps its interior formatting
// and loses only the fence markers and trailing whitespace. Segment is
// pure and deterministic.
func Segment(raw string) []Block {
	fences := fencedRE.FindAllString(raw, -1)
	texts := fencedRE.Split(raw, -1)

	blocks := make([]Block, 0, 2*len(fences)+1)
	blocks = append(blocks, Block{Kind: BlockText, Content: strings.TrimSpace(texts[0])})

	for i := 1; i < len(texts); i++ {
		fence := fences[i-1]

		language := ""
		if m := openFenceRE.FindStringSubmatch(fence); m != nil {
			language = m[1]
		}

		code := fence
		if loc := openFenceRE.FindStringIndex(code); loc != nil {
			code = code[:loc[0]] + code[loc[1]:]
		}
		code = strings.ReplaceAll(code, "```", "")
		code = strings.TrimRightFunc(code, unicode.IsSpace)

		blocks = append(blocks, Block{Kind: BlockCode, Language: language, Content: code})
		blocks = append(blocks, Block{Kind: BlockText, Content: strings.TrimSpace(texts[i])})
	}

	return blocks
}

// Join reassembles a block sequence into fenced Markdown. Segmenting the
// result yields an equal sequence.
func Join(blocks []Block) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch block.Kind {
		case BlockCode:
			b.WriteString("```")
			b.WriteString(block.Language)
			b.WriteString("\n")
			b.WriteString(block.Content)
			b.WriteString("\n```")
		default:
			b.WriteString(block.Content)
		}
	}
	return b.String()
}

package markdown

import (
	"reflect"
	"strings"
	"testing"
)

// TestSegment_NoFences verifies a plain string yields exactly one text block.
func TestSegment_NoFences(t *testing.T) {
	blocks := Segment("just some plain prose")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != BlockText {
		t.Fatalf("expected text block, got %q", blocks[0].Kind)
	}
	if blocks[0].Content != "just some plain prose" {
		t.Fatalf("unexpected content %q", blocks[0].Content)
	}
}

// TestSegment_EmptyInput verifies the degenerate case still produces a
// single (empty) text block.
func TestSegment_EmptyInput(t *testing.T) {
	blocks := Segment("")
	if len(blocks) != 1 || blocks[0].Kind != BlockText || blocks[0].Content != "" {
		t.Fatalf("expected one empty text block, got %+v", blocks)
	}
}

func TestSegment_SingleCodeBlock(t *testing.T) {
	blocks := Segment("Here you go:\n```go\nfmt.Println(\"hi\")\n```\nEnjoy!")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Content != "Here you go:" {
		t.Errorf("leading text = %q", blocks[0].Content)
	}
	if blocks[1].Kind != BlockCode || blocks[1].Language != "go" {
		t.Errorf("code block = %+v", blocks[1])
	}
	if blocks[1].Content != "fmt.Println(\"hi\")" {
		t.Errorf("code content = %q", blocks[1].Content)
	}
	if blocks[2].Content != "Enjoy!" {
		t.Errorf("trailing text = %q", blocks[2].Content)
	}
}

// TestSegment_UntaggedFence verifies a fence without a language hint is
// still emitted as code, not reclassified as text.
func TestSegment_UntaggedFence(t *testing.T) {
	blocks := Segment("```\nls -la\n```")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[1].Kind != BlockCode {
		t.Fatalf("expected code block, got %q", blocks[1].Kind)
	}
	if blocks[1].Language != "" {
		t.Errorf("expected empty language, got %q", blocks[1].Language)
	}
	if blocks[1].Content != "ls -la" {
		t.Errorf("code content = %q", blocks[1].Content)
	}
}

// TestSegment_Alternation verifies the text/code/text/.../text shape for
// inputs with several fences, including back-to-back ones.
func TestSegment_Alternation(t *testing.T) {
	inputs := []string{
		"a\n```x\n1\n```\nb\n```y\n2\n```\nc",
		"```x\n1\n``````y\n2\n```",
		"lead\n```\ncode\n```",
		"no code at all",
	}
	for _, input := range inputs {
		blocks := Segment(input)
		if len(blocks)%2 != 1 {
			t.Fatalf("input %q: expected odd block count, got %d", input, len(blocks))
		}
		for i, b := range blocks {
			want := BlockText
			if i%2 == 1 {
				want = BlockCode
			}
			if b.Kind != want {
				t.Fatalf("input %q: block %d kind = %q, want %q", input, i, b.Kind, want)
			}
		}
	}
}

// TestSegment_UnterminatedFence verifies a fence with no closing marker is
// not recognized as code and survives as literal text.
func TestSegment_UnterminatedFence(t *testing.T) {
	blocks := Segment("before\n```go\nunclosed code")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 text block, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != BlockText {
		t.Fatalf("expected text block, got %q", blocks[0].Kind)
	}
	if !strings.Contains(blocks[0].Content, "```go") {
		t.Errorf("fence marker should remain literal, got %q", blocks[0].Content)
	}
}

// TestSegment_IndentationPreserved verifies interior code whitespace is
// untouched while trailing whitespace is dropped.
func TestSegment_IndentationPreserved(t *testing.T) {
	blocks := Segment("```python\ndef f():\n    return 1\n\n```")
	if blocks[1].Content != "def f():\n    return 1" {
		t.Fatalf("code content = %q", blocks[1].Content)
	}
}

func TestSegment_FenceWithoutNewline(t *testing.T) {
	// No newline after the opening fence: no language line to strip, the
	// whole interior is the payload.
	blocks := Segment("```inline```")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[1].Kind != BlockCode || blocks[1].Language != "" {
		t.Fatalf("code block = %+v", blocks[1])
	}
	if blocks[1].Content != "inline" {
		t.Errorf("code content = %q", blocks[1].Content)
	}
}

// TestSegment_Roundtrip verifies that reassembling the blocks and
// segmenting again yields an equal sequence.
func TestSegment_Roundtrip(t *testing.T) {
	inputs := []string{
		"intro\n```go\npackage main\n\nfunc main() {}\n```\noutro",
		"```sh\necho hi\n```",
		"text only",
		"a\n```\nraw\n```\nb\n```json\n{\"k\": 1}\n```",
	}
	for _, input := range inputs {
		first := Segment(input)
		second := Segment(Join(first))
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("input %q:\nfirst  = %+v\nsecond = %+v", input, first, second)
		}
	}
}

package ingest

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("a short paragraph", 500)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if chunks := SplitText("   \n  ", 500); chunks != nil {
		t.Fatalf("got %d chunks from whitespace, want none", len(chunks))
	}
}

func TestSplitTextPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 80)
	text := strings.TrimSpace(strings.Repeat(para+"\n\n", 6))

	chunks := SplitText(text, 200)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200*4+10 {
			t.Errorf("chunk %d is %d chars, over budget", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitTextOversizedParagraph(t *testing.T) {
	lines := strings.Repeat(strings.Repeat("x", 100)+"\n", 50)
	chunks := SplitText(lines, 100)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want the paragraph split by lines", len(chunks))
	}
	joined := strings.Join(chunks, "\n")
	if !strings.Contains(joined, strings.Repeat("x", 100)) {
		t.Fatal("content was lost during splitting")
	}
}

package transcript

import (
	"strings"
	"testing"
)

func TestCleanStripsNoise(t *testing.T) {
	raw := "[00:01] Alice: Um, we can't ship this week, you know."
	got := Clean(raw)
	if strings.Contains(got, "[") || strings.Contains(got, ":") {
		t.Fatalf("timestamps and speaker tags must be removed: %q", got)
	}
	if strings.Contains(got, "um") || strings.Contains(got, "you know") {
		t.Fatalf("filler words must be removed: %q", got)
	}
	if !strings.Contains(got, "cannot") {
		t.Fatalf("contractions must be expanded: %q", got)
	}
	if got != strings.ToLower(got) {
		t.Fatalf("output must be lowercase: %q", got)
	}
}

func TestCleanExpandsContractionsInOrder(t *testing.T) {
	got := Clean("we won't and they don't")
	if !strings.Contains(got, "will not") {
		t.Fatalf("won't must expand to will not: %q", got)
	}
	if !strings.Contains(got, "do not") {
		t.Fatalf("don't must expand to do not: %q", got)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	got := Clean("first   line\n\n  second line")
	if strings.Contains(got, "  ") || strings.Contains(got, "\n") {
		t.Fatalf("whitespace must collapse to single spaces: %q", got)
	}
}

func TestChunkSplitsByWordCount(t *testing.T) {
	words := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		words = append(words, "word")
	}
	chunks := Chunk(strings.Join(words, " "), 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if n := len(strings.Fields(chunks[2])); n != 5 {
		t.Fatalf("last chunk should hold the remainder, got %d words", n)
	}
}

func TestProcessDebugInfo(t *testing.T) {
	processed, debug := Process([]string{"Alice: prepare the demo.", ""}, 10)
	if len(processed) == 0 {
		t.Fatalf("expected at least one chunk")
	}
	if debug["input_transcripts"] != 2 {
		t.Fatalf("unexpected input count: %v", debug["input_transcripts"])
	}
	if debug["chunks_produced"] != len(processed) {
		t.Fatalf("chunk count mismatch: %v vs %d", debug["chunks_produced"], len(processed))
	}
	if debug["chunk_size"] != 10 {
		t.Fatalf("unexpected chunk size: %v", debug["chunk_size"])
	}
}

package chunker

import (
	"strings"
	"testing"
)

func TestChunk_SmallTextFitsOneChunk(t *testing.T) {
	text := strings.Repeat("word ", 50) // 50 words, below ChunkSize
	chunks := Chunk(text, "doc-1", DefaultConfig())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].ID != "doc-1#0" {
		t.Errorf("expected id doc-1#0, got %q", chunks[0].ID)
	}
}

func TestChunk_LargeTextRequiresSplitting(t *testing.T) {
	text := strings.Repeat("lorem ", 500) // 500 words
	cfg := Config{ChunkSize: 100, ChunkOverlap: 20, MinChunk: 30}
	chunks := Chunk(text, "doc-2", cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, c.Position)
		}
	}
}

func TestChunk_MinChunkFiltering(t *testing.T) {
	text := "hi there"
	cfg := Config{ChunkSize: 100, ChunkOverlap: 20, MinChunk: 30}
	chunks := Chunk(text, "doc-3", cfg)

	if len(chunks) != 1 {
		t.Fatalf("a single short document still yields its one chunk, got %d", len(chunks))
	}
}

func TestChunk_TrailingRuntMerged(t *testing.T) {
	// chunk_size + min_chunk_size - 1 words with zero overlap: the trailing
	// window is exactly min_chunk_size-1 words and is folded into the
	// previous chunk rather than dropped, so every word still appears in
	// some chunk's Text.
	cfg := Config{ChunkSize: 100, ChunkOverlap: 0, MinChunk: 30}
	text := strings.Repeat("w ", 129)
	chunks := Chunk(text, "doc-4", cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk (trailing runt merged), got %d", len(chunks))
	}
	if chunks[0].WordCount != 129 {
		t.Errorf("expected merged chunk to carry all 129 words, got %d", chunks[0].WordCount)
	}
	if got := len(strings.Fields(chunks[0].Text)); got != 129 {
		t.Errorf("expected merged chunk text to contain all 129 words, got %d", got)
	}
}

func TestChunk_TrailingRuntMergeWithOverlapCarriesOnlyNewWords(t *testing.T) {
	// With overlap, the runt window partially repeats words already in the
	// previous chunk (positions 80-99 appear in both); only the unseen
	// tail (100-104) should be appended.
	cfg := Config{ChunkSize: 100, ChunkOverlap: 20, MinChunk: 30}
	const total = 105
	words := make([]string, 0, total)
	for i := 0; i < total; i++ {
		words = append(words, "w"+itoa(i))
	}
	text := strings.Join(words, " ")
	chunks := Chunk(text, "doc-4b", cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk (trailing runt merged), got %d", len(chunks))
	}
	if chunks[0].WordCount != total {
		t.Errorf("expected merged chunk to carry all %d words, got %d", total, chunks[0].WordCount)
	}
	got := strings.Fields(chunks[0].Text)
	if len(got) != total {
		t.Fatalf("expected merged chunk text to contain all %d words, got %d", total, len(got))
	}
	if got[0] != "w0" || got[total-1] != "w104" {
		t.Errorf("expected merged text to preserve word order, got first=%q last=%q", got[0], got[total-1])
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks := Chunk("   \n\t  ", "doc-5", DefaultConfig())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for whitespace-only input, got %d", len(chunks))
	}
}

func TestChunk_DefaultConfigFallback(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := Chunk(text, "doc-6", Config{})
	if len(chunks) < 1 {
		t.Errorf("expected at least 1 chunk with zero-value config, got %d", len(chunks))
	}
}

func TestChunk_ReversibleUpToOverlap(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	cfg := Config{ChunkSize: 4, ChunkOverlap: 2, MinChunk: 1}
	chunks := Chunk(text, "doc-7", cfg)

	var rebuilt []string
	step := cfg.ChunkSize - cfg.ChunkOverlap
	for _, c := range chunks {
		words := strings.Fields(c.Text)
		n := step
		if n > len(words) {
			n = len(words)
		}
		rebuilt = append(rebuilt, words[:n]...)
	}
	got := strings.Join(rebuilt, " ")
	want := Normalize(text)
	if !strings.HasPrefix(want, got) && got != want {
		t.Errorf("reassembled prefix %q is not a prefix of normalized text %q", got, want)
	}
}

func TestNormalize_CollapsesWhitespaceAndStripsControlChars(t *testing.T) {
	got := Normalize("hello\x00\x01   world\n\n\tfoo")
	want := "hello world foo"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two three"); got != 3 {
		t.Errorf("WordCount() = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(\"\") = %d, want 0", got)
	}
}

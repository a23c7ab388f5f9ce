package aggregator

import (
	"testing"

	"github.com/veridetect/plagiscan/internal/domain"
	"github.com/veridetect/plagiscan/internal/ports"
)

func TestRescoreChunk_DropsBelowSimilarityLow(t *testing.T) {
	hits := []ports.SearchHit{
		{DocID: "d1", DocTitle: "D1", MatchedChunkID: "d1#0", MatchedChunkText: "completely unrelated text about gardening", Score: 0.1},
	}
	got := RescoreChunk("some input chunk about astronomy", 0, hits, nil, Options{})
	if len(got) != 0 {
		t.Fatalf("expected low-scoring candidate to be dropped, got %+v", got)
	}
}

func TestRescoreChunk_KeepsHighScoringCandidate(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog near the riverbank at dawn"
	hits := []ports.SearchHit{
		{DocID: "d1", DocTitle: "D1", MatchedChunkID: "d1#0", MatchedChunkText: text, Score: 0.95},
	}
	got := RescoreChunk(text, 0, hits, nil, Options{})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].CombinedScore < 0.5 {
		t.Errorf("expected a high combined score, got %v", got[0].CombinedScore)
	}
}

func TestRescoreChunk_AppliesPerSourceCap(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog near the riverbank at dawn"
	var hits []ports.SearchHit
	for i := 0; i < 5; i++ {
		hits = append(hits, ports.SearchHit{DocID: "d1", DocTitle: "D1", MatchedChunkID: string(rune('a' + i)), MatchedChunkText: text, Score: 0.9})
	}
	got := RescoreChunk(text, 0, hits, nil, Options{MaxResultsPerSource: 2})
	if len(got) != 2 {
		t.Fatalf("expected per-source cap of 2, got %d", len(got))
	}
}

func TestGlobalMatches_DedupesByDocAndChunkKeepingHighest(t *testing.T) {
	perChunk := [][]domain.CandidateMatch{
		{{DocID: "d1", MatchedChunkID: "d1#0", CombinedScore: 0.7}},
		{{DocID: "d1", MatchedChunkID: "d1#0", CombinedScore: 0.9}},
	}
	got := GlobalMatches(perChunk, 10)
	if len(got) != 1 {
		t.Fatalf("expected dedup to leave 1 match, got %d", len(got))
	}
	if got[0].CombinedScore != 0.9 {
		t.Errorf("expected the higher-scoring occurrence to survive, got %v", got[0].CombinedScore)
	}
}

func TestGlobalMatches_LimitsToTopK(t *testing.T) {
	got := GlobalMatches(nil, 10)
	if len(got) != 0 {
		t.Errorf("expected no matches for empty input, got %d", len(got))
	}

	perChunk := [][]domain.CandidateMatch{{
		{DocID: "d1", MatchedChunkID: "d1#0", CombinedScore: 0.6},
		{DocID: "d2", MatchedChunkID: "d2#0", CombinedScore: 0.9},
		{DocID: "d3", MatchedChunkID: "d3#0", CombinedScore: 0.8},
	}}
	got = GlobalMatches(perChunk, 2)
	if len(got) != 2 || got[0].DocID != "d2" || got[1].DocID != "d3" {
		t.Errorf("expected the two highest-scoring matches d2, d3, got %+v", got)
	}
}

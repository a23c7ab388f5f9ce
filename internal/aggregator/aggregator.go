// Package aggregator fuses semantic and lexical scores for kNN candidates,
// applies the citation penalty, and ranks/dedupes matches per §4.6.
package aggregator

import (
	"sort"

	"github.com/veridetect/plagiscan/internal/citation"
	"github.com/veridetect/plagiscan/internal/domain"
	"github.com/veridetect/plagiscan/internal/lexical"
	"github.com/veridetect/plagiscan/internal/ports"
)

// DefaultSimilarityLow is the default cutoff below which a rescored candidate is
// discarded (§4.6 step 3).
const DefaultSimilarityLow = 0.50

// Options configures aggregation thresholds, independent per request.
type Options struct {
	SimilarityLow       float64
	MaxResultsPerSource int
}

func (o Options) withDefaults() Options {
	if o.SimilarityLow <= 0 {
		o.SimilarityLow = DefaultSimilarityLow
	}
	if o.MaxResultsPerSource <= 0 {
		o.MaxResultsPerSource = 3
	}
	return o
}

// RescoreChunk turns raw kNN hits for one input chunk into ranked
// candidate matches: fuse (0.5/0.5), apply citation penalty, cut off below
// similarity_low, cap per source, and rank with the documented tiebreak.
func RescoreChunk(inputChunkText string, inputPosition int, hits []ports.SearchHit, sourcePositions map[string]int, opts Options) []domain.CandidateMatch {
	opts = opts.withDefaults()

	candidates := make([]domain.CandidateMatch, 0, len(hits))
	for _, h := range hits {
		lex := lexical.Score(inputChunkText, h.MatchedChunkText)
		combined := 0.5*h.Score + 0.5*lex
		combined = citation.Apply(combined, inputChunkText, h.DocTitle, h.DocMetadata)
		if combined < opts.SimilarityLow {
			continue
		}
		candidates = append(candidates, domain.CandidateMatch{
			DocID:            h.DocID,
			DocTitle:         h.DocTitle,
			MatchedChunkID:   h.MatchedChunkID,
			MatchedChunkText: h.MatchedChunkText,
			InputChunkText:   inputChunkText,
			InputPosition:    inputPosition,
			SemanticScore:    h.Score,
			LexicalScore:     lex,
			CombinedScore:    combined,
		})
	}

	candidates = capPerSource(candidates, opts.MaxResultsPerSource)
	rank(candidates, sourcePositions)
	return candidates
}

func capPerSource(candidates []domain.CandidateMatch, maxPerSource int) []domain.CandidateMatch {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})
	counts := make(map[string]int)
	out := make([]domain.CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.DocID] >= maxPerSource {
			continue
		}
		counts[c.DocID]++
		out = append(out, c)
	}
	return out
}

// rank orders by combined desc; ties broken by higher semantic, then
// smaller source chunk position (stable order).
func rank(candidates []domain.CandidateMatch, sourcePositions map[string]int) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore > b.SemanticScore
		}
		return sourcePositions[a.MatchedChunkID] < sourcePositions[b.MatchedChunkID]
	})
}

// GlobalMatches unions per-chunk candidate lists, de-duplicates by
// (doc_id, matched_chunk_id) keeping the highest-scoring occurrence, and
// limits the result to topK.
func GlobalMatches(perChunk [][]domain.CandidateMatch, topK int) []domain.CandidateMatch {
	best := make(map[string]domain.CandidateMatch)
	order := make([]string, 0)
	for _, chunkCandidates := range perChunk {
		for _, c := range chunkCandidates {
			key := c.DocID + "#" + c.MatchedChunkID
			existing, ok := best[key]
			if !ok {
				order = append(order, key)
				best[key] = c
				continue
			}
			if c.CombinedScore > existing.CombinedScore {
				best[key] = c
			}
		}
	}

	merged := make([]domain.CandidateMatch, 0, len(order))
	for _, key := range order {
		merged = append(merged, best[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})

	if topK > 0 && topK < len(merged) {
		merged = merged[:topK]
	}
	return merged
}

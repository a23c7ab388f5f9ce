// Package domain holds the data model shared by every component of the
// detection pipeline: Document, Chunk, CandidateMatch, ChunkAnalysis and
// Verdict, exactly as laid out in the system's data model.
package domain

import "time"

// Document is the unit of ingestion. It is created by the Ingestor and
// never mutated except by delete.
type Document struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Language   string            `json:"language"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
	ChunkCount int               `json:"chunk_count"`
	// Chunks is populated only when a caller opts into include_chunks; it
	// never carries embedding vectors back over the API.
	Chunks []Chunk `json:"chunks,omitempty"`
}

// Chunk is a child of a Document, produced deterministically from its
// content under a fixed chunking policy.
type Chunk struct {
	ID        string    `json:"id"` // "<doc_id>#<position>"
	DocID     string    `json:"doc_id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	WordCount int       `json:"word_count"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// CandidateMatch is one vector-store hit rescored with lexical and
// citation signals.
type CandidateMatch struct {
	DocID            string  `json:"doc_id"`
	DocTitle         string  `json:"doc_title"`
	MatchedChunkID   string  `json:"matched_chunk_id"`
	MatchedChunkText string  `json:"matched_chunk_text"`
	InputChunkText   string  `json:"input_chunk_text"`
	InputPosition    int     `json:"input_position"`
	SemanticScore    float64 `json:"semantic_score"`
	LexicalScore     float64 `json:"lexical_score"`
	CombinedScore    float64 `json:"combined_score"`
}

// ChunkAnalysis summarizes one input chunk's best outcome.
type ChunkAnalysis struct {
	ChunkIndex           int     `json:"chunk_index"`
	Text                 string  `json:"text"`
	MaxCombinedSimilarity float64 `json:"max_combined_similarity"`
	Severity             string  `json:"severity"`
	BestMatchDocID       string  `json:"best_match_doc_id,omitempty"`
}

// ProcessingMetrics records per-stage timings for a check request,
// surfaced for observability; it never influences the verdict.
type ProcessingMetrics struct {
	ExtractionMs     int64 `json:"extraction_ms,omitempty"`
	EmbeddingMs      int64 `json:"embedding_ms"`
	SearchMs         int64 `json:"search_ms"`
	TotalMs          int64 `json:"total_ms"`
	ChunksAnalyzed   int   `json:"chunks_analyzed"`
	DocumentsSearched int  `json:"documents_searched"`
}

// Severity bands, from least to most severe.
const (
	SeveritySafe     = "SAFE"
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Verdict is the final output of a plagiarism check.
type Verdict struct {
	Percentage  float64            `json:"percentage"`
	Severity    string             `json:"severity"`
	Matches     []CandidateMatch   `json:"matches"`
	Analyses    []ChunkAnalysis    `json:"per_chunk_analyses"`
	Metrics     ProcessingMetrics  `json:"processing_metrics"`
	Explanation string             `json:"explanation"`
}

// SeverityForPercentage applies the fixed band thresholds of §4.7.
func SeverityForPercentage(pct, critical, high, medium, low float64) string {
	switch {
	case pct >= critical*100:
		return SeverityCritical
	case pct >= high*100:
		return SeverityHigh
	case pct >= medium*100:
		return SeverityMedium
	case pct >= low*100:
		return SeverityLow
	default:
		return SeveritySafe
	}
}

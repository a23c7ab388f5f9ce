// Package ports declares the interfaces the detection pipeline depends on,
// so the orchestrator can be exercised against in-memory fakes in tests
// without a live embedder or vector store.
package ports

import "context"

// Embedder batches dense-vector generation for chunk text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// SearchHit is one kNN result as returned by the vector store, before
// lexical rescoring.
type SearchHit struct {
	DocID            string
	DocTitle         string
	DocMetadata      map[string]string
	MatchedChunkID   string
	MatchedChunkText string
	Score            float64
}

// SearchParams configures one kNN query.
type SearchParams struct {
	K                   int
	NumCandidates       int
	ExcludeDocs         map[string]struct{}
	MinScore            float64
	MaxResultsPerSource int
	TopK                int
}

// VectorStore owns documents and their chunk embeddings, and answers kNN
// queries over them.
type VectorStore interface {
	EnsureIndex(ctx context.Context, dimensions int) error
	UpsertDocument(ctx context.Context, doc StoredDocument) error
	DeleteDocument(ctx context.Context, docID string) error
	GetDocument(ctx context.Context, docID string) (*StoredDocument, bool, error)
	SearchDocuments(ctx context.Context, query string, limit, offset int) ([]StoredDocument, int, error)
	Search(ctx context.Context, vector []float32, params SearchParams) ([]SearchHit, error)
}

// StoredDocument is the vector store's view of a Document plus its chunks,
// matching the nested vector-store schema.
type StoredDocument struct {
	ID         string
	Title      string
	Content    string
	Language   string
	Metadata   map[string]string
	CreatedAt  int64 // unix millis, so fakes stay deterministic
	Chunks     []StoredChunk
}

// StoredChunk is one embedded chunk nested under a StoredDocument.
type StoredChunk struct {
	ChunkID   string
	Text      string
	Position  int
	WordCount int
	Embedding []float32
}

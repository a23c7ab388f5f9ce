// Package ingestor chunks, embeds and stores documents, assigning ids and
// reporting per-document success or failure for batch uploads.
package ingestor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/chunker"
	"github.com/veridetect/plagiscan/internal/domain"
	"github.com/veridetect/plagiscan/internal/ports"
)

// Upload is one document submitted for ingestion.
type Upload struct {
	ID       string // optional; generated when empty
	Title    string
	Content  string
	Language string
	Metadata map[string]string
}

// UploadResult reports the outcome of ingesting a single document.
type UploadResult struct {
	DocID      string
	ChunkCount int
	Success    bool
	Error      string
}

// Ingestor owns the chunk+embed+store path shared by UploadDocument,
// BatchUpload and the PDF ingest path.
type Ingestor struct {
	embedder ports.Embedder
	store    ports.VectorStore
	cfg      chunker.Config
}

func New(embedder ports.Embedder, store ports.VectorStore, cfg chunker.Config) *Ingestor {
	return &Ingestor{embedder: embedder, store: store, cfg: cfg}
}

// Upload chunks, embeds and atomically upserts one document. A failure at
// any stage leaves no partial state in the vector store.
func (in *Ingestor) Upload(ctx context.Context, u Upload) (UploadResult, error) {
	if u.Content == "" {
		return UploadResult{}, apperr.Invalidf("content must not be empty")
	}

	docID := u.ID
	if docID == "" {
		docID = uuid.NewString()
	}
	language := u.Language
	if language == "" {
		language = "auto"
	}

	chunks := chunker.Chunk(u.Content, docID, in.cfg)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = in.embedder.Embed(ctx, texts)
		if err != nil {
			return UploadResult{}, err
		}
	}

	storedChunks := make([]ports.StoredChunk, len(chunks))
	for i, c := range chunks {
		storedChunks[i] = ports.StoredChunk{
			ChunkID:   c.ID,
			Text:      c.Text,
			Position:  c.Position,
			WordCount: c.WordCount,
			Embedding: vectors[i],
		}
	}

	doc := ports.StoredDocument{
		ID:        docID,
		Title:     u.Title,
		Content:   u.Content,
		Language:  language,
		Metadata:  u.Metadata,
		CreatedAt: time.Now().UnixMilli(),
		Chunks:    storedChunks,
	}

	if err := in.store.UpsertDocument(ctx, doc); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{DocID: docID, ChunkCount: len(chunks), Success: true}, nil
}

// BatchUpload processes uploads sequentially to keep memory bounded, but
// shares one embedder batch call per document's chunk set; per-document
// failures are recorded and do not abort the stream.
func (in *Ingestor) BatchUpload(ctx context.Context, uploads []Upload) []UploadResult {
	results := make([]UploadResult, len(uploads))
	for i, u := range uploads {
		result, err := in.Upload(ctx, u)
		if err != nil {
			results[i] = UploadResult{DocID: u.ID, Success: false, Error: err.Error()}
			continue
		}
		results[i] = result
	}
	return results
}

// Get retrieves a document, optionally trimming content/chunks.
func (in *Ingestor) Get(ctx context.Context, id string, includeContent, includeChunks bool) (*domain.Document, error) {
	stored, ok, err := in.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFoundf("document %s not found", id)
	}
	doc := &domain.Document{
		ID:         stored.ID,
		Title:      stored.Title,
		Language:   stored.Language,
		Metadata:   stored.Metadata,
		CreatedAt:  time.UnixMilli(stored.CreatedAt),
		ChunkCount: len(stored.Chunks),
	}
	if includeContent {
		doc.Content = stored.Content
	}
	if includeChunks {
		doc.Chunks = make([]domain.Chunk, len(stored.Chunks))
		for i, c := range stored.Chunks {
			doc.Chunks[i] = domain.Chunk{
				ID:        c.ChunkID,
				DocID:     stored.ID,
				Text:      c.Text,
				Position:  c.Position,
				WordCount: c.WordCount,
			}
		}
	}
	return doc, nil
}

// Delete removes a document and cascades to its chunks.
func (in *Ingestor) Delete(ctx context.Context, id string) (bool, error) {
	err := in.store.DeleteDocument(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Search lists documents matching an optional query, paginated.
func (in *Ingestor) Search(ctx context.Context, query string, limit, offset int) ([]domain.Document, int, error) {
	stored, total, err := in.store.SearchDocuments(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]domain.Document, len(stored))
	for i, s := range stored {
		docs[i] = domain.Document{
			ID:         s.ID,
			Title:      s.Title,
			Language:   s.Language,
			Metadata:   s.Metadata,
			CreatedAt:  time.UnixMilli(s.CreatedAt),
			ChunkCount: len(s.Chunks),
		}
	}
	return docs, total, nil
}

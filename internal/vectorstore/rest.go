package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/ports"
)

// REST talks to an Elasticsearch-compatible dense-vector index over its
// HTTP API. It requires no client SDK: every operation is a single JSON
// request/response, matching the schema described for the vector-store
// index (nested chunks with a dense_vector field per chunk).
type REST struct {
	baseURL    string
	index      string
	apiKey     string
	httpClient *http.Client
}

func NewREST(baseURL, index, apiKey string, timeout time.Duration) *REST {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &REST{
		baseURL:    baseURL,
		index:      index,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *REST) authHeader(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// EnsureIndex creates the index with the documented mapping if it does not
// already exist.
func (c *REST) EnsureIndex(ctx context.Context, dimensions int) error {
	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"document_id": map[string]any{"type": "keyword"},
				"title":       map[string]any{"type": "text"},
				"content":     map[string]any{"type": "text"},
				"language":    map[string]any{"type": "keyword"},
				"metadata":    map[string]any{"type": "object"},
				"created_at":  map[string]any{"type": "date"},
				"chunks": map[string]any{
					"type": "nested",
					"properties": map[string]any{
						"chunk_id": map[string]any{"type": "keyword"},
						"text":     map[string]any{"type": "text"},
						"position": map[string]any{"type": "integer"},
						"embedding": map[string]any{
							"type":       "dense_vector",
							"dims":       dimensions,
							"similarity": "cosine",
						},
					},
				},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal index mapping: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+c.index, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()

	// A 400 "resource_already_exists_exception" style response means the
	// index is already there; treat any 2xx or that specific conflict as
	// success and anything else as a hard failure.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("already_exists")) {
		return nil
	}
	return apperr.Internalf("create index: status %d: %s", resp.StatusCode, string(respBody))
}

type storedDocumentDoc struct {
	DocumentID string            `json:"document_id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Language   string            `json:"language"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  int64             `json:"created_at"`
	Chunks     []chunkDoc        `json:"chunks"`
}

type chunkDoc struct {
	ChunkID   string    `json:"chunk_id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	WordCount int       `json:"word_count"`
	Embedding []float32 `json:"embedding"`
}

// UpsertDocument writes a document and its chunks as a single PUT, so the
// index never observes a torn document.
func (c *REST) UpsertDocument(ctx context.Context, doc ports.StoredDocument) error {
	body, err := json.Marshal(toStoredDoc(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.docURL(doc.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Internalf("upsert document %s: status %d: %s", doc.ID, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *REST) DeleteDocument(ctx context.Context, docID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.docURL(docID), nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	c.authHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFoundf("document %s not found", docID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Internalf("delete document %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *REST) GetDocument(ctx context.Context, docID string) (*ports.StoredDocument, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(docID), nil)
	if err != nil {
		return nil, false, fmt.Errorf("create get request: %w", err)
	}
	c.authHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Unavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, false, apperr.Internalf("get document %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}

	var wrapper struct {
		Source storedDocumentDoc `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, false, fmt.Errorf("decode document: %w", err)
	}
	sd := fromStoredDoc(wrapper.Source)
	return &sd, true, nil
}

func (c *REST) SearchDocuments(ctx context.Context, query string, limit, offset int) ([]ports.StoredDocument, int, error) {
	body := map[string]any{
		"from": offset,
		"size": limit,
	}
	if query == "" {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	} else {
		body["query"] = map[string]any{
			"multi_match": map[string]any{"query": query, "fields": []string{"title", "content"}},
		}
	}

	respBody, err := c.search(ctx, body)
	if err != nil {
		return nil, 0, err
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source storedDocumentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]ports.StoredDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, fromStoredDoc(h.Source))
	}
	return docs, parsed.Hits.Total.Value, nil
}

// Search runs a nested kNN query against the chunks field and applies the
// client-side post-processing rules of §4.3.
func (c *REST) Search(ctx context.Context, vector []float32, params ports.SearchParams) ([]ports.SearchHit, error) {
	numCandidates := params.NumCandidates
	if numCandidates < 100 {
		numCandidates = 100
	}
	if 10*params.K > numCandidates {
		numCandidates = 10 * params.K
	}

	filters := []any{}
	if len(params.ExcludeDocs) > 0 {
		excluded := make([]string, 0, len(params.ExcludeDocs))
		for id := range params.ExcludeDocs {
			excluded = append(excluded, id)
		}
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"must_not": map[string]any{"terms": map[string]any{"document_id": excluded}},
			},
		})
	}

	query := map[string]any{
		"size": numCandidates,
		"knn": map[string]any{
			"field":          "chunks.embedding",
			"query_vector":   vector,
			"k":              params.K,
			"num_candidates": numCandidates,
			"filter":         filters,
		},
	}

	respBody, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64           `json:"_score"`
				Source storedDocumentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode knn response: %w", err)
	}

	var hits []ports.SearchHit
	for _, h := range parsed.Hits.Hits {
		score := h.Score
		if score < 0 {
			score = 0
		}
		if score < params.MinScore {
			continue
		}
		for _, ch := range h.Source.Chunks {
			hits = append(hits, ports.SearchHit{
				DocID:            h.Source.DocumentID,
				DocTitle:         h.Source.Title,
				DocMetadata:      h.Source.Metadata,
				MatchedChunkID:   ch.ChunkID,
				MatchedChunkText: ch.Text,
				Score:            score,
			})
		}
	}

	hits = capPerSource(hits, params.MaxResultsPerSource)
	topK := params.TopK
	if topK <= 0 || topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func (c *REST) search(ctx context.Context, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.index+"/_search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Internalf("vector store search: status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (c *REST) docURL(docID string) string {
	return c.baseURL + "/" + c.index + "/_doc/" + url.PathEscape(docID)
}

func toStoredDoc(doc ports.StoredDocument) storedDocumentDoc {
	chunks := make([]chunkDoc, len(doc.Chunks))
	for i, ch := range doc.Chunks {
		chunks[i] = chunkDoc{
			ChunkID:   ch.ChunkID,
			Text:      ch.Text,
			Position:  ch.Position,
			WordCount: ch.WordCount,
			Embedding: ch.Embedding,
		}
	}
	return storedDocumentDoc{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Content:    doc.Content,
		Language:   doc.Language,
		Metadata:   doc.Metadata,
		CreatedAt:  doc.CreatedAt,
		Chunks:     chunks,
	}
}

func fromStoredDoc(d storedDocumentDoc) ports.StoredDocument {
	chunks := make([]ports.StoredChunk, len(d.Chunks))
	for i, ch := range d.Chunks {
		chunks[i] = ports.StoredChunk{
			ChunkID:   ch.ChunkID,
			Text:      ch.Text,
			Position:  ch.Position,
			WordCount: ch.WordCount,
			Embedding: ch.Embedding,
		}
	}
	return ports.StoredDocument{
		ID:        d.DocumentID,
		Title:     d.Title,
		Content:   d.Content,
		Language:  d.Language,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
		Chunks:    chunks,
	}
}

// Close releases idle connections.
func (c *REST) Close() {
	c.httpClient.CloseIdleConnections()
}

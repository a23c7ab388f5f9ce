// Package vectorstore provides the index/search client the Detector and
// Ingestor depend on: an in-memory brute-force implementation for tests,
// and a REST-backed implementation for a real deployment.
package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/ports"
)

// Memory is a brute-force cosine-similarity vector store guarded by a
// single RWMutex: writes are serialized across all documents, and reads
// share the read lock, so a read waits for an in-progress write instead
// of running alongside it.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	docs      map[string]ports.StoredDocument
	order     []string // insertion order, for stable SearchDocuments paging
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]ports.StoredDocument)}
}

func (m *Memory) EnsureIndex(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return apperr.Invalidf("index dimension must be positive, got %d", dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension != 0 && m.dimension != dimensions {
		return apperr.Internalf("index already initialized with dimension %d, got %d", m.dimension, dimensions)
	}
	m.dimension = dimensions
	return nil
}

// UpsertDocument replaces a document and its chunks as a unit: readers
// never observe a torn document.
func (m *Memory) UpsertDocument(_ context.Context, doc ports.StoredDocument) error {
	for _, c := range doc.Chunks {
		if m.dimension != 0 && len(c.Embedding) != m.dimension {
			return apperr.Internalf("chunk %s embedding length %d != index dimension %d", c.ChunkID, len(c.Embedding), m.dimension)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *Memory) DeleteDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docID]; !ok {
		return apperr.NotFoundf("document %s not found", docID)
	}
	delete(m.docs, docID)
	for i, id := range m.order {
		if id == docID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) GetDocument(_ context.Context, docID string) (*ports.StoredDocument, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docID]
	if !ok {
		return nil, false, nil
	}
	copied := doc
	return &copied, true, nil
}

func (m *Memory) SearchDocuments(_ context.Context, query string, limit, offset int) ([]ports.StoredDocument, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []ports.StoredDocument
	q := strings.ToLower(strings.TrimSpace(query))
	for _, id := range m.order {
		doc := m.docs[id]
		if q == "" || strings.Contains(strings.ToLower(doc.Title), q) {
			matched = append(matched, doc)
		}
	}
	total := len(matched)

	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// Search runs a brute-force cosine kNN query and applies the client-side
// post-processing rules of §4.3: score cutoff, per-source cap, top_k cap.
func (m *Memory) Search(_ context.Context, vector []float32, params ports.SearchParams) ([]ports.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []ports.SearchHit
	for _, id := range m.order {
		if _, excluded := params.ExcludeDocs[id]; excluded {
			continue
		}
		doc := m.docs[id]
		for _, c := range doc.Chunks {
			score := cosine(vector, c.Embedding)
			if score < 0 {
				score = 0
			}
			if score < params.MinScore {
				continue
			}
			hits = append(hits, ports.SearchHit{
				DocID:            doc.ID,
				DocTitle:         doc.Title,
				DocMetadata:      doc.Metadata,
				MatchedChunkID:   c.ChunkID,
				MatchedChunkText: c.Text,
				Score:            score,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	hits = capPerSource(hits, params.MaxResultsPerSource)

	topK := params.TopK
	if topK <= 0 || topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func capPerSource(hits []ports.SearchHit, maxPerSource int) []ports.SearchHit {
	if maxPerSource <= 0 {
		return hits
	}
	counts := make(map[string]int)
	out := make([]ports.SearchHit, 0, len(hits))
	for _, h := range hits {
		if counts[h.DocID] >= maxPerSource {
			continue
		}
		counts[h.DocID]++
		out = append(out, h)
	}
	return out
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package vectorstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/ports"
)

func TestREST_GetDocumentReturnsNotFoundWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewREST(srv.URL, "docs", "", 0)
	_, ok, err := store.GetDocument(t.Context(), "missing")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing document")
	}
}

func TestREST_GetDocumentRoundTripsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"_source": storedDocumentDoc{
				DocumentID: "doc-1",
				Title:      "Title",
				Chunks:     []chunkDoc{{ChunkID: "doc-1#0", Text: "hello world"}},
			},
		})
	}))
	defer srv.Close()

	store := NewREST(srv.URL, "docs", "", 0)
	doc, ok, err := store.GetDocument(t.Context(), "doc-1")
	if err != nil || !ok {
		t.Fatalf("GetDocument() = (%v, %v, %v)", doc, ok, err)
	}
	if doc.ID != "doc-1" || len(doc.Chunks) != 1 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestREST_DeleteDocumentMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewREST(srv.URL, "docs", "", 0)
	err := store.DeleteDocument(t.Context(), "missing")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestREST_SearchAppliesMinScoreAndTopK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"hits": []map[string]any{
					{"_score": 0.9, "_source": storedDocumentDoc{DocumentID: "a", Chunks: []chunkDoc{{ChunkID: "a#0", Text: "x"}, {ChunkID: "a#1", Text: "z"}}}},
					{"_score": 0.1, "_source": storedDocumentDoc{DocumentID: "b", Chunks: []chunkDoc{{ChunkID: "b#0", Text: "y"}}}},
				},
			},
		})
	}))
	defer srv.Close()

	store := NewREST(srv.URL, "docs", "", 0)
	hits, err := store.Search(t.Context(), []float32{1, 0, 0, 0}, ports.SearchParams{K: 5, MinScore: 0.5, TopK: 1, MaxResultsPerSource: 3})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != "a" {
		t.Errorf("expected MinScore to drop b and TopK=1 to keep one chunk of a, got %+v", hits)
	}
}

func TestREST_EnsureIndexToleratesAlreadyExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
	}))
	defer srv.Close()

	store := NewREST(srv.URL, "docs", "", 0)
	if err := store.EnsureIndex(t.Context(), 768); err != nil {
		t.Fatalf("EnsureIndex() error = %v, want nil for already_exists", err)
	}
}

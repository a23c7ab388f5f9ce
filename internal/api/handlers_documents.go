package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/veridetect/plagiscan/internal/ingestor"
)

type uploadRequest struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Language string            `json:"language"`
	Metadata map[string]string `json:"metadata"`
}

// handleUploadDocument ingests a single document: chunk, embed, store.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.ing.Upload(r.Context(), ingestor.Upload{
		ID:       req.ID,
		Title:    req.Title,
		Content:  req.Content,
		Language: req.Language,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type batchUploadRequest struct {
	Documents []uploadRequest `json:"documents"`
}

// handleBatchUpload ingests multiple documents sequentially, recording a
// per-document outcome rather than aborting on the first failure.
func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	var req batchUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "documents must not be empty", http.StatusBadRequest)
		return
	}

	uploads := make([]ingestor.Upload, len(req.Documents))
	for i, d := range req.Documents {
		uploads[i] = ingestor.Upload{
			ID:       d.ID,
			Title:    d.Title,
			Content:  d.Content,
			Language: d.Language,
			Metadata: d.Metadata,
		}
	}

	results := s.ing.BatchUpload(r.Context(), uploads)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleGetDocument retrieves document metadata (and content, if asked).
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	includeContent := r.URL.Query().Get("include_content") == "true"
	includeChunks := r.URL.Query().Get("include_chunks") == "true"

	doc, err := s.ing.Get(r.Context(), docID, includeContent, includeChunks)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument removes a document and its chunks. Deleting an
// unknown id is not an error; the response reports whether anything
// was actually removed.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	deleted, err := s.ing.Delete(r.Context(), docID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// handleSearchDocuments lists documents, optionally filtered by the q
// text query and paginated via limit/offset query parameters.
func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	docs, total, err := s.ing.Search(r.Context(), query, limit, offset)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/veridetect/plagiscan/internal/detector"
	"github.com/veridetect/plagiscan/internal/ingestor"
	"github.com/veridetect/plagiscan/internal/pdfextract"
)

type pdfObjectRequest struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

type pdfIndexRequest struct {
	pdfObjectRequest
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Language string            `json:"language"`
	Metadata map[string]string `json:"metadata"`
}

// handlePDFIndex fetches a PDF from the object store, extracts its body
// text (discarding tables of contents, headers/footers and bibliography
// segments) and ingests the result as a document.
func (s *Server) handlePDFIndex(w http.ResponseWriter, r *http.Request) {
	var req pdfIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Bucket == "" || req.Path == "" {
		jsonError(w, "bucket and path are required", http.StatusBadRequest)
		return
	}

	body, err := s.extractPDFBody(r, req.pdfObjectRequest)
	if err != nil {
		writeAppError(w, err)
		return
	}

	result, err := s.ing.Upload(r.Context(), ingestor.Upload{
		ID:       req.ID,
		Title:    req.Title,
		Content:  body,
		Language: req.Language,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type pdfCheckRequest struct {
	pdfObjectRequest
	MinSimilarity float64  `json:"min_similarity"`
	TopK          int      `json:"top_k"`
	ExcludeDocs   []string `json:"exclude_docs"`
	// IncludeAIAnalysis defaults to true (§6) when omitted from the request.
	IncludeAIAnalysis *bool `json:"include_ai_analysis"`
}

// handlePDFCheck fetches a PDF from the object store, extracts its body
// text and runs it through the same detection pipeline as /v1/check.
func (s *Server) handlePDFCheck(w http.ResponseWriter, r *http.Request) {
	var req pdfCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Bucket == "" || req.Path == "" {
		jsonError(w, "bucket and path are required", http.StatusBadRequest)
		return
	}

	body, err := s.extractPDFBody(r, req.pdfObjectRequest)
	if err != nil {
		writeAppError(w, err)
		return
	}

	exclude := make(map[string]struct{}, len(req.ExcludeDocs))
	for _, id := range req.ExcludeDocs {
		exclude[id] = struct{}{}
	}

	verdict, err := s.det.Check(r.Context(), body, detector.CheckOptions{
		MinSimilarity:     req.MinSimilarity,
		TopK:              req.TopK,
		IncludeAIAnalysis: includeAIAnalysis(req.IncludeAIAnalysis),
		ExcludeDocs:       exclude,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) extractPDFBody(r *http.Request, obj pdfObjectRequest) (string, error) {
	data, err := s.objects.FetchObject(r.Context(), obj.Bucket, obj.Path)
	if err != nil {
		return "", err
	}

	segments, err := pdfextract.Extract(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return pdfextract.Body(segments), nil
}

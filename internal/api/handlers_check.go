package api

import (
	"encoding/json"
	"net/http"

	"github.com/veridetect/plagiscan/internal/detector"
)

type checkRequest struct {
	Text          string   `json:"text"`
	MinSimilarity float64  `json:"min_similarity"`
	TopK          int      `json:"top_k"`
	ExcludeDocs   []string `json:"exclude_docs"`
	// IncludeAIAnalysis defaults to true (§6) when omitted from the request.
	IncludeAIAnalysis *bool `json:"include_ai_analysis"`
}

// handleCheck runs the full plagiarism-detection pipeline over posted text.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	exclude := make(map[string]struct{}, len(req.ExcludeDocs))
	for _, id := range req.ExcludeDocs {
		exclude[id] = struct{}{}
	}

	verdict, err := s.det.Check(r.Context(), req.Text, detector.CheckOptions{
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

// includeAIAnalysis resolves the tri-state include_ai_analysis field: an
// omitted field defaults to true (§6); an explicit true/false is honored.
func includeAIAnalysis(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/veridetect/plagiscan/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps an apperr.Kind to its HTTP status and writes the
// response body.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.InvalidArgument:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Unavailable:
		status = http.StatusServiceUnavailable
	case apperr.DeadlineExceeded:
		status = http.StatusGatewayTimeout
	case apperr.Internal:
		status = http.StatusInternalServerError
	}
	jsonError(w, err.Error(), status)
}

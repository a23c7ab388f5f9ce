package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veridetect/plagiscan/internal/config"
	"github.com/veridetect/plagiscan/internal/detector"
	"github.com/veridetect/plagiscan/internal/health"
	"github.com/veridetect/plagiscan/internal/ingestor"
	"github.com/veridetect/plagiscan/internal/objectstore"
)

// Server is the HTTP API server for plagiscan.
type Server struct {
	router  chi.Router
	det     *detector.Detector
	ing     *ingestor.Ingestor
	objects *objectstore.Client
	prober  *health.Prober
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(det *detector.Detector, ing *ingestor.Ingestor, objects *objectstore.Client, prober *health.Prober, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		det:     det,
		ing:     ing,
		objects: objects,
		prober:  prober,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/healthz", s.handleHealthz)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Post("/v1/check", s.handleCheck)

		r.Post("/v1/documents", s.handleUploadDocument)
		r.Post("/v1/documents/batch", s.handleBatchUpload)
		r.Get("/v1/documents", s.handleSearchDocuments)
		r.Get("/v1/documents/{docID}", s.handleGetDocument)
		r.Delete("/v1/documents/{docID}", s.handleDeleteDocument)

		r.Post("/v1/pdf/index", s.handlePDFIndex)
		r.Post("/v1/pdf/check", s.handlePDFCheck)
	})

	s.router = r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	healthy, statuses := s.prober.Snapshot()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy":      healthy,
		"dependencies": statuses,
	})
}

// Package httpapi exposes the document pipeline over a JSON HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// Server bundles the driving services behind HTTP handlers.
type Server struct {
	ingest    driving.IngestService
	query     driving.QueryService
	documents driving.DocumentService
	history   driven.HistoryStore
	log       *zap.Logger
}

// NewServer creates a new API server. The history store may be nil;
// the history endpoints then serve empty results.
func NewServer(
	ingest driving.IngestService,
	query driving.QueryService,
	documents driving.DocumentService,
	history driven.HistoryStore,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		ingest:    ingest,
		query:     query,
		documents: documents,
		history:   history,
		log:       log,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(s.requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Get("/", s.handleListFiles)
			r.Get("/{id}/download", s.handleDownload)
			r.Post("/{id}/reindex", s.handleReindex)
			r.Delete("/{id}", s.handleDeleteFile)
		})
		r.Post("/chat", s.handleChat)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
		})
	})

	return r
}

// requestLogger logs each request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"call-auditor-go/internal/llm"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/processor"
	"call-auditor-go/internal/storage"
	"call-auditor-go/internal/transcription"
)

type Options struct {
	MaxUploadMB int64
	Workers     int
}

type Server struct {
	router    *chi.Mux
	processor *processor.Processor
	store     storage.Store
	opts      Options
	now       func() time.Time
	log       *logger.Logger
}

func New(p *processor.Processor, store storage.Store, opts Options, log *logger.Logger) *Server {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 25
	}
	s := &Server{
		router:    chi.NewRouter(),
		processor: p,
		store:     store,
		opts:      opts,
		now:       time.Now,
		log:       log.Component("server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/calls", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
	})

	s.router.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Get("/actions", s.handleActions)
		r.Route("/charts", func(r chi.Router) {
			r.Get("/sentiment-pie", s.handleSentimentPie)
			r.Get("/agent-performance", s.handleAgentPerformance)
			r.Get("/daily-trends", s.handleDailyTrends)
			r.Get("/category-scores", s.handleCategoryScores)
			r.Get("/urgency-distribution", s.handleUrgencyDistribution)
			r.Get("/escalation-risk", s.handleEscalationRisk)
		})
	})
}

// requestID makes sure every request and response carries an X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := s.log.WithRequest(r).
			WithField("status", ww.Status()).
			WithField("bytes", ww.BytesWritten()).
			WithField("duration_ms", time.Since(start).Milliseconds())
		switch {
		case ww.Status() >= 500:
			entry.Error("request failed")
		case ww.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, transcription.ErrUnsupportedAudio), errors.Is(err, processor.ErrEmptyTranscript):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.WithRequest(r).WithField("error", err.Error()).Error("handler error")
	}
	writeError(w, status, err.Error())
}

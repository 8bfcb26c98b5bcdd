package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shohag/hsdest/internal/config"
	"github.com/shohag/hsdest/internal/hubspot"
)

type Server struct {
	cfg         config.ServerConfig
	transformer *hubspot.Transformer
	schemas     SchemaInvalidator
	router      *chi.Mux
	log         zerolog.Logger
	http        *http.Server
}

func NewServer(cfg config.ServerConfig, transformer *hubspot.Transformer, schemas SchemaInvalidator, log zerolog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		transformer: transformer,
		schemas:     schemas,
		log:         log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	transformHandler := NewTransformHandler(s.transformer)
	schemaHandler := NewSchemaHandler(s.schemas, s.log)

	// Health and metrics are never signed.
	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.SigningSecret != "" {
			r.Use(SignatureMiddleware(s.cfg.SigningSecret, s.cfg.SignatureTolerance))
		} else {
			s.log.Warn().Msg("server.signing_secret is empty, /v1 requests are not authenticated")
		}

		r.Post("/process", transformHandler.Process)
		r.Post("/batch", transformHandler.Batch)
		r.Post("/batch/results", transformHandler.BatchResults)
		r.Delete("/schema", schemaHandler.Invalidate)
	})

	return r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Package server exposes a document store and an asset directory over HTTP.
// RemoteStore and RemoteUploader are its clients.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/docstore"
)

const (
	defaultMaxUpload = 20 << 20
	maxNodesBody     = 16 << 20
)

type Options struct {
	// PublicURL is prepended to asset links. Empty derives it per request.
	PublicURL string
	// MaxUpload caps asset bodies in bytes.
	MaxUpload int64
	Metrics   *Metrics
}

type Server struct {
	store     docstore.Store
	assets    *assets.LocalUploader
	logger    *zap.Logger
	metrics   *Metrics
	publicURL string
	maxUpload int64
	router    chi.Router
}

// New builds a server over store, keeping uploads in assetDir.
func New(store docstore.Store, assetDir string, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = defaultMaxUpload
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics("tornado")
	}
	s := &Server{
		store:     store,
		assets:    assets.NewLocalUploader(assetDir, "/assets"),
		logger:    logger,
		metrics:   opts.Metrics,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		maxUpload: opts.MaxUpload,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.listProjects)
		r.Post("/", s.createProject)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", s.renameProject)
			r.Delete("/", s.deleteProject)
			r.Get("/nodes", s.loadNodes)
			r.Put("/nodes", s.saveNodes)
		})
	})
	r.Post("/assets", s.uploadAsset)
	r.Get("/assets/{name}", s.serveAsset)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}

package httpapi

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/a3tai/es2aa/internal/converter"
)

//go:embed static
var staticFS embed.FS

// DefaultBasePath is the route prefix used when none is configured
const DefaultBasePath = "/tools/es2aa"

// Options configures the upload server
type Options struct {
	// UploadDir is where multipart files are staged during a conversion
	UploadDir string
	// BasePath prefixes every route
	BasePath string
	// MaxUploadSize bounds the whole request body in bytes
	MaxUploadSize int64
}

// Server exposes the converter over HTTP
type Server struct {
	converter *converter.Service
	opts      Options
	log       zerolog.Logger
	router    chi.Router
}

// NewServer creates the router and makes sure the staging directory exists
func NewServer(svc *converter.Service, opts Options, log zerolog.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("converter service is required")
	}
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	if err := os.MkdirAll(opts.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create upload directory %s: %w", opts.UploadDir, err)
	}
	opts.BasePath = normalizeBasePath(opts.BasePath)
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 2*svc.MaxFileSize() + 1<<20
	}

	s := &Server{
		converter: svc,
		opts:      opts,
		log:       log,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// BasePath returns the normalized route prefix
func (s *Server) BasePath() string {
	return s.opts.BasePath
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Recovery(s.log))

	r.Route(s.opts.BasePath, func(r chi.Router) {
		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)
		r.Post("/uploads", s.handleUpload)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("address", addr).
			Str("base_path", s.opts.BasePath).
			Str("upload_dir", s.opts.UploadDir).
			Msg("Starting HTTP server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func normalizeBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return DefaultBasePath
	}
	base = "/" + strings.Trim(base, "/")
	return base
}

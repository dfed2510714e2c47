// Package server exposes layout test runs over HTTP.
//
// The server is an inspection surface for the scheduler: it submits runs,
// serves the latest result as SVG or JSON, answers hit tests against the
// drawn grid, and pushes a websocket event whenever a run completes.
//
// Routes:
//
//	GET  /api/health
//	GET  /api/fixtures
//	POST /api/runs                  {"fixture": "...", "toggles": {"beacons": false}}
//	GET  /api/runs/latest
//	GET  /api/runs/latest/grid.svg
//	GET  /api/runs/latest/grid.json
//	GET  /api/cell?px=&py=
//	GET  /api/stats
//	GET  /ws
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	lterrors "github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/observability"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/scheduler"
)

const shutdownTimeout = 5 * time.Second

// Config wires the server to the rest of the tester.
type Config struct {
	Scheduler   *scheduler.Scheduler
	Runner      *pipeline.Runner
	Options     pipeline.Options // base options for submitted runs
	FixturesDir string
	Recorder    *observability.Recorder // optional, served at /api/stats
	Logger      *log.Logger
}

// Server is the HTTP inspection server.
type Server struct {
	cfg      Config
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local tool
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/fixtures", s.handleFixtures)
		r.Post("/runs", s.handleSubmit)
		r.Get("/runs/latest", s.handleLatest)
		r.Get("/runs/latest/grid.{format}", s.handleGrid)
		r.Get("/cell", s.handleCell)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return lterrors.Wrap(lterrors.ErrCodeEnvironment, err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe reports every request to the HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

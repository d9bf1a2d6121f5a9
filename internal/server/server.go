// Package server exposes the lineage store over HTTP as a JSON API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/tracelight-dev/tracelight/internal/build"
	"github.com/tracelight-dev/tracelight/internal/loader"
	"github.com/tracelight-dev/tracelight/internal/store"
)

// Server is the lineage API server.
type Server struct {
	store      *store.SQLiteStore
	port       int
	watch      bool
	lineageDir string
	logger     *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Store      *store.SQLiteStore
	Port       int
	Watch      bool
	LineageDir string
	Logger     *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		store:      cfg.Store,
		port:       cfg.Port,
		watch:      cfg.Watch,
		lineageDir: cfg.LineageDir,
		logger:     cfg.Logger,
	}
}

// Rebuild loads the lineage manifests, assembles documents for both
// scopes and records them as a new build. Returns the created build.
func (s *Server) Rebuild() (*store.Build, error) {
	return Rebuild(s.store, s.lineageDir)
}

// Rebuild runs one full build cycle against the given store: load
// manifests from dir, assemble the full and physical documents, record
// the build.
func Rebuild(st *store.SQLiteStore, dir string) (*store.Build, error) {
	queries, err := loader.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifests: %w", err)
	}

	full, err := build.Build(queries, build.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}
	physical, err := build.Build(queries, build.Options{PhysicalOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to build physical document: %w", err)
	}

	b, err := st.CreateBuild(len(queries), full.TableCount(), full.Domains())
	if err != nil {
		return nil, err
	}
	if err := st.SaveDocument(b.ID, store.ScopeFull, full); err != nil {
		return nil, err
	}
	if err := st.SaveDocument(b.ID, store.ScopePhysical, physical); err != nil {
		return nil, err
	}
	return b, nil
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting lineage server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	SetupRoutes(r, NewHandlers(s.store, s.logger))

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchManifests(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down lineage server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchManifests watches the lineage directory and rebuilds on change.
func (s *Server) watchManifests(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.lineageDir); err != nil {
		s.logger.Error("failed to watch lineage directory", "error", err)
		// Continue without watching rather than taking the server down.
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("manifest changed, rebuilding", "file", event.Name)
				b, err := s.Rebuild()
				if err != nil {
					s.logger.Error("rebuild failed", "error", err)
					return
				}
				s.logger.Info("rebuilt lineage", "build", b.ID, "queries", b.QueryCount)
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

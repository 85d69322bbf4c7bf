// Package server exposes the extracted SQL corpus over a small read-only
// HTTP API: filtered listings, the space/page tree, and analytics rollups.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sql-miner/sqlminer/internal/storage"
)

// Server is the browse API server.
type Server struct {
	db         *storage.Database
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server over an initialized store.
func New(db *storage.Database, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{db: db, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/scripts", s.handleListScripts)
		r.Get("/scripts/{id}", s.handleGetScript)
		r.Get("/tree", s.handleTree)
		r.Get("/insights", s.handleInsights)
		r.Get("/summary", s.handleSummary)
		r.Get("/filters", s.handleFilters)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start runs the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	s.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scriptPage is the paginated listing response.
type scriptPage struct {
	Scripts    []*storage.Script `json:"scripts"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// filterFromQuery maps the shared filter parameters onto a storage.Filter:
// search, space, type, source, size, nesting.
func filterFromQuery(q url.Values) storage.Filter {
	return storage.Filter{
		Search:        q.Get("search"),
		SpaceKey:      q.Get("space"),
		SQLType:       q.Get("type"),
		Source:        q.Get("source"),
		SizeBucket:    q.Get("size"),
		NestingBucket: q.Get("nesting"),
	}
}

// handleListScripts serves GET /api/scripts with the conjunctive filters:
// search, space, type, source, size, nesting, page.
func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := filterFromQuery(q)
	filter.Page = 1
	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		filter.Page = page
	}

	total, err := s.db.CountScripts(filter)
	if err != nil {
		s.logger.Error("count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	scripts, err := s.db.ListScripts(filter)
	if err != nil {
		s.logger.Error("list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if scripts == nil {
		scripts = []*storage.Script{}
	}

	totalPages := (total + storage.PageSize - 1) / storage.PageSize
	writeJSON(w, http.StatusOK, scriptPage{
		Scripts:    scripts,
		Total:      total,
		Page:       filter.Page,
		PageSize:   storage.PageSize,
		TotalPages: totalPages,
	})
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid script id")
		return
	}

	script, err := s.db.GetScript(id)
	if err != nil {
		s.logger.Error("get failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if script == nil {
		writeError(w, http.StatusNotFound, "script not found")
		return
	}
	writeJSON(w, http.StatusOK, script)
}

// handleTree serves the navigation tree, narrowed by the same filter
// parameters as the listing.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.db.GetTree(filterFromQuery(r.URL.Query()))
	if err != nil {
		s.logger.Error("tree failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if tree == nil {
		tree = []storage.SpaceGroup{}
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.db.GetInsights()
	if err != nil {
		s.logger.Error("insights failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.db.GetSpaceSummaries()
	if err != nil {
		s.logger.Error("summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if summaries == nil {
		summaries = []storage.SpaceSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleFilters serves the distinct values the UI offers in its dropdowns.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	spaces, types, sources, err := s.db.FilterOptions()
	if err != nil {
		s.logger.Error("filters failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"spaces":   spaces,
		"types":    types,
		"sources":  sources,
		"sizes":    {"1-5", "6-20", "21-50", "51-100", "101-500", "500+"},
		"nestings": {"0", "1-2", "3-5", "6-10", "10+"},
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package server exposes the memory engine over a local HTTP API. The MCP
// stdio surface is the primary transport; this API exists for scripting,
// the CLI's remote mode, and debugging.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thierrypdamiba/claude-memory-kit/internal/engine"
)

// tenantHeader names the request header carrying the tenant id.
const tenantHeader = "X-Memkit-User"

// defaultTenant is used when no tenant header is present.
const defaultTenant = "local"

// Server is the memkit HTTP API server.
type Server struct {
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server around an engine.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/memories", func(r chi.Router) {
			r.Get("/", s.handleListMemories)
			r.Post("/", s.handleCreateMemory)
			r.Get("/{memoryID}", s.handleGetMemory)
			r.Patch("/{memoryID}", s.handleUpdateMemory)
			r.Delete("/{memoryID}", s.handleForgetMemory)
			r.Post("/{memoryID}/pin", s.handlePinMemory)
		})
		r.Get("/search", s.handleSearch)
		r.Get("/identity", s.handleGetIdentity)
		r.Post("/identity", s.handlePostIdentity)
		r.Get("/graph/{memoryID}", s.handleGraph)
		r.Post("/reflect", s.handleReflect)
		r.Get("/stats", s.handleStats)
		r.Post("/checkpoint", s.handleCheckpoint)
		r.Get("/scan", s.handleScan)
		r.Post("/classify", s.handleClassify)
	})

	s.router = r
}

// tenant resolves the tenant id for a request.
func tenant(r *http.Request) string {
	if t := r.Header.Get(tenantHeader); t != "" {
		return t
	}
	return defaultTenant
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

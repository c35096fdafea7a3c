package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{
		Person:  r.URL.Query().Get("person"),
		Project: r.URL.Query().Get("project"),
	}
	if g := r.URL.Query().Get("gate"); g != "" {
		gate, err := memory.ParseGate(g)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Gate = gate
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n > 0 {
			f.Offset = n
		}
	}

	memories, err := s.engine.List(r.Context(), tenant(r), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(memories),
		"memories": memories,
	})
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Gate    string `json:"gate"`
		Person  string `json:"person"`
		Project string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}
	if req.Gate == "" {
		writeError(w, http.StatusBadRequest, "gate required")
		return
	}

	result, err := s.engine.Remember(r.Context(), tenant(r), req.Content, req.Gate, req.Person, req.Project)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"result": result})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.Get(r.Context(), tenant(r), chi.URLParam(r, "memoryID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content *string `json:"content"`
		Gate    *string `json:"gate"`
		Person  *string `json:"person"`
		Project *string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	upd := store.MemoryUpdate{
		Content: req.Content,
		Person:  req.Person,
		Project: req.Project,
	}
	if req.Gate != nil {
		gate, err := memory.ParseGate(*req.Gate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Gate = &gate
	}

	err := s.engine.Update(r.Context(), tenant(r), chi.URLParam(r, "memoryID"), upd)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleForgetMemory(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "deleted via API"
	}
	result, err := s.engine.Forget(r.Context(), tenant(r), chi.URLParam(r, "memoryID"), reason)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) handlePinMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	err := s.engine.Pin(r.Context(), tenant(r), chi.URLParam(r, "memoryID"), req.Pinned)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pinned": req.Pinned})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}
	result := s.engine.Recall(r.Context(), tenant(r), query)
	writeJSON(w, http.StatusOK, map[string]string{
		"query":  query,
		"result": result,
	})
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	card, err := s.engine.IdentityCard(r.Context(), tenant(r))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no identity card yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handlePostIdentity advances the onboarding conversation. An empty
// response re-emits the current step's prompt.
func (s *Server) handlePostIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	result, err := s.engine.Identity(r.Context(), tenant(r), req.Response)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	depth := 2
	if d := r.URL.Query().Get("depth"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			depth = n
		}
	}
	related, err := s.engine.Graph(r.Context(), tenant(r), chi.URLParam(r, "memoryID"), depth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(related),
		"related": related,
	})
}

func (s *Server) handleReflect(w http.ResponseWriter, r *http.Request) {
	result := s.engine.Reflect(r.Context(), tenant(r))
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetStats(r.Context(), tenant(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Summary == "" {
		writeError(w, http.StatusBadRequest, "summary required")
		return
	}
	result, err := s.engine.Checkpoint(r.Context(), tenant(r), req.Summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"result": result})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	result, err := s.engine.Scan(r.Context(), tenant(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Force bool `json:"force"`
	}
	// Body is optional; a missing or empty body means force=false.
	_ = json.NewDecoder(r.Body).Decode(&req)

	result, err := s.engine.ClassifyAll(r.Context(), tenant(r), req.Force)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

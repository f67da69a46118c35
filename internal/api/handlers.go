package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/relay/internal/ipc"
)

// maxCommandBodyBytes caps the POST /plugin/{name}/run request body.
const maxCommandBodyBytes = 64 * 1024

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		PluginsLoaded: len(s.registry.All()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePlugins handles GET /plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	plugins := make([]PluginInfo, 0, len(s.registry.All()))
	for _, name := range s.registry.Names() {
		p, _ := s.registry.Get(name)
		plugins = append(plugins, PluginInfo{
			Name:      p.Name,
			Version:   p.Version,
			Endpoints: p.Channel.EndpointCount(),
		})
	}
	s.writeJSON(w, http.StatusOK, plugins)
}

// handleRun handles POST /plugin/{name}/run. The request body is the raw
// command text, heredoc form included; the trailing newline, if any, is
// stripped because the channel call layer adds the terminator itself.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	conn, ok := s.conns[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, "plugin not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBodyBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read command")
		return
	}
	if len(body) > maxCommandBodyBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "command too large")
		return
	}

	cmd := strings.TrimSuffix(string(body), "\n")
	if cmd == "" {
		s.writeError(w, http.StatusBadRequest, "command is empty")
		return
	}

	conn.mu.Lock()
	reply, err := ipc.RunTimeout(conn.ep, s.config.ReplyTimeout, "%s", cmd)
	conn.mu.Unlock()
	if err != nil {
		s.logger.Error("command failed", "plugin", name, "error", err)
		s.writeError(w, http.StatusBadGateway, "command failed")
		return
	}

	s.writeJSON(w, http.StatusOK, RunResponse{Status: reply.Status, Answer: reply.Answer})
}

// handleAudit handles GET /audit?limit=N.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read audit trail", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read audit trail")
		return
	}

	out := make([]AuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntry{
			ID:         e.ID,
			Plugin:     e.Plugin,
			Command:    e.Command,
			Status:     e.Status,
			DurationMS: e.DurationMS,
			Source:     e.Source,
			CreatedAt:  e.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

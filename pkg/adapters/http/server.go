// Package http exposes a read-only inspection API over the engine: registry
// contents, registered catalogs, journal history, and Prometheus metrics.
// The engine itself stays in-process; the API never mutates it.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the inspection surface the server needs. The root
// espalier.Engine satisfies it.
type Engine interface {
	Behaviors() []string
	Components() []string
	Snapshot() []registry.NodeSnapshot
	Journal() ports.Journal
}

// Server serves the inspection API.
type Server struct {
	Engine Engine
}

// NewHandler creates the HTTP handler for the inspection API.
func NewHandler(engine Engine) http.Handler {
	server := &Server{Engine: engine}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/registry", server.GetRegistry)
	r.Get("/catalogs", server.GetCatalogs)
	r.Get("/journal/{nodeID}", server.GetJournal)
	r.Handle("/metrics", promhttp.Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"app":     "espalier-http",
		"version": strings.TrimSpace(espalier.Version),
	})
}

// GetRegistry handles the GET /registry request: every managed node identity
// with its attached types and live subscription count.
func (s *Server) GetRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Engine.Snapshot())
}

// GetCatalogs handles the GET /catalogs request.
func (s *Server) GetCatalogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{
		"behaviors":  s.Engine.Behaviors(),
		"components": s.Engine.Components(),
	})
}

// GetJournal handles the GET /journal/{nodeID} request.
func (s *Server) GetJournal(w http.ResponseWriter, r *http.Request) {
	journal := s.Engine.Journal()
	if journal == nil {
		http.Error(w, "No journal configured", http.StatusNotFound)
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	entries, err := journal.Entries(r.Context(), nodeID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Journal error: %v", err), http.StatusInternalServerError)
		slog.Error("Journal read failed", "node_id", nodeID, "error", err)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

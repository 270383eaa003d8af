// Package api provides the HTTP API for watching the reference host.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/engine"
	"github.com/talgya/collapse-rescue/internal/persistence"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

const maxWatchers = 4

// Server serves the host state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; history endpoints answer 503 without it
	Registry *rescue.Registry
	Hub      *Hub
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for the stream endpoint. Empty = open.
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	historyLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/pending", s.handlePending)
	mux.HandleFunc("/api/v1/profiles", s.handleProfiles)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/incidents", RateLimitMiddleware(historyLimiter, s.handleIncidents))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	if s.Hub == nil {
		s.Hub = NewHub(maxWatchers)
	}
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearer reports whether the request carries the given bearer token.
func checkBearer(r *http.Request, key string) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == key
}

// adminOnly requires POST with the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !checkBearer(r, s.AdminKey) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.Sim.View(func() {
		status = map[string]any{
			"name":          "collapse-rescue",
			"day":           s.Sim.Day(),
			"time":          engine.ClockTime(s.Sim.Day(), s.Sim.TimeOfDay()),
			"agents":        s.Sim.Stats.Population,
			"in_bed":        s.Sim.Stats.InBed,
			"collapses":     s.Sim.Stats.Collapses,
			"rescues":       s.Sim.Stats.Rescues,
			"total_rescues": s.Sim.Stats.TotalRescues,
			"total_money":   s.Sim.Stats.TotalMoney,
		}
		if s.Sim.Collapse != nil {
			status["pending"] = len(s.Sim.Collapse.Store.Pending())
		}
	})
	if s.Eng != nil {
		status["running"] = s.Eng.Running
	}
	if s.Hub != nil {
		status["watchers"] = s.Hub.Watchers()
	}
	writeJSON(w, status)
}

type agentSummary struct {
	ID       agents.AgentID `json:"id"`
	Name     string         `json:"name"`
	Location string         `json:"location"`
	Zone     world.Zone     `json:"zone"`
	InBed    bool           `json:"in_bed"`
	Money    int            `json:"money"`
	Items    int            `json:"items"`
	Partner  string         `json:"partner,omitempty"`
	Buffs    []string       `json:"buffs,omitempty"`
}

func summarize(a *agents.Agent) agentSummary {
	sum := agentSummary{
		ID:       a.ID,
		Name:     a.Name,
		Location: a.Location.Name,
		Zone:     world.Classify(a.Location),
		InBed:    a.InBed,
		Money:    a.Money,
		Items:    a.ItemCount(),
		Partner:  a.Partner,
	}
	for _, b := range a.Buffs {
		sum.Buffs = append(sum.Buffs, b.ID)
	}
	return sum
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	zoneFilter := r.URL.Query().Get("zone")
	var want world.Zone
	if zoneFilter != "" {
		z, err := world.ParseZone(zoneFilter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		want = z
	}

	var out []agentSummary
	s.Sim.View(func() {
		for _, a := range s.Sim.Agents {
			sum := summarize(a)
			if zoneFilter != "" && sum.Zone != want {
				continue
			}
			out = append(out, sum)
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	var (
		detail map[string]any
		found  bool
	)
	s.Sim.View(func() {
		a, ok := s.Sim.AgentIndex[agents.AgentID(id)]
		if !ok {
			return
		}
		found = true
		detail = map[string]any{
			"agent":       summarize(a),
			"experience":  a.Experience,
			"friendships": a.Friendships,
			"buffs":       a.Buffs,
		}
		if s.Sim.Collapse != nil {
			if rec, ok := s.Sim.Collapse.Store.Get(a.ID); ok {
				detail["record"] = rec
			}
		}
	})
	if !found {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}

	if s.DB != nil {
		totals, err := s.DB.TotalsFor(agents.AgentID(id))
		if err != nil {
			slog.Error("incident totals failed", "agent", id, "error", err)
		} else {
			detail["incident_totals"] = totals
		}
	}
	writeJSON(w, detail)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if s.Sim.Collapse == nil {
		writeJSON(w, []collapse.Record{})
		return
	}
	writeJSON(w, s.Sim.Collapse.Store.Pending())
}

type profileSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Archetype string       `json:"archetype"`
	Zones     []world.Zone `json:"zones"`
	LinkedNPC string       `json:"linked_npc,omitempty"`
	Available bool         `json:"available"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if s.Registry == nil {
		http.Error(w, "no registry", http.StatusServiceUnavailable)
		return
	}
	var out []profileSummary
	s.Sim.View(func() {
		for _, p := range s.Registry.All() {
			out = append(out, profileSummary{
				ID:        p.ID,
				Name:      p.DisplayName,
				Archetype: p.Archetype.String(),
				Zones:     p.Zones,
				LinkedNPC: p.LinkedNPC,
				Available: p.LinkedNPC == "" || s.Sim.CharacterExists(p.LinkedNPC),
			})
		}
	})
	writeJSON(w, out)
}

func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	category := r.URL.Query().Get("category")

	var events []engine.Event
	s.Sim.View(func() {
		for _, e := range s.Sim.Events {
			if category == "" || e.Category == category {
				events = append(events, e)
			}
		}
	})

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	incidents, err := s.DB.RecentIncidents(queryLimit(r, 50, 500))
	if err != nil {
		slog.Error("incident query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, incidents)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	if s.RelayKey != "" && !checkBearer(r, s.RelayKey) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.Hub.ServeHTTP(w, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var err error
	s.Sim.View(func() {
		err = s.DB.SaveWorldState(s.Sim)
	})
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"day":     s.Sim.Day(),
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/engine"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/i18n"
	"github.com/talgya/collapse-rescue/internal/persistence"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ag := agents.NewSpawner(2).SpawnPopulation(3, world.FarmHouse)
	sim := engine.NewSimulation(world.DefaultMap(), ag, engine.DefaultNPCs, 2)
	hub := NewHub(maxWatchers)
	reg := rescue.DefaultRegistry()
	sim.Collapse = collapse.New(collapse.Options{
		Config:     config.Default(),
		Blob:       db,
		Registry:   reg,
		Rand:       entropy.NewSeeded(2),
		Host:       sim,
		Translator: i18n.Default(),
		History:    collapse.Fanout(db, hub),
	})
	require.NoError(t, sim.Loaded())

	return &Server{
		Sim:      sim,
		Eng:      engine.NewEngine(),
		DB:       db,
		Registry: reg,
		Hub:      hub,
		AdminKey: "secret",
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s.Handler(), "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["agents"])
	assert.EqualValues(t, 0, body["pending"])
	assert.Equal(t, false, body["running"])
}

func TestAgents_ZoneFilter(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Agents[0].Location = world.Mine

	rec := get(t, s.Handler(), "/api/v1/agents?zone=mines")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []agentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, s.Sim.Agents[0].ID, out[0].ID)
	assert.Equal(t, world.ZoneMines, out[0].Zone)

	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/api/v1/agents?zone=moon").Code)
}

func TestAgentDetail(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/agent/abc").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/agent/999").Code)

	a := s.Sim.Agents[1]
	s.Sim.Collapse.Store.Put(a.ID, collapse.Record{Zone: world.ZoneDesert, Day: 1})

	rec := get(t, h, "/api/v1/agent/"+strconv.FormatUint(uint64(a.ID), 10))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "record")
	assert.Contains(t, body, "incident_totals")
}

func TestPendingAndProfiles(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Collapse.Store.Put(2, collapse.Record{Zone: world.ZoneTown, Day: 1})
	s.Sim.Collapse.Store.Put(3, collapse.Record{Zone: world.ZoneTown, Day: 1, Processed: true})

	var pending []collapse.Record
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/api/v1/pending").Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.EqualValues(t, 2, pending[0].AgentID)

	var profiles []profileSummary
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/api/v1/profiles").Body.Bytes(), &profiles))
	require.Len(t, profiles, 7)
	for _, p := range profiles {
		assert.True(t, p.Available, p.ID)
	}
}

func TestSnapshot_Auth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/v1/snapshot").Code)
	assert.Equal(t, http.StatusUnauthorized, post("wrong"))
	assert.Equal(t, http.StatusOK, post("secret"))
	assert.True(t, s.DB.HasWorldState())

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post("secret"))
}

func TestIncidentsAndStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Hub.Watchers() == 1 }, time.Second, 10*time.Millisecond)

	// One agent stays up past 2:00 in the mines, then the next day resolves it.
	a := s.Sim.Agents[0]
	s.Sim.StartDay(1)
	a.Location = world.Mine
	for _, other := range s.Sim.Agents[1:] {
		other.InBed = true
	}
	s.Sim.EndDay(1, engine.DayEndTime)
	outs := s.Sim.StartDay(2)
	require.Len(t, outs, 1)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var streamed collapse.Outcome
	require.NoError(t, json.Unmarshal(msg, &streamed))
	assert.Equal(t, outs[0].ID, streamed.ID)

	resp, err := http.Get(srv.URL + "/api/v1/incidents?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	var incidents []persistence.Incident
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&incidents))
	require.Len(t, incidents, 1)
	assert.Equal(t, outs[0].ID, incidents[0].ID)
	assert.Equal(t, "Mines", incidents[0].Zone)
}

func TestStream_RelayKey(t *testing.T) {
	s := newTestServer(t)
	s.RelayKey = "relay"
	rec := get(t, s.Handler(), "/api/v1/stream")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per client")
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientAddr(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientAddr(r))
}

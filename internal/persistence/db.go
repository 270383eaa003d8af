// Package persistence provides SQLite-backed save slots, agent state and the
// incident history.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/engine"
	"github.com/talgya/collapse-rescue/internal/world"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS save_data (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		in_bed INTEGER NOT NULL,
		money INTEGER NOT NULL,
		partner TEXT NOT NULL,
		experience_json TEXT NOT NULL,
		items_json TEXT NOT NULL,
		friendships_json TEXT NOT NULL,
		buffs_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		agent_id INTEGER NOT NULL,
		day INTEGER NOT NULL,
		resolved_day INTEGER NOT NULL,
		zone TEXT NOT NULL,
		severity TEXT NOT NULL,
		profile_id TEXT NOT NULL,
		gold_lost INTEGER NOT NULL,
		items_lost INTEGER NOT NULL,
		xp_lost INTEGER NOT NULL,
		skill TEXT NOT NULL,
		buff TEXT NOT NULL,
		friend TEXT NOT NULL,
		friend_by INTEGER NOT NULL,
		message TEXT NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_agent ON incidents(agent_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_seq ON incidents(seq);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ReadSaveData returns the blob stored under key, or nil when there is none.
func (db *DB) ReadSaveData(key string) ([]byte, error) {
	var value []byte
	err := db.conn.Get(&value, "SELECT value FROM save_data WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

// WriteSaveData replaces the blob stored under key.
func (db *DB) WriteSaveData(key string, data []byte) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO save_data (key, value) VALUES (?, ?)",
		key, data,
	)
	return err
}

// Incident is one row of the incident history.
type Incident struct {
	ID        string `db:"id"`
	AgentID   int64  `db:"agent_id"`
	Day       int    `db:"day"`
	Resolved  int    `db:"resolved_day"`
	Zone      string `db:"zone"`
	Severity  string `db:"severity"`
	ProfileID string `db:"profile_id"`
	GoldLost  int    `db:"gold_lost"`
	ItemsLost int    `db:"items_lost"`
	XPLost    int    `db:"xp_lost"`
	Skill     string `db:"skill"`
	Buff      string `db:"buff"`
	Friend    string `db:"friend"`
	FriendBy  int    `db:"friend_by"`
	Message   string `db:"message"`
}

// AppendIncident records a resolved outcome.
func (db *DB) AppendIncident(o collapse.Outcome) error {
	_, err := db.conn.Exec(`INSERT INTO incidents
		(id, agent_id, day, resolved_day, zone, severity, profile_id,
		 gold_lost, items_lost, xp_lost, skill, buff, friend, friend_by, message, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        (SELECT COALESCE(MAX(seq), 0) + 1 FROM incidents))`,
		o.ID, int64(o.AgentID), o.Day, o.Resolved, o.Zone.String(), o.Severity.String(), o.ProfileID,
		o.GoldLost, o.ItemsLost, o.XPLost, o.Skill.String(), o.Buff, o.Friend, o.FriendBy, o.Message,
	)
	if err != nil {
		return fmt.Errorf("insert incident %s: %w", o.ID, err)
	}
	return nil
}

// RecentIncidents returns the most recent N incidents, newest first.
func (db *DB) RecentIncidents(limit int) ([]Incident, error) {
	var out []Incident
	err := db.conn.Select(&out, `SELECT id, agent_id, day, resolved_day, zone, severity,
		profile_id, gold_lost, items_lost, xp_lost, skill, buff, friend, friend_by, message
		FROM incidents ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	return out, err
}

// IncidentTotals summarizes the history of one agent.
type IncidentTotals struct {
	Count     int `db:"count"`
	GoldLost  int `db:"gold_lost"`
	ItemsLost int `db:"items_lost"`
	XPLost    int `db:"xp_lost"`
}

// TotalsFor sums the incident history of an agent.
func (db *DB) TotalsFor(id agents.AgentID) (IncidentTotals, error) {
	var t IncidentTotals
	err := db.conn.Get(&t, `SELECT COUNT(*) AS count,
		COALESCE(SUM(gold_lost), 0) AS gold_lost,
		COALESCE(SUM(items_lost), 0) AS items_lost,
		COALESCE(SUM(xp_lost), 0) AS xp_lost
		FROM incidents WHERE agent_id = ?`, int64(id))
	return t, err
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, location, in_bed, money, partner,
		 experience_json, items_json, friendships_json, buffs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		expJSON, _ := json.Marshal(a.Experience)
		itemsJSON, _ := json.Marshal(a.Items)
		friendsJSON, _ := json.Marshal(a.Friendships)
		buffsJSON, _ := json.Marshal(a.Buffs)

		inBed := 0
		if a.InBed {
			inBed = 1
		}

		_, err := stmt.Exec(
			int64(a.ID), a.Name, a.Location.Name, inBed, a.Money, a.Partner,
			string(expJSON), string(itemsJSON), string(friendsJSON), string(buffsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

type agentRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Location    string `db:"location"`
	InBed       int    `db:"in_bed"`
	Money       int    `db:"money"`
	Partner     string `db:"partner"`
	Experience  string `db:"experience_json"`
	Items       string `db:"items_json"`
	Friendships string `db:"friendships_json"`
	Buffs       string `db:"buffs_json"`
}

// LoadAgents reads every agent, resolving locations against m. Unknown
// location names fall back to the farmhouse.
func (db *DB) LoadAgents(m *world.Map) ([]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, err
	}

	out := make([]*agents.Agent, 0, len(rows))
	for _, r := range rows {
		loc, ok := m.Get(r.Location)
		if !ok {
			slog.Warn("unknown saved location", "agent", r.ID, "location", r.Location)
			loc = world.FarmHouse
		}
		a := &agents.Agent{
			ID:       agents.AgentID(r.ID),
			Name:     r.Name,
			Location: loc,
			InBed:    r.InBed != 0,
			Money:    r.Money,
			Partner:  r.Partner,
		}
		if err := json.Unmarshal([]byte(r.Experience), &a.Experience); err != nil {
			return nil, fmt.Errorf("agent %d experience: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Items), &a.Items); err != nil {
			return nil, fmt.Errorf("agent %d items: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Friendships), &a.Friendships); err != nil {
			return nil, fmt.Errorf("agent %d friendships: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Buffs), &a.Buffs); err != nil {
			return nil, fmt.Errorf("agent %d buffs: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a previous run left a saved day behind.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("last_day")
	return err == nil
}

// LastDay returns the last completed day of a saved run.
func (db *DB) LastDay() (int, error) {
	v, err := db.GetMeta("last_day")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// SaveWorldState performs a full save: agents, the day counter and every
// save-slot subscriber.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	slog.Info("saving world state", "agents", len(sim.Agents), "day", sim.Day())

	if err := sim.Saving(); err != nil {
		return fmt.Errorf("save slots: %w", err)
	}
	if err := db.SaveAgents(sim.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveMeta("last_day", strconv.Itoa(sim.Day())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

package collapse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/collapse-rescue/internal/agents"
)

// SaveKey is the blob key the collapse state is stored under.
const SaveKey = "collapse-data"

// SaveData is everything that survives a reload.
type SaveData struct {
	CollapseByAgent map[agents.AgentID]Record `json:"collapse_by_agent"`
}

// Blob is the host-managed key/value save slot. ReadSaveData returns nil data
// and a nil error when nothing has been written under key.
type Blob interface {
	ReadSaveData(key string) ([]byte, error)
	WriteSaveData(key string, data []byte) error
}

// Store maps agents to at most one record each. Records are held by value so
// a Save taken at any point sees a consistent copy.
type Store struct {
	blob Blob

	mu      sync.Mutex
	records map[agents.AgentID]Record
}

// NewStore creates an empty store over the given blob.
func NewStore(blob Blob) *Store {
	return &Store{
		blob:    blob,
		records: make(map[agents.AgentID]Record),
	}
}

// Load replaces the in-memory state with the persisted one. A missing blob
// yields an empty state; a corrupt blob is logged and also yields an empty
// state. Only a failing backend is reported as an error.
func (s *Store) Load() (SaveData, error) {
	data, err := s.blob.ReadSaveData(SaveKey)
	if err != nil {
		s.reset()
		return s.Snapshot(), fmt.Errorf("read save data: %w", err)
	}

	loaded := make(map[agents.AgentID]Record)
	if len(data) > 0 {
		var sd SaveData
		if err := json.Unmarshal(data, &sd); err != nil {
			slog.Warn("discarding corrupt collapse save data", "error", err, "bytes", len(data))
		} else {
			for id, r := range sd.CollapseByAgent {
				r.AgentID = id
				loaded[id] = r
			}
		}
	}

	s.mu.Lock()
	s.records = loaded
	s.mu.Unlock()

	return s.Snapshot(), nil
}

// Save writes the current state to the blob.
func (s *Store) Save() error {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode save data: %w", err)
	}
	if err := s.blob.WriteSaveData(SaveKey, data); err != nil {
		return fmt.Errorf("write save data: %w", err)
	}
	return nil
}

// Get returns the record of an agent.
func (s *Store) Get(id agents.AgentID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

// Put stores the record of an agent, replacing any previous one.
func (s *Store) Put(id agents.AgentID, r Record) {
	r.AgentID = id
	s.mu.Lock()
	s.records[id] = r
	s.mu.Unlock()
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() SaveData {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := SaveData{CollapseByAgent: make(map[agents.AgentID]Record, len(s.records))}
	for id, r := range s.records {
		out.CollapseByAgent[id] = r
	}
	return out
}

// Pending returns the unprocessed records ordered by agent.
func (s *Store) Pending() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.records {
		if !r.Processed {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

func (s *Store) reset() {
	s.mu.Lock()
	s.records = make(map[agents.AgentID]Record)
	s.mu.Unlock()
}

// MemoryBlob is an in-process Blob.
type MemoryBlob struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryBlob creates an empty MemoryBlob.
func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{data: make(map[string][]byte)}
}

// ReadSaveData implements Blob.
func (m *MemoryBlob) ReadSaveData(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), d...), nil
}

// WriteSaveData implements Blob.
func (m *MemoryBlob) WriteSaveData(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// Simulation ties the valley, its agents and the collapse subsystem together
// and runs them on the engine clock.
package engine

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

// DefaultNPCs is the resident roster of the reference valley.
var DefaultNPCs = []string{
	"Harvey", "Linus", "Marlon", "Shane", "Gus", "Pierre", "Robin", "Willy",
}

// Simulation holds the complete world state.
type Simulation struct {
	WorldMap   *world.Map
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	NPCs       map[string]bool
	Plans      map[agents.AgentID]agents.Plan

	// Collapse is notified on every day boundary and clock step when set.
	Collapse *collapse.Subsystem

	// BedQuorum is the fraction of agents in bed that closes the day early.
	BedQuorum float64

	Inbox  []Message // Messages shown to agents
	Events []Event   // Recent events

	Stats SimStats

	mu        sync.RWMutex
	rng       *rand.Rand
	day       int
	timeOfDay int
}

// Message is a line of text shown to one agent.
type Message struct {
	Day     int            `json:"day"`
	AgentID agents.AgentID `json:"agent_id"`
	Text    string         `json:"text"`
}

// Event is a notable occurrence in the world.
type Event struct {
	Day         int    `json:"day"`
	Time        int    `json:"time"`
	Description string `json:"description"`
	Category    string `json:"category"` // "collapse", "rescue", "buff"
}

// SimStats tracks aggregate statistics for the current day.
type SimStats struct {
	Population   int   `json:"population"`
	TotalMoney   int64 `json:"total_money"`
	InBed        int   `json:"in_bed"`
	Collapses    int   `json:"collapses"`
	Rescues      int   `json:"rescues"`
	GoldLost     int64 `json:"gold_lost"`
	TotalRescues int   `json:"total_rescues"`
}

// NewSimulation creates a Simulation over a map, a roster and the resident
// NPCs.
func NewSimulation(m *world.Map, ag []*agents.Agent, npcs []string, seed int64) *Simulation {
	index := make(map[agents.AgentID]*agents.Agent, len(ag))
	for _, a := range ag {
		index[a.ID] = a
	}
	residents := make(map[string]bool, len(npcs))
	for _, n := range npcs {
		residents[n] = true
	}

	sim := &Simulation{
		WorldMap:   m,
		Agents:     ag,
		AgentIndex: index,
		NPCs:       residents,
		Plans:      make(map[agents.AgentID]agents.Plan, len(ag)),
		BedQuorum:  1.0,
		rng:        rand.New(rand.NewSource(seed + 700)),
	}
	sim.updateStats()
	return sim
}

// Attach wires the simulation onto an engine's callbacks. Every callback
// holds the write lock.
func (s *Simulation) Attach(e *Engine) {
	e.OnDayStarted = func(day int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.StartDay(day)
	}
	e.OnTime = func(day, timeOfDay int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.TickTime(day, timeOfDay)
	}
	e.OnDayEnding = func(day, timeOfDay int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.EndDay(day, timeOfDay)
	}
	e.ReadyToSleep = func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.ReadyToSleep()
	}
}

// View runs fn with the world locked for reading.
func (s *Simulation) View(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// TimeOfDay returns the current clock time.
func (s *Simulation) TimeOfDay() int {
	return s.timeOfDay
}

// Day returns the current day.
func (s *Simulation) Day() int {
	return s.day
}

// dayContext returns the day context handed to the collapse subsystem.
func (s *Simulation) dayContext() collapse.Day {
	return collapse.Day{Index: s.day, TimeOfDay: s.timeOfDay, Agents: s.Agents}
}

// Loaded notifies subscribers that a save was loaded.
func (s *Simulation) Loaded() error {
	if s.Collapse == nil {
		return nil
	}
	return s.Collapse.OnSaveLoaded()
}

// Saving notifies subscribers that the world is being saved.
func (s *Simulation) Saving() error {
	if s.Collapse == nil {
		return nil
	}
	return s.Collapse.OnSaving()
}

// StartDay wakes everyone at home, resolves the previous night and plans the
// new day.
func (s *Simulation) StartDay(day int) []collapse.Outcome {
	s.day = day
	s.timeOfDay = DayStartTime
	s.Stats.Collapses = 0
	s.Stats.Rescues = 0
	s.Stats.GoldLost = 0

	for _, a := range s.Agents {
		a.InBed = false
		a.Location = world.FarmHouse
	}

	var outcomes []collapse.Outcome
	if s.Collapse != nil {
		outcomes = s.Collapse.OnDayStarted(s.dayContext())
	}
	for _, o := range outcomes {
		s.Stats.Rescues++
		s.Stats.TotalRescues++
		s.Stats.GoldLost += int64(o.GoldLost)
		s.record("rescue", o.Message)
	}

	for _, a := range s.Agents {
		s.Plans[a.ID] = agents.PlanDay(a, s.WorldMap, s.rng)
	}
	return outcomes
}

// TickTime moves agents along their plans and sends them to bed at bedtime.
func (s *Simulation) TickTime(day, timeOfDay int) {
	s.timeOfDay = timeOfDay
	for _, a := range s.Agents {
		if a.InBed {
			continue
		}
		a.DecayBuffs(MinutesPerStep)

		plan, ok := s.Plans[a.ID]
		if ok && timeOfDay >= plan.Bedtime {
			a.Location = world.FarmHouse
			a.InBed = true
			continue
		}
		if ok {
			a.Location = plan.LocationAt(timeOfDay, DayStartTime)
		}
	}

	if s.Collapse != nil {
		s.Collapse.OnTimeChanged(s.dayContext())
	}
}

// ReadyToSleep reports whether enough agents are in bed to close the day.
func (s *Simulation) ReadyToSleep() bool {
	if len(s.Agents) == 0 {
		return true
	}
	inBed := 0
	for _, a := range s.Agents {
		if a.InBed {
			inBed++
		}
	}
	return float64(inBed)/float64(len(s.Agents)) >= s.BedQuorum
}

// EndDay captures collapses and logs the daily report.
func (s *Simulation) EndDay(day, timeOfDay int) {
	s.timeOfDay = timeOfDay

	for _, a := range s.Agents {
		if !a.InBed {
			s.record("collapse", a.Name+" collapsed at "+a.Location.Name)
		}
	}
	if s.Collapse != nil {
		s.Stats.Collapses = s.Collapse.OnDayEnding(s.dayContext())
	}
	s.updateStats()

	slog.Info("daily report",
		"day", day,
		"time", ClockTime(day, timeOfDay),
		"agents", s.Stats.Population,
		"in_bed", s.Stats.InBed,
		"collapses", s.Stats.Collapses,
		"rescues", s.Stats.Rescues,
		"gold_lost", humanize.Comma(s.Stats.GoldLost),
		"total_money", humanize.Comma(s.Stats.TotalMoney),
	)

	// Trim old events to prevent unbounded growth (keep last 1000).
	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
	if len(s.Inbox) > 1000 {
		s.Inbox = s.Inbox[len(s.Inbox)-1000:]
	}
}

func (s *Simulation) record(category, description string) {
	s.Events = append(s.Events, Event{
		Day:         s.day,
		Time:        s.timeOfDay,
		Description: description,
		Category:    category,
	})
}

func (s *Simulation) updateStats() {
	s.Stats.Population = len(s.Agents)
	s.Stats.TotalMoney = 0
	s.Stats.InBed = 0
	for _, a := range s.Agents {
		s.Stats.TotalMoney += int64(a.Money)
		if a.InBed {
			s.Stats.InBed++
		}
	}
}

// CharacterExists implements collapse.Host.
func (s *Simulation) CharacterExists(name string) bool {
	return s.NPCs[name]
}

// ApplyBuff implements collapse.Host.
func (s *Simulation) ApplyBuff(a *agents.Agent, b rescue.Buff, displaySource string) {
	a.AddBuff(agents.ActiveBuff{
		ID:          b.ID,
		Source:      displaySource,
		MinutesLeft: b.DurationMinutes,
		Effects:     b.Effects(),
	})
	s.record("buff", a.Name+" gained "+displaySource)
}

// ChangeFriendship implements collapse.Host.
func (s *Simulation) ChangeFriendship(a *agents.Agent, npc string, amount int) {
	a.ChangeFriendship(npc, amount)
}

// ShowMessage implements collapse.Host.
func (s *Simulation) ShowMessage(a *agents.Agent, text string) {
	s.Inbox = append(s.Inbox, Message{Day: s.day, AgentID: a.ID, Text: text})
	slog.Debug("message shown", "agent", a.ID, "text", text)
}

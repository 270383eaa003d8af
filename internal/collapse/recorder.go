package collapse

import (
	"log/slog"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Day is the explicit context handed to every day-boundary call.
type Day struct {
	Index     int             // Simulated day number
	TimeOfDay int             // Clock time, 600 through 2600
	Agents    []*agents.Agent // Active agents
}

// Tracker remembers the zone each agent was last seen awake in before
// SevereTime. It is cleared at the start of every day.
type Tracker struct {
	last map[agents.AgentID]world.Zone
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[agents.AgentID]world.Zone)}
}

// Observe samples every awake agent. Samples at or after SevereTime are
// ignored so the "where you fell" zone is the last one before the cutoff.
func (t *Tracker) Observe(timeOfDay int, as []*agents.Agent) {
	if timeOfDay >= SevereTime {
		return
	}
	for _, a := range as {
		if a.InBed {
			continue
		}
		t.last[a.ID] = world.Classify(a.Location)
	}
}

// Last returns the last sampled zone of an agent.
func (t *Tracker) Last(id agents.AgentID) (world.Zone, bool) {
	z, ok := t.last[id]
	return z, ok
}

// Reset forgets every sample.
func (t *Tracker) Reset() {
	t.last = make(map[agents.AgentID]world.Zone)
}

// Recorder writes a pending record for every agent not safely in bed when
// the day closes.
type Recorder struct {
	Store *Store

	// Tracker is consulted when set; agents without a sample fall back to the
	// zone they are standing in.
	Tracker *Tracker
}

// Record captures the day's collapses and returns how many were written.
func (r *Recorder) Record(d Day) int {
	n := 0
	severity := SeverityAt(d.TimeOfDay)

	for _, a := range d.Agents {
		if a.InBed {
			continue
		}

		zone := world.Classify(a.Location)
		if r.Tracker != nil {
			if last, ok := r.Tracker.Last(a.ID); ok {
				zone = last
			}
		}

		r.Store.Put(a.ID, Record{
			AgentID:  a.ID,
			Zone:     zone,
			Severity: severity,
			Day:      d.Index,
		})
		n++

		slog.Debug("collapse recorded",
			"agent", a.ID,
			"day", d.Index,
			"zone", zone,
			"severity", severity,
			"location", a.Location.Name,
		)
	}
	return n
}

package collapse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/world"
)

func TestRecorder_SkipsAgentsInBed(t *testing.T) {
	store := NewStore(NewMemoryBlob())
	rec := &Recorder{Store: store}

	asleep := newAgent(1, "Sam", world.FarmHouse)
	asleep.InBed = true
	awake := newAgent(2, "Abby", world.Mine)

	n := rec.Record(Day{Index: 5, TimeOfDay: 2600, Agents: []*agents.Agent{asleep, awake}})
	assert.Equal(t, 1, n)

	_, ok := store.Get(1)
	assert.False(t, ok)

	r, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, Record{AgentID: 2, Zone: world.ZoneMines, Severity: SeveritySevere, Day: 5}, r)
}

func TestRecorder_MildBeforeTwo(t *testing.T) {
	store := NewStore(NewMemoryBlob())
	rec := &Recorder{Store: store}

	rec.Record(Day{Index: 3, TimeOfDay: 2400, Agents: []*agents.Agent{newAgent(1, "Sam", world.Town)}})
	r, _ := store.Get(1)
	assert.Equal(t, SeverityMild, r.Severity)
	assert.Equal(t, world.ZoneTown, r.Zone)
}

func TestRecorder_OverwritesPreviousRecord(t *testing.T) {
	store := NewStore(NewMemoryBlob())
	rec := &Recorder{Store: store}
	a := newAgent(1, "Sam", world.Desert)

	rec.Record(Day{Index: 3, TimeOfDay: 2600, Agents: []*agents.Agent{a}})
	store.Put(1, Record{Zone: world.ZoneDesert, Day: 3, Severity: SeveritySevere, Processed: true})
	rec.Record(Day{Index: 4, TimeOfDay: 2600, Agents: []*agents.Agent{a}})

	r, _ := store.Get(1)
	assert.Equal(t, 4, r.Day)
	assert.False(t, r.Processed)
}

func TestTracker_LastAwakeZone(t *testing.T) {
	tr := NewTracker()
	a := newAgent(1, "Sam", world.Mine)

	tr.Observe(2400, []*agents.Agent{a})
	a.Location = world.Beach
	tr.Observe(2600, []*agents.Agent{a}) // Past the cutoff, ignored.

	z, ok := tr.Last(1)
	require.True(t, ok)
	assert.Equal(t, world.ZoneMines, z)

	store := NewStore(NewMemoryBlob())
	rec := &Recorder{Store: store, Tracker: tr}
	rec.Record(Day{Index: 1, TimeOfDay: 2600, Agents: []*agents.Agent{a}})

	r, _ := store.Get(1)
	assert.Equal(t, world.ZoneMines, r.Zone)

	tr.Reset()
	_, ok = tr.Last(1)
	assert.False(t, ok)
}

func TestTracker_IgnoresAgentsInBed(t *testing.T) {
	tr := NewTracker()
	a := newAgent(1, "Sam", world.FarmHouse)
	a.InBed = true
	tr.Observe(2200, []*agents.Agent{a})

	_, ok := tr.Last(1)
	assert.False(t, ok)
}

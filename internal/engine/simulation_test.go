package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/i18n"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

func newTestSim(t *testing.T, n int) *Simulation {
	t.Helper()
	ag := agents.NewSpawner(1).SpawnPopulation(n, world.FarmHouse)
	sim := NewSimulation(world.DefaultMap(), ag, DefaultNPCs, 1)
	sim.Collapse = collapse.New(collapse.Options{
		Config:     config.Default(),
		Blob:       collapse.NewMemoryBlob(),
		Rand:       entropy.NewSeeded(1),
		Host:       sim,
		Translator: i18n.Default(),
	})
	require.NoError(t, sim.Loaded())
	return sim
}

// playDay runs the clock by hand so plans can be fixed after StartDay.
func playDay(sim *Simulation, day int, plans map[agents.AgentID]agents.Plan) int {
	for id, p := range plans {
		sim.Plans[id] = p
	}
	tod := DayStartTime
	for {
		sim.TickTime(day, tod)
		if tod >= DayEndTime || sim.ReadyToSleep() {
			break
		}
		tod = Advance(tod, MinutesPerStep)
	}
	sim.EndDay(day, tod)
	return tod
}

func TestSimulation_CollapseThenRescue(t *testing.T) {
	sim := newTestSim(t, 2)
	early, late := sim.Agents[0], sim.Agents[1]

	sim.StartDay(1)
	playDay(sim, 1, map[agents.AgentID]agents.Plan{
		early.ID: {Bedtime: 2200, Route: []world.Location{world.Town}},
		late.ID:  {Bedtime: 2700, Route: []world.Location{world.Mine}},
	})

	assert.True(t, early.InBed)
	assert.False(t, late.InBed)
	assert.Equal(t, 1, sim.Stats.Collapses)

	r, ok := sim.Collapse.Store.Get(late.ID)
	require.True(t, ok)
	assert.Equal(t, world.ZoneMines, r.Zone)
	assert.Equal(t, collapse.SeveritySevere, r.Severity)

	outs := sim.StartDay(2)
	require.Len(t, outs, 1)
	assert.Equal(t, late.ID, outs[0].AgentID)
	assert.Equal(t, 1, sim.Stats.Rescues)
	require.Len(t, sim.Inbox, 1)
	assert.Equal(t, late.ID, sim.Inbox[0].AgentID)
	assert.False(t, late.InBed, "everyone wakes up at home")
	assert.Equal(t, world.FarmHouse, late.Location)
}

func TestSimulation_QuorumClosesDayMild(t *testing.T) {
	sim := newTestSim(t, 2)
	sim.BedQuorum = 0.5
	early, late := sim.Agents[0], sim.Agents[1]

	sim.StartDay(1)
	closed := playDay(sim, 1, map[agents.AgentID]agents.Plan{
		early.ID: {Bedtime: 2200, Route: []world.Location{world.Farm}},
		late.ID:  {Bedtime: 2700, Route: []world.Location{world.IslandSouth}},
	})
	assert.Equal(t, 2200, closed)

	r, ok := sim.Collapse.Store.Get(late.ID)
	require.True(t, ok)
	assert.Equal(t, collapse.SeverityMild, r.Severity)
	assert.Equal(t, world.ZoneOtherOutdoors, r.Zone)
}

func TestSimulation_HostPrimitives(t *testing.T) {
	sim := newTestSim(t, 1)
	a := sim.Agents[0]

	assert.True(t, sim.CharacterExists("Harvey"))
	assert.False(t, sim.CharacterExists("Krobus"))

	sim.ApplyBuff(a, rescue.Buff{ID: "rescue/test", DurationMinutes: 30, Luck: 2}, "Test")
	require.Len(t, a.Buffs, 1)
	assert.Equal(t, map[string]int{"luck": 2}, a.Buffs[0].Effects)
	assert.Equal(t, "Test", a.Buffs[0].Source)

	sim.ChangeFriendship(a, "Shane", -10)
	assert.Equal(t, 0, a.Friendships["Shane"])

	sim.ShowMessage(a, "hello")
	assert.Equal(t, "hello", sim.Inbox[0].Text)
}

func TestSimulation_EngineRunResolvesEveryNight(t *testing.T) {
	sim := newTestSim(t, 12)
	e := NewEngine()
	sim.Attach(e)

	e.Run(4)
	assert.Equal(t, 4, e.Day)

	for id, r := range sim.Collapse.Store.Snapshot().CollapseByAgent {
		if r.Day < e.Day {
			assert.True(t, r.Processed, "agent %d day %d", id, r.Day)
		} else {
			assert.False(t, r.Processed)
		}
	}
}

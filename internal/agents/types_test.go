package agents

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/collapse-rescue/internal/world"
)

func TestRemovable_SkipsToolsAndLockedItems(t *testing.T) {
	a := &Agent{Items: []*Item{
		{Name: "Axe", Stack: 1, Tool: true},
		{Name: "Quest Scroll", Stack: 1},
		{Name: "Wood", Stack: 5, Trashable: true},
		nil,
		{Name: "Empty", Stack: 0, Trashable: true},
	}}

	got := a.Removable()
	require.Len(t, got, 1)
	assert.Equal(t, "Wood", got[0].Name)
}

func TestRemoveItem(t *testing.T) {
	wood := &Item{Name: "Wood", Stack: 1, Trashable: true}
	stone := &Item{Name: "Stone", Stack: 2, Trashable: true}
	a := &Agent{Items: []*Item{wood, stone}}

	a.RemoveItem(wood)

	assert.Equal(t, []*Item{stone}, a.Items)
	assert.Equal(t, 2, a.ItemCount())
}

func TestChangeFriendship_FloorsAtZero(t *testing.T) {
	a := &Agent{}
	a.ChangeFriendship("Shane", -10)
	assert.Equal(t, 0, a.Friendships["Shane"])

	a.ChangeFriendship("Marlon", 20)
	a.ChangeFriendship("Marlon", -5)
	assert.Equal(t, 15, a.Friendships["Marlon"])
}

func TestBuffs(t *testing.T) {
	a := &Agent{}
	a.AddBuff(ActiveBuff{ID: "x", MinutesLeft: 30})
	a.AddBuff(ActiveBuff{ID: "x", MinutesLeft: 60})
	a.AddBuff(ActiveBuff{ID: "y", MinutesLeft: 10})
	require.Len(t, a.Buffs, 2)

	a.DecayBuffs(10)
	require.Len(t, a.Buffs, 1)
	assert.Equal(t, "x", a.Buffs[0].ID)
	assert.Equal(t, 50, a.Buffs[0].MinutesLeft)
}

func TestSkillString(t *testing.T) {
	assert.Equal(t, "combat", SkillCombat.String())
	assert.Equal(t, "unknown", Skill(99).String())
}

func TestSpawner(t *testing.T) {
	s := NewSpawner(7)
	pop := s.SpawnPopulation(12, world.FarmHouse)
	require.Len(t, pop, 12)

	seen := map[AgentID]bool{}
	for _, a := range pop {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
		assert.GreaterOrEqual(t, a.Money, 500)
		assert.GreaterOrEqual(t, len(a.Items), len(starterTools))
		assert.Equal(t, world.FarmHouse, a.Location)
	}
	assert.Equal(t, "Ada", pop[0].Name)
	assert.Equal(t, "Bram 12", pop[11].Name)
}

func TestPlanDay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := world.DefaultMap()
	a := &Agent{ID: 3}

	for i := 0; i < 50; i++ {
		p := PlanDay(a, m, rng)
		assert.Equal(t, AgentID(3), p.AgentID)
		assert.GreaterOrEqual(t, p.Bedtime, 2000)
		assert.LessOrEqual(t, p.Bedtime, 2750)
		assert.NotEmpty(t, p.Route)

		first := p.LocationAt(600, 600)
		assert.Equal(t, p.Route[0], first)
		last := p.LocationAt(p.Bedtime+100, 600)
		assert.Equal(t, p.Route[len(p.Route)-1], last)
	}
}

func TestSkillText(t *testing.T) {
	var s Skill
	require.NoError(t, s.UnmarshalText([]byte("Foraging")))
	assert.Equal(t, SkillForaging, s)
	assert.Error(t, s.UnmarshalText([]byte("cooking")))

	b, err := SkillMining.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mining", string(b))
}

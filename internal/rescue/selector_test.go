package rescue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/world"
)

type npcSet map[string]bool

func (n npcSet) CharacterExists(name string) bool { return n[name] }

var everyone = npcSet{"Harvey": true, "Linus": true, "Marlon": true}

func profileIDs(ps []*Profile) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestEligible_Filters(t *testing.T) {
	reg := DefaultRegistry()
	single := &agents.Agent{}
	married := &agents.Agent{Partner: "Leah"}

	s := NewSelector(reg, entropy.NewSequence(0), everyone)
	assert.Equal(t, []string{IDHarveyClinic, IDLinus, IDAdventurersGuild, IDWakeWhereYouFell},
		profileIDs(s.Eligible(world.ZoneMines, single)))
	assert.Equal(t, []string{IDSpouseRescue, IDJunimos, IDWakeWhereYouFell},
		profileIDs(s.Eligible(world.ZoneFarm, married)))
	assert.Equal(t, []string{IDJunimos, IDWakeWhereYouFell},
		profileIDs(s.Eligible(world.ZoneFarm, single)))
	assert.Equal(t, []string{IDWakeWhereYouFell},
		profileIDs(s.Eligible(world.ZoneHome, single)))

	// Missing NPCs drop their profiles.
	s = NewSelector(reg, entropy.NewSequence(0), npcSet{})
	assert.Equal(t, []string{IDJojaSecurity, IDWakeWhereYouFell},
		profileIDs(s.Eligible(world.ZoneDesert, single)))
}

func TestChoose_GuildOverrideFires(t *testing.T) {
	seq := entropy.NewSequence(0.59)
	s := NewSelector(DefaultRegistry(), seq, everyone)

	p := s.Choose(world.ZoneMines, &agents.Agent{})
	assert.Equal(t, IDAdventurersGuild, p.ID)
	assert.Equal(t, 1, seq.Drawn())
}

func TestChoose_GuildOverrideMissesThenUniform(t *testing.T) {
	seq := entropy.NewSequence(0.6, 0.0)
	s := NewSelector(DefaultRegistry(), seq, everyone)

	p := s.Choose(world.ZoneMines, &agents.Agent{})
	assert.Equal(t, IDHarveyClinic, p.ID)
	assert.Equal(t, 2, seq.Drawn())
}

func TestChoose_ClinicOverrideInTown(t *testing.T) {
	seq := entropy.NewSequence(0.1)
	s := NewSelector(DefaultRegistry(), seq, everyone)

	assert.Equal(t, IDHarveyClinic, s.Choose(world.ZoneTown, &agents.Agent{}).ID)
}

func TestChoose_NoOverrideDrawWhenIneligible(t *testing.T) {
	seq := entropy.NewSequence(0.99)
	s := NewSelector(DefaultRegistry(), seq, npcSet{"Linus": true})

	p := s.Choose(world.ZoneTown, &agents.Agent{})
	assert.Equal(t, IDWakeWhereYouFell, p.ID)
	assert.Equal(t, 1, seq.Drawn())
}

func TestChoose_ClinicDoesNotFireInMines(t *testing.T) {
	// Guild is absent, so the mines override is skipped and the town override
	// never applies outside town.
	seq := entropy.NewSequence(0.0)
	s := NewSelector(DefaultRegistry(), seq, npcSet{"Harvey": true})

	p := s.Choose(world.ZoneMines, &agents.Agent{})
	assert.Equal(t, IDHarveyClinic, p.ID)
	assert.Equal(t, 1, seq.Drawn())
}

func TestChoose_FallbackWhenNothingEligible(t *testing.T) {
	s := NewSelector(DefaultRegistry(), entropy.NewSequence(0.5), everyone)

	p := s.Choose(world.Zone(0), &agents.Agent{})
	assert.Equal(t, IDWakeWhereYouFell, p.ID)
}

func TestChoose_AlwaysProducesAChoice(t *testing.T) {
	s := NewSelector(DefaultRegistry(), entropy.NewSeeded(3), npcSet{})
	for _, z := range world.Zones {
		for i := 0; i < 20; i++ {
			require.NotNil(t, s.Choose(z, &agents.Agent{}))
		}
	}
}

func TestChoose_GuildFrequency(t *testing.T) {
	const trials = 20000
	s := NewSelector(DefaultRegistry(), entropy.NewSeeded(99), everyone)
	a := &agents.Agent{}

	eligible := len(s.Eligible(world.ZoneMines, a))
	hits := 0
	for i := 0; i < trials; i++ {
		if s.Choose(world.ZoneMines, a).ID == IDAdventurersGuild {
			hits++
		}
	}

	// The override fires with p; otherwise the guild still wins the uniform draw
	// one time in len(eligible).
	p := DefaultGuildChance
	want := p + (1-p)/float64(eligible)
	got := float64(hits) / trials
	assert.InDelta(t, want, got, 0.02)
}

func TestChoose_UniformBranch(t *testing.T) {
	const trials = 20000
	s := NewSelector(DefaultRegistry(), entropy.NewSeeded(5), everyone)
	a := &agents.Agent{}

	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[s.Choose(world.ZoneOtherOutdoors, a).ID]++
	}

	// Harvey, Linus, Joja, Junimos, Wake.
	require.Len(t, counts, 5)
	for id, n := range counts {
		assert.InDelta(t, 0.2, float64(n)/trials, 0.02, id)
	}
}

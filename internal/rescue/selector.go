package rescue

import (
	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Reference override probabilities.
const (
	DefaultGuildChance  = 0.6 // Guild finds you in the mines
	DefaultClinicChance = 0.6 // Clinic finds you in town
)

// Selector picks a rescuer for one incident.
type Selector struct {
	Registry   *Registry
	Rand       entropy.Source
	Characters CharacterLookup

	GuildChance  float64
	ClinicChance float64
}

// NewSelector creates a selector with the reference override probabilities.
func NewSelector(reg *Registry, rng entropy.Source, chars CharacterLookup) *Selector {
	return &Selector{
		Registry:     reg,
		Rand:         rng,
		Characters:   chars,
		GuildChance:  DefaultGuildChance,
		ClinicChance: DefaultClinicChance,
	}
}

// Eligible returns the profiles that pass every filter, in catalog order.
func (s *Selector) Eligible(z world.Zone, a *agents.Agent) []*Profile {
	var out []*Profile
	for _, p := range s.Registry.All() {
		if p.IsEligible(z, a, s.Characters) {
			out = append(out, p)
		}
	}
	return out
}

// Choose picks the rescuer. The override rules are checked in order and at
// most one fires: guild in the mines, then clinic in town. Otherwise the pick
// is uniform over the eligible set. The catch-all is returned when nothing
// is eligible.
func (s *Selector) Choose(z world.Zone, a *agents.Agent) *Profile {
	eligible := s.Eligible(z, a)
	if len(eligible) == 0 {
		return s.Registry.Fallback()
	}

	switch z {
	case world.ZoneMines:
		if guild := firstOf(eligible, ArchetypeGuild); guild != nil && s.Rand.Float64() < s.GuildChance {
			return guild
		}
	case world.ZoneTown:
		if clinic := firstOf(eligible, ArchetypeMedical); clinic != nil && s.Rand.Float64() < s.ClinicChance {
			return clinic
		}
	}

	return eligible[s.Rand.Intn(len(eligible))]
}

func firstOf(ps []*Profile, kind Archetype) *Profile {
	for _, p := range ps {
		if p.Archetype == kind {
			return p
		}
	}
	return nil
}

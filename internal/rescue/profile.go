// Package rescue holds the catalog of rescuer archetypes and picks who found
// an agent after a collapse.
package rescue

import (
	"fmt"
	"slices"
	"strings"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Archetype is the role a profile plays in selection.
type Archetype uint8

const (
	ArchetypeFallback Archetype = iota // Woke up where you fell
	ArchetypeMedical
	ArchetypeVeteran
	ArchetypeSecurity
	ArchetypeGuild
	ArchetypePartner
	ArchetypeCommunal
)

var archetypeNames = map[Archetype]string{
	ArchetypeFallback: "fallback",
	ArchetypeMedical:  "medical",
	ArchetypeVeteran:  "veteran",
	ArchetypeSecurity: "security",
	ArchetypeGuild:    "guild",
	ArchetypePartner:  "partner",
	ArchetypeCommunal: "communal",
}

// String returns the archetype name.
func (a Archetype) String() string {
	if n, ok := archetypeNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Archetype(%d)", uint8(a))
}

// UnmarshalText decodes an archetype name.
func (a *Archetype) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for k, n := range archetypeNames {
		if n == name {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown archetype %q", string(b))
}

// Buff is a timed set of skill and attribute deltas.
type Buff struct {
	ID              string `yaml:"id"`
	DescriptionKey  string `yaml:"description_key"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Farming         int    `yaml:"farming"`
	Fishing         int    `yaml:"fishing"`
	Foraging        int    `yaml:"foraging"`
	Mining          int    `yaml:"mining"`
	Combat          int    `yaml:"combat"`
	Luck            int    `yaml:"luck"`
	Speed           int    `yaml:"speed"`
	Defense         int    `yaml:"defense"`
	MaxHealth       int    `yaml:"max_health"`
	Stamina         int    `yaml:"stamina"`
}

// Effects returns the non-zero deltas keyed by attribute name.
func (b Buff) Effects() map[string]int {
	all := []struct {
		name  string
		value int
	}{
		{"farming", b.Farming},
		{"fishing", b.Fishing},
		{"foraging", b.Foraging},
		{"mining", b.Mining},
		{"combat", b.Combat},
		{"luck", b.Luck},
		{"speed", b.Speed},
		{"defense", b.Defense},
		{"max_health", b.MaxHealth},
		{"stamina", b.Stamina},
	}
	out := make(map[string]int)
	for _, e := range all {
		if e.value != 0 {
			out[e.name] = e.value
		}
	}
	return out
}

// FriendshipEffect is a relationship delta toward one NPC.
type FriendshipEffect struct {
	NPC        string `yaml:"npc"`
	AmountSoft int    `yaml:"amount_soft"`
	AmountHard int    `yaml:"amount_hard"`
}

// Amount returns the delta for the given intensity.
func (f FriendshipEffect) Amount(i config.Intensity) int {
	if i == config.IntensityHard {
		return f.AmountHard
	}
	return f.AmountSoft
}

// Penalty is the per-intensity scalar set of a profile.
type Penalty struct {
	GoldMultiplier float64 `yaml:"gold_multiplier"`
	ExtraItemsLost int     `yaml:"extra_items_lost"`
	ExperienceLoss int     `yaml:"xp_loss"`
}

// Profile is one rescuer archetype. Profiles are built once and shared
// read-only across every resolution.
type Profile struct {
	ID          string       `yaml:"id"`
	DisplayName string       `yaml:"display_name"`
	FlavorKey   string       `yaml:"flavor_key"`
	Archetype   Archetype    `yaml:"archetype"`
	Zones       []world.Zone `yaml:"zones"`

	RequiresPartnerBond bool   `yaml:"requires_partner_bond"`
	LinkedNPC           string `yaml:"linked_npc"` // Must be alive in the world when set

	Soft Penalty `yaml:"soft"`
	Hard Penalty `yaml:"hard"`

	// Experience is taken from this skill regardless of zone when set.
	SkillOverride *agents.Skill `yaml:"skill_override"`

	Buff       *Buff             `yaml:"buff"`
	Friendship *FriendshipEffect `yaml:"friendship"`
}

// Penalty returns the scalar set for the given intensity.
func (p *Profile) Penalty(i config.Intensity) Penalty {
	if i == config.IntensityHard {
		return p.Hard
	}
	return p.Soft
}

// CoversZone reports whether the profile may be chosen in the zone.
func (p *Profile) CoversZone(z world.Zone) bool {
	return slices.Contains(p.Zones, z)
}

// CharacterLookup reports whether a named character currently exists.
type CharacterLookup interface {
	CharacterExists(name string) bool
}

// IsEligible applies the zone, partner-bond and linked-NPC filters.
func (p *Profile) IsEligible(z world.Zone, a *agents.Agent, chars CharacterLookup) bool {
	if !p.CoversZone(z) {
		return false
	}
	if p.RequiresPartnerBond && (a == nil || !a.HasPartner()) {
		return false
	}
	if strings.TrimSpace(p.LinkedNPC) != "" {
		if chars == nil || !chars.CharacterExists(p.LinkedNPC) {
			return false
		}
	}
	return true
}

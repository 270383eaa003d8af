package rescue

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Profile IDs of the reference catalog.
const (
	IDHarveyClinic     = "HarveyClinic"
	IDLinus            = "Linus"
	IDJojaSecurity     = "JojaSecurity"
	IDAdventurersGuild = "AdventurersGuild"
	IDSpouseRescue     = "SpouseRescue"
	IDJunimos          = "Junimos"
	IDWakeWhereYouFell = "WakeWhereYouFell"
)

// ErrUnknownProfile is returned when a profile ID is not in the registry.
var ErrUnknownProfile = errors.New("unknown rescue profile")

// Registry is a fixed, ordered list of profiles with exactly one catch-all.
type Registry struct {
	profiles []*Profile
	byID     map[string]*Profile
	fallback *Profile
}

// NewRegistry validates and indexes the given profiles.
func NewRegistry(profiles []*Profile) (*Registry, error) {
	r := &Registry{
		profiles: profiles,
		byID:     make(map[string]*Profile, len(profiles)),
	}

	for _, p := range profiles {
		if p == nil || p.ID == "" {
			return nil, errors.New("registry: profile without id")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate profile %q", p.ID)
		}
		if len(p.Zones) == 0 {
			return nil, fmt.Errorf("registry: profile %q has no zones", p.ID)
		}
		r.byID[p.ID] = p

		if p.Archetype != ArchetypeFallback {
			continue
		}
		if r.fallback != nil {
			return nil, fmt.Errorf("registry: second catch-all %q (already have %q)", p.ID, r.fallback.ID)
		}
		r.fallback = p
	}

	if r.fallback == nil {
		return nil, errors.New("registry: no catch-all profile")
	}
	for _, z := range world.Zones {
		if !r.fallback.CoversZone(z) {
			return nil, fmt.Errorf("registry: catch-all %q does not cover zone %s", r.fallback.ID, z)
		}
	}
	if r.fallback.RequiresPartnerBond || r.fallback.LinkedNPC != "" {
		return nil, fmt.Errorf("registry: catch-all %q must not be gated", r.fallback.ID)
	}

	return r, nil
}

// LoadRegistry reads a YAML catalog of the form `profiles: [...]`.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var doc struct {
		Profiles []*Profile `yaml:"profiles"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return NewRegistry(doc.Profiles)
}

// All returns the profiles in catalog order. Callers must not modify them.
func (r *Registry) All() []*Profile {
	return r.profiles
}

// Get returns the profile with the given ID.
func (r *Registry) Get(id string) (*Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	return p, nil
}

// Fallback returns the catch-all profile.
func (r *Registry) Fallback() *Profile {
	return r.fallback
}

// Len returns the number of profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// DefaultRegistry returns the reference catalog of seven rescuers.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultProfiles())
	if err != nil {
		panic(fmt.Sprintf("default rescue registry: %v", err))
	}
	return r
}

func zones(z ...world.Zone) []world.Zone { return z }

func defaultProfiles() []*Profile {
	foraging := agents.SkillForaging

	return []*Profile{
		{
			ID:          IDHarveyClinic,
			DisplayName: "Harvey & Clinic",
			FlavorKey:   "rescuer.harvey",
			Archetype:   ArchetypeMedical,
			Zones:       zones(world.ZoneTown, world.ZoneOtherOutdoors, world.ZoneMines, world.ZoneDesert),
			LinkedNPC:   "Harvey",
			Soft:        Penalty{GoldMultiplier: 1.2, ExperienceLoss: 5},
			Hard:        Penalty{GoldMultiplier: 1.5, ExperienceLoss: 10},
			Buff: &Buff{
				ID:              "rescue/harvey",
				DescriptionKey:  "buff.harvey",
				DurationMinutes: 240,
				MaxHealth:       10,
				Speed:           -1,
			},
			Friendship: &FriendshipEffect{NPC: "Harvey", AmountSoft: 15, AmountHard: 0},
		},
		{
			ID:            IDLinus,
			DisplayName:   "Linus",
			FlavorKey:     "rescuer.linus",
			Archetype:     ArchetypeVeteran,
			Zones:         zones(world.ZoneTown, world.ZoneOtherOutdoors, world.ZoneMines),
			LinkedNPC:     "Linus",
			Soft:          Penalty{GoldMultiplier: 0.2, ExperienceLoss: 0},
			Hard:          Penalty{GoldMultiplier: 0.4, ExperienceLoss: 5},
			SkillOverride: &foraging,
			Buff: &Buff{
				ID:              "rescue/linus",
				DescriptionKey:  "buff.linus",
				DurationMinutes: 360,
				Foraging:        1,
				Luck:            1,
			},
			Friendship: &FriendshipEffect{NPC: "Linus", AmountSoft: 40, AmountHard: 25},
		},
		{
			ID:          IDJojaSecurity,
			DisplayName: "Joja Security",
			FlavorKey:   "rescuer.joja",
			Archetype:   ArchetypeSecurity,
			Zones:       zones(world.ZoneTown, world.ZoneDesert, world.ZoneOtherOutdoors),
			Soft:        Penalty{GoldMultiplier: 0.9, ExperienceLoss: 8},
			Hard:        Penalty{GoldMultiplier: 1.1, ExtraItemsLost: 1, ExperienceLoss: 15},
			Friendship:  &FriendshipEffect{NPC: "Shane", AmountSoft: -5, AmountHard: -10},
		},
		{
			ID:          IDAdventurersGuild,
			DisplayName: "Adventurer's Guild",
			FlavorKey:   "rescuer.guild",
			Archetype:   ArchetypeGuild,
			Zones:       zones(world.ZoneMines, world.ZoneDesert),
			LinkedNPC:   "Marlon",
			Soft:        Penalty{GoldMultiplier: 0.8, ExtraItemsLost: 1, ExperienceLoss: 15},
			Hard:        Penalty{GoldMultiplier: 1.0, ExtraItemsLost: 2, ExperienceLoss: 25},
			Buff: &Buff{
				ID:              "rescue/guild",
				DescriptionKey:  "buff.guild",
				DurationMinutes: 300,
				Combat:          1,
				Defense:         1,
			},
			Friendship: &FriendshipEffect{NPC: "Marlon", AmountSoft: 20, AmountHard: 10},
		},
		{
			ID:                  IDSpouseRescue,
			DisplayName:         "Spouse",
			FlavorKey:           "rescuer.spouse",
			Archetype:           ArchetypePartner,
			Zones:               zones(world.ZoneFarm, world.ZoneHome),
			RequiresPartnerBond: true,
			Soft:                Penalty{GoldMultiplier: 0.0, ExperienceLoss: 0},
			Hard:                Penalty{GoldMultiplier: 0.1, ExperienceLoss: 5},
			Buff: &Buff{
				ID:              "rescue/spouse",
				DescriptionKey:  "buff.spouse",
				DurationMinutes: 360,
				Speed:           1,
				Luck:            1,
			},
		},
		{
			ID:          IDJunimos,
			DisplayName: "Junimos",
			FlavorKey:   "rescuer.junimos",
			Archetype:   ArchetypeCommunal,
			Zones:       zones(world.ZoneFarm, world.ZoneTown, world.ZoneOtherOutdoors),
			Soft:        Penalty{GoldMultiplier: 0.0, ExperienceLoss: 0},
			Hard:        Penalty{GoldMultiplier: 0.2, ExperienceLoss: 5},
			Buff: &Buff{
				ID:              "rescue/junimos",
				DescriptionKey:  "buff.junimos",
				DurationMinutes: 240,
				Luck:            2,
			},
		},
		{
			ID:          IDWakeWhereYouFell,
			DisplayName: "Where You Fell",
			FlavorKey:   "rescuer.wake",
			Archetype:   ArchetypeFallback,
			Zones:       append([]world.Zone(nil), world.Zones...),
			Soft:        Penalty{GoldMultiplier: 0.2, ExperienceLoss: 15},
			Hard:        Penalty{GoldMultiplier: 0.5, ExtraItemsLost: 1, ExperienceLoss: 30},
			Buff: &Buff{
				ID:              "rescue/wake",
				DescriptionKey:  "buff.wake",
				DurationMinutes: 180,
				Stamina:         -20,
			},
		},
	}
}

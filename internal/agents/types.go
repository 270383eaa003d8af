// Package agents provides the player agent data model exposed by the host:
// wallet, inventory, skill experience, bonds, buffs and position.
package agents

import (
	"fmt"
	"strings"

	"github.com/talgya/collapse-rescue/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Skill indexes the experience table.
type Skill uint8

const (
	SkillFarming Skill = iota
	SkillFishing
	SkillForaging
	SkillMining
	SkillCombat
	SkillLuck
)

// NumSkills is the total number of skills.
const NumSkills = 6

var skillNames = [NumSkills]string{"farming", "fishing", "foraging", "mining", "combat", "luck"}

// String returns the lowercase skill name.
func (s Skill) String() string {
	if int(s) < NumSkills {
		return skillNames[s]
	}
	return "unknown"
}

// MarshalText encodes the skill by name.
func (s Skill) MarshalText() ([]byte, error) {
	if int(s) >= NumSkills {
		return nil, fmt.Errorf("unknown skill %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a skill name.
func (s *Skill) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range skillNames {
		if n == name {
			*s = Skill(i)
			return nil
		}
	}
	return fmt.Errorf("unknown skill %q", string(b))
}

// Experience is a fixed-size table of experience points per skill.
type Experience [NumSkills]int

// Agent is a player-controlled actor.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	// Location
	Location world.Location `json:"location"`
	InBed    bool           `json:"in_bed"`

	// Economic
	Money      int        `json:"money"`
	Items      []*Item    `json:"items"`
	Experience Experience `json:"experience"`

	// Social
	Partner     string         `json:"partner,omitempty"` // Spouse or roommate name
	Friendships map[string]int `json:"friendships,omitempty"`

	Buffs []ActiveBuff `json:"buffs,omitempty"`
}

// Item is one inventory stack.
type Item struct {
	Name      string `json:"name"`
	Stack     int    `json:"stack"`
	Tool      bool   `json:"tool,omitempty"`
	Trashable bool   `json:"trashable"`
}

// ActiveBuff is a timed buff currently applied to an agent.
type ActiveBuff struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	MinutesLeft int            `json:"minutes_left"`
	Effects     map[string]int `json:"effects"`
}

// HasPartner reports whether the agent is married or has a roommate.
func (a *Agent) HasPartner() bool {
	return a.Partner != ""
}

// Removable returns inventory entries that may be lost: trashable, non-tool,
// non-empty stacks.
func (a *Agent) Removable() []*Item {
	var out []*Item
	for _, it := range a.Items {
		if it == nil || it.Tool || !it.Trashable || it.Stack <= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}

// RemoveItem drops an entry from the inventory.
func (a *Agent) RemoveItem(target *Item) {
	for i, it := range a.Items {
		if it == target {
			a.Items = append(a.Items[:i], a.Items[i+1:]...)
			return
		}
	}
}

// ItemCount returns the total number of units across all stacks.
func (a *Agent) ItemCount() int {
	n := 0
	for _, it := range a.Items {
		if it != nil {
			n += it.Stack
		}
	}
	return n
}

// ChangeFriendship adjusts friendship points toward an NPC, floored at zero.
func (a *Agent) ChangeFriendship(npc string, amount int) {
	if a.Friendships == nil {
		a.Friendships = make(map[string]int)
	}
	pts := a.Friendships[npc] + amount
	if pts < 0 {
		pts = 0
	}
	a.Friendships[npc] = pts
}

// AddBuff applies a buff, replacing any active buff with the same ID.
func (a *Agent) AddBuff(b ActiveBuff) {
	for i := range a.Buffs {
		if a.Buffs[i].ID == b.ID {
			a.Buffs[i] = b
			return
		}
	}
	a.Buffs = append(a.Buffs, b)
}

// DecayBuffs advances buff timers by the given minutes and drops expired ones.
func (a *Agent) DecayBuffs(minutes int) {
	kept := a.Buffs[:0]
	for _, b := range a.Buffs {
		b.MinutesLeft -= minutes
		if b.MinutesLeft > 0 {
			kept = append(kept, b)
		}
	}
	a.Buffs = kept
}

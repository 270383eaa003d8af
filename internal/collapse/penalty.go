package collapse

import (
	"math"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Severity multipliers, applied only to Severe collapses.
const (
	GoldSeverityFactor = 1.5
	XPSeverityFactor   = 1.3
)

// Skill experience is taken from, per zone. Zones missing here use farming.
var zoneSkill = map[world.Zone]agents.Skill{
	world.ZoneFarm:          agents.SkillFarming,
	world.ZoneMines:         agents.SkillCombat,
	world.ZoneDesert:        agents.SkillCombat,
	world.ZoneTown:          agents.SkillForaging,
	world.ZoneOtherOutdoors: agents.SkillForaging,
}

// SkillFor returns the skill an incident drains. A profile override wins.
func SkillFor(z world.Zone, p *rescue.Profile) agents.Skill {
	if p != nil && p.SkillOverride != nil {
		return *p.SkillOverride
	}
	if s, ok := zoneSkill[z]; ok {
		return s
	}
	return agents.SkillFarming
}

// GoldLoss is the currency taken from a balance, within [0, min(cap, balance)].
func GoldLoss(balance int, r Record, p *rescue.Profile, cfg config.Config) int {
	if !cfg.EnableGoldPenalties || balance <= 0 {
		return 0
	}

	factor := 1.0
	if r.Severity == SeveritySevere {
		factor = GoldSeverityFactor
	}
	mult := p.Penalty(cfg.Intensity).GoldMultiplier

	loss := int(math.RoundToEven(float64(balance) * cfg.Base(r.Zone).GoldPercent * factor * mult))
	return clamp(loss, 0, min(cfg.MaxGoldLoss, balance))
}

// ItemLossCount is how many inventory units an incident takes.
func ItemLossCount(r Record, p *rescue.Profile, cfg config.Config) int {
	if !cfg.EnableItemPenalties {
		return 0
	}
	n := cfg.Base(r.Zone).Items + p.Penalty(cfg.Intensity).ExtraItemsLost
	if r.Severity == SeveritySevere {
		n++
	}
	return max(0, n)
}

// PickItems chooses up to n distinct entries, one unit each, from the
// removable inventory. It stops early when the candidates run out.
func PickItems(removable []*agents.Item, n int, rng entropy.Source) []*agents.Item {
	pool := append([]*agents.Item(nil), removable...)
	var picked []*agents.Item
	for i := 0; i < n && len(pool) > 0; i++ {
		idx := rng.Intn(len(pool))
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}

// XPLoss is the experience taken from the zone-mapped skill, never more than
// the agent has in it.
func XPLoss(exp agents.Experience, r Record, p *rescue.Profile, cfg config.Config) (agents.Skill, int) {
	skill := SkillFor(r.Zone, p)
	if !cfg.EnableXPPenalties {
		return skill, 0
	}

	factor := 1.0
	if r.Severity == SeveritySevere {
		factor = XPSeverityFactor
	}
	total := int(math.RoundToEven(float64(cfg.Base(r.Zone).XP+p.Penalty(cfg.Intensity).ExperienceLoss) * factor))
	if total <= 0 {
		return skill, 0
	}
	return skill, clamp(total, 0, max(0, exp[skill]))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}

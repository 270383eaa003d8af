package collapse

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

// Host is the set of mutation primitives the host world exposes.
type Host interface {
	rescue.CharacterLookup
	ApplyBuff(a *agents.Agent, b rescue.Buff, displaySource string)
	ChangeFriendship(a *agents.Agent, npc string, amount int)
	ShowMessage(a *agents.Agent, text string)
}

// Outcome is the resolved result of one incident.
type Outcome struct {
	ID        string         `json:"id"`
	AgentID   agents.AgentID `json:"agent_id"`
	Day       int            `json:"day"`          // Day the collapse was captured
	Resolved  int            `json:"resolved_day"` // Day the resolution ran
	Zone      world.Zone     `json:"zone"`
	Severity  Severity       `json:"severity"`
	ProfileID string         `json:"profile_id"`
	GoldLost  int            `json:"gold_lost"`
	ItemsLost int            `json:"items_lost"`
	XPLost    int            `json:"xp_lost"`
	Skill     agents.Skill   `json:"skill"`
	Buff      string         `json:"buff,omitempty"`
	Friend    string         `json:"friend,omitempty"`
	FriendBy  int            `json:"friend_by,omitempty"`
	Message   string         `json:"message"`
}

// plan is every change an incident will make, computed before any is applied.
type plan struct {
	profile  *rescue.Profile
	gold     int
	items    []*agents.Item
	skill    agents.Skill
	xp       int
	buff     *rescue.Buff
	friend   string
	friendBy int
	message  string
}

// Applier turns a due record into applied penalties and rewards.
type Applier struct {
	Config   config.Config
	Selector *rescue.Selector
	Rand     entropy.Source
	Host     Host
	Messages MessageBuilder
}

func (ap *Applier) plan(a *agents.Agent, r Record) plan {
	cfg := ap.Config
	p := ap.Selector.Choose(r.Zone, a)

	pl := plan{profile: p}
	pl.gold = GoldLoss(a.Money, r, p, cfg)
	pl.items = PickItems(a.Removable(), ItemLossCount(r, p, cfg), ap.Rand)
	pl.skill, pl.xp = XPLoss(a.Experience, r, p, cfg)

	if cfg.EnableBuffs && p.Buff != nil {
		pl.buff = p.Buff
	}
	if cfg.EnableFriendshipEffects && p.Friendship != nil && p.Friendship.NPC != "" {
		if amt := p.Friendship.Amount(cfg.Intensity); amt != 0 {
			pl.friend, pl.friendBy = p.Friendship.NPC, amt
		}
	}
	pl.message = ap.Messages.Build(p, pl.gold, len(pl.items), pl.xp, r.Severity)
	return pl
}

// Apply resolves one record against its agent. Every amount and the message
// are computed first. Host calls run before the agent's own ledger changes,
// so a host fault leaves money, items and experience untouched.
// The caller marks the record processed after Apply returns.
func (ap *Applier) Apply(a *agents.Agent, r Record, today int) Outcome {
	pl := ap.plan(a, r)

	out := Outcome{
		ID:        uuid.NewString(),
		AgentID:   a.ID,
		Day:       r.Day,
		Resolved:  today,
		Zone:      r.Zone,
		Severity:  r.Severity,
		ProfileID: pl.profile.ID,
		GoldLost:  pl.gold,
		ItemsLost: len(pl.items),
		XPLost:    pl.xp,
		Skill:     pl.skill,
		Message:   pl.message,
	}

	ap.Host.ShowMessage(a, out.Message)
	if pl.buff != nil {
		ap.Host.ApplyBuff(a, *pl.buff, ap.Messages.Translator.Text(pl.buff.DescriptionKey))
		out.Buff = pl.buff.ID
	}
	if pl.friend != "" {
		ap.Host.ChangeFriendship(a, pl.friend, pl.friendBy)
		out.Friend, out.FriendBy = pl.friend, pl.friendBy
	}

	a.Money = max(0, a.Money-pl.gold)
	for _, it := range pl.items {
		it.Stack--
		if it.Stack <= 0 {
			a.RemoveItem(it)
		}
	}
	a.Experience[pl.skill] -= pl.xp
	return out
}

// ledger is the part of an agent an incident may change.
type ledger struct {
	money       int
	items       []*agents.Item
	stacks      []int
	experience  agents.Experience
	buffs       []agents.ActiveBuff
	friendships map[string]int
}

func snapshot(a *agents.Agent) ledger {
	l := ledger{
		money:       a.Money,
		items:       slices.Clone(a.Items),
		stacks:      make([]int, len(a.Items)),
		experience:  a.Experience,
		buffs:       slices.Clone(a.Buffs),
		friendships: maps.Clone(a.Friendships),
	}
	for i, it := range a.Items {
		if it != nil {
			l.stacks[i] = it.Stack
		}
	}
	return l
}

func (l ledger) restore(a *agents.Agent) {
	a.Money = l.money
	a.Items = l.items
	for i, it := range l.items {
		if it != nil {
			it.Stack = l.stacks[i]
		}
	}
	a.Experience = l.experience
	a.Buffs = l.buffs
	a.Friendships = l.friendships
}

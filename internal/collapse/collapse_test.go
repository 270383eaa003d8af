package collapse

import (
	"fmt"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

// fakeHost records every host mutation.
type fakeHost struct {
	npcs     map[string]bool
	buffs    map[agents.AgentID][]string
	friends  map[agents.AgentID]map[string]int
	messages map[agents.AgentID][]string
	panicFor string // ShowMessage panics for this agent
	grudge   string // ChangeFriendship panics for this agent
}

func newFakeHost(npcs ...string) *fakeHost {
	h := &fakeHost{
		npcs:     make(map[string]bool),
		buffs:    make(map[agents.AgentID][]string),
		friends:  make(map[agents.AgentID]map[string]int),
		messages: make(map[agents.AgentID][]string),
	}
	for _, n := range npcs {
		h.npcs[n] = true
	}
	return h
}

func (h *fakeHost) CharacterExists(name string) bool { return h.npcs[name] }

func (h *fakeHost) ApplyBuff(a *agents.Agent, b rescue.Buff, displaySource string) {
	h.buffs[a.ID] = append(h.buffs[a.ID], b.ID)
	a.AddBuff(agents.ActiveBuff{ID: b.ID, Source: displaySource, MinutesLeft: b.DurationMinutes})
}

func (h *fakeHost) ChangeFriendship(a *agents.Agent, npc string, amount int) {
	a.ChangeFriendship(npc, amount)
	if a.Name == h.grudge {
		panic(fmt.Sprintf("friendship with %s for %s", npc, a.Name))
	}
	if h.friends[a.ID] == nil {
		h.friends[a.ID] = make(map[string]int)
	}
	h.friends[a.ID][npc] += amount
}

func (h *fakeHost) ShowMessage(a *agents.Agent, text string) {
	if a.Name == h.panicFor {
		panic(fmt.Sprintf("message box for %s", a.Name))
	}
	h.messages[a.ID] = append(h.messages[a.ID], text)
}

// failingBlob fails every call.
type failingBlob struct{}

func (failingBlob) ReadSaveData(string) ([]byte, error) { return nil, fmt.Errorf("disk gone") }
func (failingBlob) WriteSaveData(string, []byte) error  { return fmt.Errorf("disk gone") }

func newAgent(id agents.AgentID, name string, loc world.Location) *agents.Agent {
	a := &agents.Agent{
		ID:       id,
		Name:     name,
		Location: loc,
		Money:    1000,
		Items: []*agents.Item{
			{Name: "Pickaxe", Stack: 1, Tool: true},
			{Name: "Copper Ore", Stack: 5, Trashable: true},
			{Name: "Quartz", Stack: 1, Trashable: true},
			{Name: "Geode", Stack: 2, Trashable: true},
			{Name: "Prismatic Shard", Stack: 1, Trashable: false},
		},
	}
	for s := range a.Experience {
		a.Experience[s] = 500
	}
	return a
}

func guildProfile() *rescue.Profile {
	p, err := rescue.DefaultRegistry().Get(rescue.IDAdventurersGuild)
	if err != nil {
		panic(err)
	}
	return p
}

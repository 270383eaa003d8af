// Agent spawning: creates the starting roster with wallets, a starter
// inventory, some experience and an occasional partner.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/collapse-rescue/internal/world"
)

// Spawner creates agents for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

var firstNames = []string{
	"Ada", "Bram", "Cleo", "Dario", "Esme", "Finn", "Gwen", "Hugo", "Iris", "Jory",
}

var partners = []string{
	"Abigail", "Alex", "Elliott", "Emily", "Haley", "Leah", "Maru", "Penny", "Sam", "Sebastian",
}

var starterItems = []Item{
	{Name: "Parsnip", Trashable: true},
	{Name: "Copper Ore", Trashable: true},
	{Name: "Wood", Trashable: true},
	{Name: "Stone", Trashable: true},
	{Name: "Salmonberry", Trashable: true},
	{Name: "Geode", Trashable: true},
}

var starterTools = []string{"Axe", "Hoe", "Pickaxe", "Watering Can", "Scythe"}

// SpawnPopulation creates a batch of agents standing in the given location.
func (s *Spawner) SpawnPopulation(count int, loc world.Location) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.spawnOne(loc))
	}
	return out
}

func (s *Spawner) spawnOne(loc world.Location) *Agent {
	id := s.nextID
	s.nextID++

	name := firstNames[int(id-1)%len(firstNames)]
	if int(id) > len(firstNames) {
		name = fmt.Sprintf("%s %d", name, id)
	}

	a := &Agent{
		ID:          id,
		Name:        name,
		Location:    loc,
		Money:       500 + s.rng.Intn(4500),
		Friendships: make(map[string]int),
	}

	for _, tool := range starterTools {
		a.Items = append(a.Items, &Item{Name: tool, Stack: 1, Tool: true})
	}
	for _, it := range starterItems {
		if s.rng.Float32() < 0.7 {
			item := it
			item.Stack = 1 + s.rng.Intn(20)
			a.Items = append(a.Items, &item)
		}
	}

	for sk := range a.Experience {
		a.Experience[sk] = s.rng.Intn(1500)
	}

	// Roughly a third of farmers start out married.
	if s.rng.Float32() < 0.33 {
		a.Partner = partners[s.rng.Intn(len(partners))]
	}

	return a
}

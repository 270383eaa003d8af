// Agent daily behavior: where an agent wanders and when it turns in.
// Every sim-day an agent draws a bedtime; agents whose bedtime falls past the
// end of the day never make it to bed and collapse wherever they stand.
package agents

import (
	"math/rand"

	"github.com/talgya/collapse-rescue/internal/world"
)

// Plan is what an agent intends to do with one sim-day.
type Plan struct {
	AgentID AgentID
	Bedtime int              // Time of day (e.g. 2230) the agent goes to bed
	Route   []world.Location // Locations visited in order through the day
}

// PlanDay draws a route and bedtime for the agent. Bedtimes range from 2000
// to 2750 in 10-minute steps; a bedtime at or past the close of the day means
// the agent is still up when it closes.
func PlanDay(a *Agent, m *world.Map, rng *rand.Rand) Plan {
	names := m.Names()
	stops := 1 + rng.Intn(4)

	route := make([]world.Location, 0, stops)
	for i := 0; i < stops; i++ {
		l, _ := m.Get(names[rng.Intn(len(names))])
		route = append(route, l)
	}

	hour := 20 + rng.Intn(8)
	minute := rng.Intn(6) * 10
	return Plan{
		AgentID: a.ID,
		Bedtime: hour*100 + minute,
		Route:   route,
	}
}

// LocationAt returns where the plan puts the agent at the given time of day,
// spreading route stops evenly between startTime and bedtime.
func (p Plan) LocationAt(timeOfDay, startTime int) world.Location {
	if len(p.Route) == 0 {
		return world.FarmHouse
	}
	span := p.Bedtime - startTime
	if span <= 0 {
		return p.Route[len(p.Route)-1]
	}
	idx := (timeOfDay - startTime) * len(p.Route) / span
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Route) {
		idx = len(p.Route) - 1
	}
	return p.Route[idx]
}

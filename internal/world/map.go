package world

import "sort"

// Map holds the set of locations an agent can stand in, keyed by name.
type Map struct {
	Locations map[string]Location `json:"locations"`
}

// NewMap creates a map holding the given locations.
func NewMap(locs ...Location) *Map {
	m := &Map{
		Locations: make(map[string]Location, len(locs)),
	}
	for _, l := range locs {
		m.Set(l)
	}
	return m
}

// DefaultMap returns the reference valley.
func DefaultMap() *Map {
	return NewMap(
		Farm, FarmHouse, IslandHouse, Town, Forest, Mountain, Beach, Railroad,
		Backwoods, BusStop, Desert, Mine, SkullCave, Volcano, Caldera,
		IslandSouth, Saloon, Hospital, WitchSwamp, AdventureGld,
	)
}

// Get returns the location with the given name.
func (m *Map) Get(name string) (Location, bool) {
	l, ok := m.Locations[name]
	return l, ok
}

// Set adds or replaces a location.
func (m *Map) Set(l Location) {
	m.Locations[l.Name] = l
}

// Names returns all location names in sorted order.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.Locations))
	for n := range m.Locations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LocationCount returns the number of locations in the map.
func (m *Map) LocationCount() int {
	return len(m.Locations)
}

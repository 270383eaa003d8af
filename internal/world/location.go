// Package world provides location handles and the zone classification used to
// describe where an agent collapsed.
package world

// LocationKind is the structural type of a location as reported by the host.
// Most locations are KindGeneric and are told apart by name.
type LocationKind uint8

const (
	KindGeneric LocationKind = iota
	KindFarm
	KindFarmHouse
	KindIslandFarmHouse
	KindMineShaft
	KindVolcanoDungeon
)

// Location is an opaque handle for a place in the world.
type Location struct {
	Name     string       `json:"name" yaml:"name"`
	Kind     LocationKind `json:"kind" yaml:"kind"`
	Outdoors bool         `json:"outdoors" yaml:"outdoors"`
}

// Well-known locations of the reference valley.
var (
	Farm         = Location{Name: "Farm", Kind: KindFarm, Outdoors: true}
	FarmHouse    = Location{Name: "FarmHouse", Kind: KindFarmHouse}
	IslandHouse  = Location{Name: "IslandFarmHouse", Kind: KindIslandFarmHouse}
	Town         = Location{Name: "Town", Outdoors: true}
	Forest       = Location{Name: "Forest", Outdoors: true}
	Mountain     = Location{Name: "Mountain", Outdoors: true}
	Beach        = Location{Name: "Beach", Outdoors: true}
	Railroad     = Location{Name: "Railroad", Outdoors: true}
	Backwoods    = Location{Name: "Backwoods", Outdoors: true}
	BusStop      = Location{Name: "BusStop", Outdoors: true}
	Desert       = Location{Name: "Desert", Outdoors: true}
	Mine         = Location{Name: "UndergroundMine", Kind: KindMineShaft}
	SkullCave    = Location{Name: "SkullCave"}
	Volcano      = Location{Name: "VolcanoDungeon0", Kind: KindVolcanoDungeon}
	Caldera      = Location{Name: "Caldera"}
	IslandSouth  = Location{Name: "IslandSouth", Outdoors: true}
	Saloon       = Location{Name: "Saloon"}
	Hospital     = Location{Name: "Hospital"}
	WitchSwamp   = Location{Name: "WitchSwamp", Outdoors: true}
	AdventureGld = Location{Name: "AdventureGuild"}
)

package world

import (
	"fmt"
	"strings"
)

// Zone is the coarse category of where an incident happened.
type Zone uint8

const (
	ZoneFarm Zone = iota + 1
	ZoneHome
	ZoneTown
	ZoneMines
	ZoneDesert
	ZoneOtherOutdoors
)

// Zones lists every zone in declaration order.
var Zones = []Zone{ZoneFarm, ZoneHome, ZoneTown, ZoneMines, ZoneDesert, ZoneOtherOutdoors}

var zoneNames = map[Zone]string{
	ZoneFarm:          "Farm",
	ZoneHome:          "Home",
	ZoneTown:          "Town",
	ZoneMines:         "Mines",
	ZoneDesert:        "Desert",
	ZoneOtherOutdoors: "OtherOutdoors",
}

// String returns the zone name.
func (z Zone) String() string {
	if n, ok := zoneNames[z]; ok {
		return n
	}
	return fmt.Sprintf("Zone(%d)", uint8(z))
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	if _, ok := zoneNames[z]; !ok {
		return nil, fmt.Errorf("unknown zone %d", uint8(z))
	}
	return []byte(z.String()), nil
}

// UnmarshalText decodes a zone name, case-insensitively.
func (z *Zone) UnmarshalText(b []byte) error {
	parsed, err := ParseZone(string(b))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// ParseZone returns the zone with the given name.
func ParseZone(s string) (Zone, error) {
	for z, n := range zoneNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return z, nil
		}
	}
	return 0, fmt.Errorf("unknown zone %q", s)
}

// Named locations that count as town-like outdoors.
var townOutdoors = map[string]bool{
	"Town":      true,
	"Forest":    true,
	"Mountain":  true,
	"Beach":     true,
	"Railroad":  true,
	"Backwoods": true,
	"BusStop":   true,
}

// Classify maps a location onto its zone. Unrecognized outdoor locations are
// OtherOutdoors and unrecognized indoor ones are Town.
func Classify(l Location) Zone {
	switch l.Kind {
	case KindFarmHouse, KindIslandFarmHouse:
		return ZoneHome
	case KindFarm:
		return ZoneFarm
	case KindMineShaft, KindVolcanoDungeon:
		return ZoneMines
	}

	switch {
	case strings.EqualFold(l.Name, "SkullCave"):
		return ZoneMines
	case l.Name == "Caldera":
		return ZoneMines
	case l.Name == "Desert":
		return ZoneDesert
	case l.Outdoors && townOutdoors[l.Name]:
		return ZoneTown
	case l.Outdoors:
		return ZoneOtherOutdoors
	}
	return ZoneTown
}

package engine

// Game configuration limits for the ancient Middle East map.
const (
	MinPlayers           = 2
	MaxPlayers           = 7
	VictorySupplyCenters = 12
	TotalSupplyCenters   = 16
)

// RegionType classifies a region as land, coast, or sea.
type RegionType string

const (
	Land  RegionType = "land"
	Coast RegionType = "coast"
	Sea   RegionType = "sea"
)

// Terrain is the thematic terrain of a region. It has no effect on
// adjudication; renderers use it for theming.
type Terrain string

const (
	Desert    Terrain = "desert"
	Mountains Terrain = "mountains"
	Fertile   Terrain = "fertile"
	Water     Terrain = "water"
	City      Terrain = "city"
)

// Region represents a single region on the map.
type Region struct {
	ID             string
	Name           string
	Type           RegionType
	Terrain        Terrain
	IsSupplyCenter bool
	Civilization   string // founding civilization ID ("" if none)
	X, Y           int    // display coordinates, unused by the engine
	Adjacent       []string
}

// Civilization is a playable faction with fixed starting regions.
type Civilization struct {
	ID              string
	Name            string
	FullName        string
	Description     string
	Color           string
	StartingRegions []string
	Capital         string
}

// WorldMap holds the full region and civilization data for a map.
type WorldMap struct {
	Regions       map[string]*Region
	Civilizations map[string]*Civilization
	regionIDs     []string // declaration order, for deterministic iteration
	civIDs        []string
}

// Region returns the region with the given ID, or nil if unknown.
func (m *WorldMap) Region(id string) *Region {
	return m.Regions[id]
}

// Civilization returns the civilization with the given ID, or nil if unknown.
func (m *WorldMap) Civilization(id string) *Civilization {
	return m.Civilizations[id]
}

// RegionIDs returns all region IDs in declaration order.
func (m *WorldMap) RegionIDs() []string {
	return m.regionIDs
}

// CivilizationIDs returns all civilization IDs in declaration order.
func (m *WorldMap) CivilizationIDs() []string {
	return m.civIDs
}

// Adjacent returns true if dst appears in src's adjacency list.
// Adjacency is directional as declared; the map data is not guaranteed
// to be symmetric everywhere.
func (m *WorldMap) Adjacent(src, dst string) bool {
	r := m.Regions[src]
	if r == nil {
		return false
	}
	for _, a := range r.Adjacent {
		if a == dst {
			return true
		}
	}
	return false
}

// UnitTypeFor returns the unit type seeded in a region of the given type.
// Sea and coastal regions get fleets, inland regions get armies.
func UnitTypeFor(rt RegionType) UnitType {
	if rt == Sea || rt == Coast {
		return Fleet
	}
	return Army
}

// TerrainAllows returns true if the given unit type may occupy a region
// of the given type. Armies are barred from sea, fleets from inland.
func TerrainAllows(ut UnitType, rt RegionType) bool {
	if ut == Army {
		return rt == Land || rt == Coast
	}
	return rt == Sea || rt == Coast
}

package engine

import "sync"

var (
	ancientMapOnce sync.Once
	ancientMapInst *WorldMap
)

// AncientMap returns the 25-region ancient Middle East map with its seven
// civilizations. The map is built once and cached; subsequent calls return
// the same pointer. Callers must not mutate the returned map.
func AncientMap() *WorldMap {
	ancientMapOnce.Do(func() {
		ancientMapInst = buildAncientMap()
	})
	return ancientMapInst
}

func buildAncientMap() *WorldMap {
	m := &WorldMap{
		Regions:       make(map[string]*Region, 25),
		Civilizations: make(map[string]*Civilization, 7),
	}

	region := func(id, name string, rt RegionType, tr Terrain, sc bool, civ string, x, y int, adjacent ...string) {
		m.Regions[id] = &Region{
			ID:             id,
			Name:           name,
			Type:           rt,
			Terrain:        tr,
			IsSupplyCenter: sc,
			Civilization:   civ,
			X:              x,
			Y:              y,
			Adjacent:       adjacent,
		}
		m.regionIDs = append(m.regionIDs, id)
	}

	civ := func(id, name, fullName, description, color, capital string, starting ...string) {
		m.Civilizations[id] = &Civilization{
			ID:              id,
			Name:            name,
			FullName:        fullName,
			Description:     description,
			Color:           color,
			StartingRegions: starting,
			Capital:         capital,
		}
		m.civIDs = append(m.civIDs, id)
	}

	// --- Mesopotamia ---
	region("babylon", "Babylon", Land, Fertile, true, "babylon", 400, 300, "mesopotamia", "bagdad", "susa")
	region("mesopotamia", "Mesopotamia", Land, Fertile, false, "", 380, 280, "babylon", "nineveh", "assur")
	region("bagdad", "Bagdad", Land, Fertile, true, "", 420, 320, "babylon", "susa", "persian_gulf")

	// --- Assyria ---
	region("nineveh", "Nineveh", Land, City, true, "assyria", 380, 240, "mesopotamia", "assur", "arbela")
	region("assur", "Assur", Land, City, false, "", 390, 260, "nineveh", "mesopotamia", "arbela")
	region("arbela", "Arbela", Land, Fertile, true, "", 410, 250, "nineveh", "assur", "ecbatana")

	// --- Egypt ---
	region("memphis", "Memphis", Land, City, true, "egypt", 200, 400, "alexandria", "thebes", "sinai")
	region("thebes", "Thebes", Land, City, true, "", 220, 450, "memphis", "red_sea")
	region("alexandria", "Alexandria", Coast, City, true, "", 180, 380, "memphis", "mediterranean", "cyrenaica")

	// --- Persia ---
	region("persepolis", "Persepolis", Land, City, true, "persia", 500, 350, "susa", "ecbatana", "persian_gulf")
	region("ecbatana", "Ecbatana", Land, Mountains, true, "", 480, 300, "persepolis", "arbela", "susa")
	region("susa", "Susa", Land, City, true, "", 460, 320, "babylon", "bagdad", "persepolis", "ecbatana")

	// --- Phoenicia ---
	region("tyre", "Tyre", Coast, City, true, "phoenicia", 280, 280, "sidon", "mediterranean", "damascus")
	region("sidon", "Sidon", Coast, City, false, "", 270, 270, "tyre", "byblos", "mediterranean")
	region("byblos", "Byblos", Coast, City, true, "", 260, 260, "sidon", "mediterranean", "damascus")

	// --- Anatolia ---
	region("hattusa", "Hattusa", Land, Mountains, true, "hittites", 320, 180, "kanesh", "carchemish", "black_sea")
	region("kanesh", "Kanesh", Land, City, false, "", 340, 200, "hattusa", "carchemish")
	region("carchemish", "Carchemish", Land, City, true, "", 350, 220, "hattusa", "kanesh", "damascus")

	// --- Seas ---
	region("mediterranean", "Mediterranean Sea", Sea, Water, false, "", 200, 200, "alexandria", "tyre", "sidon", "byblos", "cyrenaica")
	region("persian_gulf", "Persian Gulf", Sea, Water, false, "", 480, 380, "bagdad", "persepolis")
	region("red_sea", "Red Sea", Sea, Water, false, "", 240, 480, "thebes")
	region("black_sea", "Black Sea", Sea, Water, false, "", 340, 120, "hattusa")

	// --- Crossroads ---
	region("damascus", "Damascus", Land, City, true, "", 300, 300, "tyre", "byblos", "carchemish")
	region("sinai", "Sinai", Land, Desert, false, "", 240, 380, "memphis", "damascus")
	region("cyrenaica", "Cyrenaica", Coast, Fertile, true, "", 160, 360, "alexandria", "mediterranean")

	civ("babylon", "Babylon", "Babylonian Empire",
		"Masters of law and astronomy, rulers of Mesopotamia",
		"#FFD700", "babylon", "babylon", "mesopotamia", "bagdad")
	civ("assyria", "Assyria", "Assyrian Empire",
		"Fierce warriors and master tacticians of the north",
		"#6B7280", "nineveh", "nineveh", "assur", "arbela")
	civ("egypt", "Egypt", "Kingdom of Egypt",
		"Children of the Nile, builders of eternal monuments",
		"#1E40AF", "memphis", "memphis", "thebes", "alexandria")
	civ("persia", "Persia", "Persian Empire",
		"The great empire that connected East and West",
		"#7C3AED", "persepolis", "persepolis", "ecbatana", "susa")
	civ("phoenicia", "Phoenicia", "Phoenician City-States",
		"Master traders and navigators of the Mediterranean",
		"#059669", "tyre", "tyre", "sidon", "byblos")
	civ("hittites", "Hittites", "Hittite Empire",
		"Iron Age pioneers and masters of Anatolia",
		"#92400E", "hattusa", "hattusa", "kanesh", "carchemish")
	// Elam's anshan and dur_untash are not on the map; seeding
	// skips them, leaving Elam a single starting unit at susa.
	civ("elam", "Elam", "Kingdom of Elam",
		"Ancient rivals of Mesopotamia from the eastern mountains",
		"#10B981", "susa", "susa", "anshan", "dur_untash")

	return m
}

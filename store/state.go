package store

import (
	"cmp"
	"maps"
	"slices"
)

// WeatherType enumerates weather conditions.
type WeatherType uint8

const (
	WeatherClear WeatherType = iota
	WeatherRain
	WeatherFog
	WeatherSnow

	numWeatherTypes
)

// NumWeatherTypes is the number of weather conditions.
const NumWeatherTypes = int(numWeatherTypes)

// String returns the weather name.
func (w WeatherType) String() string {
	switch w {
	case WeatherClear:
		return "clear"
	case WeatherRain:
		return "rain"
	case WeatherFog:
		return "fog"
	case WeatherSnow:
		return "snow"
	default:
		return "unknown"
	}
}

// Weather is the current weather condition.
type Weather struct {
	Type         WeatherType
	Intensity    float64 // 0..1
	NextChangeAt float64 // clock time of the next change
}

// Clock tracks simulated time.
type Clock struct {
	Elapsed   float64 // sim-seconds since init
	TimeOfDay float64 // 0..1, 0 = midnight, 0.5 = noon
}

// SimConfig is the recognized initial-population configuration.
type SimConfig struct {
	InitialRabbits int
	InitialFoxes   int
	InitialMoose   int
	InitialFlowers int
}

// State is an immutable snapshot of the world. Reducers never modify a State
// in place: they copy the struct and clone only the collections they touch.
// Callers must treat every map reachable from a State as read-only.
type State struct {
	Entities map[EntityID]Entity
	Flowers  map[FlowerID]Flower

	Config   SimConfig
	Weather  Weather
	Clock    Clock
	Speed    float64
	Paused   bool
	GameOver bool

	Population [numSpecies]int // live count per species

	NextEntityID EntityID
	NextFlowerID FlowerID
}

// NewState returns an empty world.
func NewState() *State {
	return &State{
		Entities:     map[EntityID]Entity{},
		Flowers:      map[FlowerID]Flower{},
		Speed:        1,
		NextEntityID: 1,
		NextFlowerID: 1,
	}
}

// Entity looks up an entity by ID. Absence is normal: the entity may have
// been removed by an earlier dispatch.
func (s *State) Entity(id EntityID) (Entity, bool) {
	e, ok := s.Entities[id]
	return e, ok
}

// Flower looks up a flower by ID.
func (s *State) Flower(id FlowerID) (Flower, bool) {
	f, ok := s.Flowers[id]
	return f, ok
}

// Count returns the live population of a species.
func (s *State) Count(sp Species) int {
	if int(sp) >= len(s.Population) {
		return 0
	}
	return s.Population[sp]
}

// EntitiesOf returns the entities of a species ordered by ID.
func (s *State) EntitiesOf(sp Species) []Entity {
	out := make([]Entity, 0, s.Count(sp))
	for _, e := range s.Entities {
		if e.Species == sp {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Entity) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// FlowerList returns all flowers ordered by ID.
func (s *State) FlowerList() []Flower {
	out := slices.Collect(maps.Values(s.Flowers))
	slices.SortFunc(out, func(a, b Flower) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// draft is a copy-on-write view of a State being reduced.
type draft struct {
	s              *State
	entitiesCloned bool
	flowersCloned  bool
}

func newDraft(prev *State) *draft {
	next := *prev
	return &draft{s: &next}
}

func (d *draft) entities() map[EntityID]Entity {
	if !d.entitiesCloned {
		d.s.Entities = maps.Clone(d.s.Entities)
		if d.s.Entities == nil {
			d.s.Entities = map[EntityID]Entity{}
		}
		d.entitiesCloned = true
	}
	return d.s.Entities
}

func (d *draft) flowers() map[FlowerID]Flower {
	if !d.flowersCloned {
		d.s.Flowers = maps.Clone(d.s.Flowers)
		if d.s.Flowers == nil {
			d.s.Flowers = map[FlowerID]Flower{}
		}
		d.flowersCloned = true
	}
	return d.s.Flowers
}

func (d *draft) put(e Entity) {
	d.entities()[e.ID] = e
}

func (d *draft) add(e Entity) {
	d.entities()[e.ID] = e
	d.s.Population[e.Species]++
}

func (d *draft) remove(id EntityID) (Entity, bool) {
	e, ok := d.s.Entities[id]
	if !ok {
		return Entity{}, false
	}
	delete(d.entities(), id)
	d.s.Population[e.Species]--
	return e, true
}

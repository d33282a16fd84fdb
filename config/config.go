// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Obstacles  ObstaclesConfig  `yaml:"obstacles"`
	Steering   SteeringConfig   `yaml:"steering"`
	Rabbit     SpeciesConfig    `yaml:"rabbit"`
	Fox        SpeciesConfig    `yaml:"fox"`
	Moose      SpeciesConfig    `yaml:"moose"`
	Weather    WeatherConfig    `yaml:"weather"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Screen     ScreenConfig     `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the world extent and generation seed.
// The playable domain is the square [-HalfSize, HalfSize] on both X and Z.
type WorldConfig struct {
	HalfSize float64 `yaml:"half_size"`
	Seed     int64   `yaml:"seed"` // Terrain/obstacle generation seed
}

// SimulationConfig holds population, pacing and sync parameters.
type SimulationConfig struct {
	InitialRabbits int `yaml:"initial_rabbits"`
	InitialFoxes   int `yaml:"initial_foxes"`
	InitialMoose   int `yaml:"initial_moose"`
	InitialFlowers int `yaml:"initial_flowers"`

	MaxFlowers           int     `yaml:"max_flowers"`
	FlowerRegrowInterval float64 `yaml:"flower_regrow_interval"` // sim-seconds between regrowth attempts
	MaxFrameDelta        float64 `yaml:"max_frame_delta"`        // raw frame delta clamp (seconds)
	MotionSyncInterval   float64 `yaml:"motion_sync_interval"`   // seconds between position syncs
	NeedsSyncInterval    float64 `yaml:"needs_sync_interval"`    // seconds between needs syncs
	DayLength            float64 `yaml:"day_length"`             // sim-seconds per full day
	NightVisibility      float64 `yaml:"night_visibility"`       // radius multiplier at midnight
	StartTimeOfDay       float64 `yaml:"start_time_of_day"`      // 0..1, 0.5 = noon
	SinkFactor           float64 `yaml:"sink_factor"`            // fraction of water depth agents sink
	EventLogSize         int     `yaml:"event_log_size"`         // store ring buffer size
}

// TerrainConfig holds the parametric height field and water layout.
type TerrainConfig struct {
	Waves     []WaveConfig     `yaml:"waves"`
	Mountains []MountainConfig `yaml:"mountains"`
	River     RiverConfig      `yaml:"river"`
	Ponds     []PondConfig     `yaml:"ponds"`

	WaterLevel    float64 `yaml:"water_level"`    // water surface height
	BankHeight    float64 `yaml:"bank_height"`    // ground height the river flattens toward
	BankWidth     float64 `yaml:"bank_width"`     // flattening band beyond the water edge
	SnowSoft      float64 `yaml:"snow_soft"`      // height where downhill push starts
	SnowHard      float64 `yaml:"snow_hard"`      // snow cap height
	GradientDelta float64 `yaml:"gradient_delta"` // finite difference step
}

// WaveConfig is one smooth low-frequency term: Amp * sin(FreqX*x + PhaseX) * cos(FreqZ*z + PhaseZ).
type WaveConfig struct {
	Amp    float64 `yaml:"amp"`
	FreqX  float64 `yaml:"freq_x"`
	FreqZ  float64 `yaml:"freq_z"`
	PhaseX float64 `yaml:"phase_x"`
	PhaseZ float64 `yaml:"phase_z"`
}

// MountainConfig is a gaussian bump.
type MountainConfig struct {
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Height float64 `yaml:"height"`
	Sigma  float64 `yaml:"sigma"`
}

// RiverConfig describes the centerline z = A*sin(B*x) + C*sin(D*x + Phase).
type RiverConfig struct {
	A        float64 `yaml:"a"`
	B        float64 `yaml:"b"`
	C        float64 `yaml:"c"`
	D        float64 `yaml:"d"`
	Phase    float64 `yaml:"phase"`
	Width    float64 `yaml:"width"`
	MaxDepth float64 `yaml:"max_depth"`
}

// PondConfig describes an elliptical-ish pond with lobed edges.
type PondConfig struct {
	X        float64 `yaml:"x"`
	Z        float64 `yaml:"z"`
	Radius   float64 `yaml:"radius"`
	MaxDepth float64 `yaml:"max_depth"`
	Phase    float64 `yaml:"phase"` // per-pond lobe offset
}

// ObstaclesConfig holds static obstacle generation and index parameters.
type ObstaclesConfig struct {
	Trees  int `yaml:"trees"`
	Stones int `yaml:"stones"`
	Bushes int `yaml:"bushes"`

	TreeRadius          float64 `yaml:"tree_radius"`           // soft avoidance radius
	StoneRadius         float64 `yaml:"stone_radius"`
	BushRadius          float64 `yaml:"bush_radius"`
	TreeCollisionRadius float64 `yaml:"tree_collision_radius"` // hard collider (trunk)
	CellSize            float64 `yaml:"cell_size"`
	ForestScale         float64 `yaml:"forest_scale"`     // noise frequency of forest density
	ForestThreshold     float64 `yaml:"forest_threshold"` // normalized noise cutoff for trees
	WaterClearance      float64 `yaml:"water_clearance"`
	MaxAttempts         int     `yaml:"max_attempts"` // placement attempts per obstacle
}

// SteeringConfig holds shared steering parameters.
type SteeringConfig struct {
	WanderDistance   float64 `yaml:"wander_distance"`
	WanderRadius     float64 `yaml:"wander_radius"`
	WanderJitter     float64 `yaml:"wander_jitter"`
	AvoidQueryRadius float64 `yaml:"avoid_query_radius"`
	AvoidMargin      float64 `yaml:"avoid_margin"`
	ObstacleWeight   float64 `yaml:"obstacle_weight"`
	TerrainWeight    float64 `yaml:"terrain_weight"`
	CollisionPasses  int     `yaml:"collision_passes"`
	StationarySpeed  float64 `yaml:"stationary_speed"` // below this the default heading is used
}

// SpeciesConfig holds per-species tuning. Fields that do not apply to a
// species are left zero (e.g. moose have no reproduction).
type SpeciesConfig struct {
	MaxSpeed float64 `yaml:"max_speed"`
	MaxForce float64 `yaml:"max_force"`
	Mass     float64 `yaml:"mass"`
	Radius   float64 `yaml:"radius"`

	HungerDecay         float64 `yaml:"hunger_decay"` // per second
	ThirstDecay         float64 `yaml:"thirst_decay"`
	JuvenileHungerDecay float64 `yaml:"juvenile_hunger_decay"`
	JuvenileThirstDecay float64 `yaml:"juvenile_thirst_decay"`
	JuvenileSpeed       float64 `yaml:"juvenile_speed"` // max speed multiplier

	NeedThreshold  float64 `yaml:"need_threshold"`  // seek water below this thirst
	ForageBelow    float64 `yaml:"forage_below"`    // seek food below this hunger
	BreedHunger    float64 `yaml:"breed_hunger"`    // mate only above this hunger
	HuntThreshold  float64 `yaml:"hunt_threshold"`  // chase only below this hunger
	FleeRadius     float64 `yaml:"flee_radius"`
	FleeWeight     float64 `yaml:"flee_weight"`
	AggroRadius    float64 `yaml:"aggro_radius"`
	CatchRadius    float64 `yaml:"catch_radius"`
	EatRadius      float64 `yaml:"eat_radius"`
	DrinkBuffer    float64 `yaml:"drink_buffer"`
	FoodChoices    int     `yaml:"food_choices"` // k nearest flowers to choose among
	IdleChance     float64 `yaml:"idle_chance"`
	IdleMin        float64 `yaml:"idle_min"`
	IdleMax        float64 `yaml:"idle_max"`

	FlowerNutrition float64 `yaml:"flower_nutrition"`

	MateRadius      float64 `yaml:"mate_radius"`
	ContactRadius   float64 `yaml:"contact_radius"`
	MateCooldown    float64 `yaml:"mate_cooldown"`
	MatePause       float64 `yaml:"mate_pause"`
	DrinkPause      float64 `yaml:"drink_pause"`
	EatPause        float64 `yaml:"eat_pause"`
	MaxPopulation   int     `yaml:"max_population"`
	LitterMin       int     `yaml:"litter_min"`
	LitterMax       int     `yaml:"litter_max"`
	LitterJitter    float64 `yaml:"litter_jitter"`
	LitterHungerMin float64 `yaml:"litter_hunger_min"` // rabbits: hunger needed after a meal
	MealsToAdult    int     `yaml:"meals_to_adult"`    // rabbits: meals before adulthood
	MealsForLitter  int     `yaml:"meals_for_litter"`  // foxes: kills while pregnant
	HopFrequency    float64 `yaml:"hop_frequency"`     // rabbits: hop phase per unit travelled
}

// WeatherConfig holds the weather cycle parameters.
type WeatherConfig struct {
	MinDuration    float64 `yaml:"min_duration"`
	MaxDuration    float64 `yaml:"max_duration"`
	VisibilityLoss float64 `yaml:"visibility_loss"` // radius loss at full rain/fog intensity
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // sim-seconds per window
}

// ScreenConfig holds viewer settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldSize     float64 // 2 * HalfSize
	MaxFlowers    int     // at least InitialFlowers
	PixelsPerUnit float32 // viewer scale
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.World.HalfSize <= 0 {
		return fmt.Errorf("world.half_size must be positive, got %v", c.World.HalfSize)
	}
	if c.Obstacles.CellSize <= 0 {
		return fmt.Errorf("obstacles.cell_size must be positive, got %v", c.Obstacles.CellSize)
	}
	if c.Terrain.SnowHard <= c.Terrain.SnowSoft {
		return fmt.Errorf("terrain.snow_hard (%v) must exceed terrain.snow_soft (%v)", c.Terrain.SnowHard, c.Terrain.SnowSoft)
	}
	if r := c.Terrain.River; r.Width <= 0 || r.MaxDepth <= 0 {
		return fmt.Errorf("terrain.river width and max_depth must be positive")
	}
	for i, p := range c.Terrain.Ponds {
		if p.Radius <= 0 || p.MaxDepth <= 0 {
			return fmt.Errorf("terrain.ponds[%d]: radius and max_depth must be positive", i)
		}
	}
	for name, sp := range map[string]SpeciesConfig{"rabbit": c.Rabbit, "fox": c.Fox, "moose": c.Moose} {
		if sp.Mass <= 0 || sp.MaxSpeed <= 0 {
			return fmt.Errorf("%s: mass and max_speed must be positive", name)
		}
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call again after modifying a loaded config in place.
func (c *Config) ComputeDerived() {
	c.Derived.WorldSize = 2 * c.World.HalfSize

	c.Derived.MaxFlowers = c.Simulation.MaxFlowers
	if c.Derived.MaxFlowers < c.Simulation.InitialFlowers {
		c.Derived.MaxFlowers = c.Simulation.InitialFlowers
	}

	if c.Screen.Height > 0 {
		c.Derived.PixelsPerUnit = float32(float64(c.Screen.Height) / c.Derived.WorldSize)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"village-planner/internal/agent"
	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
	"village-planner/internal/village"
)

// EnvPath overrides the config file location.
const EnvPath = "VILLAGENAV_CONFIG"

type Config struct {
	World    WorldConfig    `toml:"world"`
	Navmesh  NavmeshConfig  `toml:"navmesh"`
	Wall     WallConfig     `toml:"wall"`
	Agent    AgentConfig    `toml:"agent"`
	Server   ServerConfig   `toml:"server"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Logging  LoggingConfig  `toml:"logging"`
	Data     DataConfig     `toml:"data"`
}

type WorldConfig struct {
	GridSize    float64 `toml:"grid_size"`    // world units per cell
	WidthCells  int     `toml:"width_cells"`  // buildable world width
	HeightCells int     `toml:"height_cells"` // buildable world height
	IndexMargin float64 `toml:"index_margin"` // spatial index padding, fraction of the world span
}

type NavmeshConfig struct {
	SeedSpacingCells int             `toml:"seed_spacing_cells"`
	Neighbors        int             `toml:"neighbors"`
	QueryPadCells    float64         `toml:"query_pad_cells"`
	CornerOffset     float64         `toml:"corner_offset"`
	SnapCandidates   int             `toml:"snap_candidates"`
	TangentBlocks    bool            `toml:"tangent_blocks"`
	SmoothPaths      bool            `toml:"smooth_paths"`
	Clearance        *geom.Clearance `toml:"clearance"` // nil = sprite clearance for the grid size
}

type WallConfig struct {
	X                int     `toml:"x"`
	Y                int     `toml:"y"`
	Width            int     `toml:"width"`
	Height           int     `toml:"height"`
	Thickness        float64 `toml:"thickness"`
	GateWidthCells   int     `toml:"gate_width_cells"`
	UpgradeStepCells int     `toml:"upgrade_step_cells"`
}

type AgentConfig struct {
	Speed         float64 `toml:"speed"`
	ArriveEpsilon float64 `toml:"arrive_epsilon"`
	WalkTicks     int     `toml:"walk_ticks"`
	WalkJitter    int     `toml:"walk_jitter"`
	IdleTicks     int     `toml:"idle_ticks"`
	Seed          int64   `toml:"seed"`
}

type ServerConfig struct {
	BindAddress string        `toml:"bind_address"`
	TickRate    time.Duration `toml:"tick_rate"` // 0 disables the simulation loop
}

type SnapshotConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DataConfig struct {
	Buildings string `toml:"buildings"`
	Layout    string `toml:"layout"`
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			GridSize:    24,
			WidthCells:  120,
			HeightCells: 80,
			IndexMargin: 0.25,
		},
		Navmesh: NavmeshConfig{
			SeedSpacingCells: 15,
			Neighbors:        10,
			QueryPadCells:    2,
			CornerOffset:     3,
			SnapCandidates:   10,
		},
		Wall: WallConfig{
			X:                50,
			Y:                30,
			Width:            20,
			Height:           20,
			Thickness:        8,
			GateWidthCells:   3,
			UpgradeStepCells: 5,
		},
		Agent: AgentConfig{
			Speed:         1,
			ArriveEpsilon: 2,
			WalkTicks:     600,
			WalkJitter:    100,
			IdleTicks:     0,
			Seed:          1,
		},
		Server: ServerConfig{
			BindAddress: "0.0.0.0:8080",
			TickRate:    time.Second / 60,
		},
		Snapshot: SnapshotConfig{
			Path: "data/navmesh.json.zst",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			Buildings: "configs/buildings.yaml",
			Layout:    "configs/layout.yaml",
		},
	}
}

func (c *Config) validate() error {
	if c.World.GridSize <= 0 {
		return fmt.Errorf("world.grid_size must be positive")
	}
	if c.World.WidthCells <= 0 || c.World.HeightCells <= 0 {
		return fmt.Errorf("world size must be positive")
	}
	if c.World.IndexMargin < 0 {
		return fmt.Errorf("world.index_margin must not be negative")
	}
	if c.Navmesh.SeedSpacingCells <= 0 {
		return fmt.Errorf("navmesh.seed_spacing_cells must be positive")
	}
	if c.Navmesh.Neighbors <= 0 {
		return fmt.Errorf("navmesh.neighbors must be positive")
	}
	if c.Wall.Width <= 0 || c.Wall.Height <= 0 {
		return fmt.Errorf("wall size must be positive")
	}
	return nil
}

// Bounds returns the world rectangle in world units.
func (w WorldConfig) Bounds() geom.Rect {
	return geom.RectXYWH(0, 0, float64(w.WidthCells)*w.GridSize, float64(w.HeightCells)*w.GridSize)
}

// IndexBounds returns the world padded by IndexMargin on every side.
func (w WorldConfig) IndexBounds() geom.Rect {
	return navmesh.PadBounds(w.Bounds(), w.IndexMargin)
}

// BuildConfig converts the navmesh settings for the builder.
func (c *Config) BuildConfig() navmesh.BuildConfig {
	g := c.World.GridSize
	bc := navmesh.DefaultBuildConfig(c.World.Bounds(), g)
	bc.IndexBounds = c.World.IndexBounds()
	bc.SeedSpacing = float64(c.Navmesh.SeedSpacingCells) * g
	bc.Neighbors = c.Navmesh.Neighbors
	bc.QueryPad = c.Navmesh.QueryPadCells * g
	bc.CornerOffset = c.Navmesh.CornerOffset
	bc.SnapCandidates = c.Navmesh.SnapCandidates
	bc.TangentBlocks = c.Navmesh.TangentBlocks
	bc.SmoothPaths = c.Navmesh.SmoothPaths
	if c.Navmesh.Clearance != nil {
		bc.Clearance = *c.Navmesh.Clearance
	}
	return bc
}

// Behavior converts the agent settings.
func (c *Config) Behavior() agent.Behavior {
	return agent.Behavior{
		Speed:         c.Agent.Speed,
		ArriveEpsilon: c.Agent.ArriveEpsilon,
		WalkTicks:     c.Agent.WalkTicks,
		WalkJitter:    c.Agent.WalkJitter,
		IdleTicks:     c.Agent.IdleTicks,
	}
}

// Village assembles the village configuration.
func (c *Config) Village() village.Config {
	return village.Config{
		Navmesh: c.BuildConfig(),
		Wall: village.WallConfig{
			X:           c.Wall.X,
			Y:           c.Wall.Y,
			Width:       c.Wall.Width,
			Height:      c.Wall.Height,
			Thickness:   c.Wall.Thickness,
			GateWidth:   c.Wall.GateWidthCells,
			UpgradeStep: c.Wall.UpgradeStepCells,
		},
		Behavior: c.Behavior(),
		Seed:     c.Agent.Seed,
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village-planner/internal/config"
	"village-planner/internal/geom"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "villagenav.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := config.Load("../../configs/villagenav.toml")
	require.NoError(t, err)

	assert.Equal(t, 24.0, cfg.World.GridSize)
	assert.Equal(t, 120, cfg.World.WidthCells)
	assert.Equal(t, 16*time.Millisecond, cfg.Server.TickRate)
	assert.Nil(t, cfg.Navmesh.Clearance)

	bc := cfg.BuildConfig()
	assert.Equal(t, geom.RectXYWH(0, 0, 2880, 1920), bc.World)
	assert.Equal(t, 360.0, bc.SeedSpacing)
	assert.Equal(t, 48.0, bc.QueryPad)
	assert.Equal(t, geom.SpriteClearance(24), bc.Clearance)
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
[world]
grid_size = 10

[navmesh]
tangent_blocks = true

[navmesh.clearance]
left = 1
top = 2
right = 3
bottom = 4

[logging]
format = "json"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.World.GridSize)
	assert.Equal(t, 80, cfg.World.HeightCells, "default kept")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)

	bc := cfg.BuildConfig()
	assert.True(t, bc.TangentBlocks)
	assert.Equal(t, geom.Clearance{Left: 1, Top: 2, Right: 3, Bottom: 4}, bc.Clearance)
	assert.Equal(t, 150.0, bc.SeedSpacing)
	assert.Equal(t, geom.Rect{MinX: -300, MinY: -200, MaxX: 1500, MaxY: 1000}, bc.IndexBounds)

	vc := cfg.Village()
	assert.Equal(t, 3, vc.Wall.GateWidth)
	assert.Equal(t, 600, vc.Behavior.WalkTicks)
	assert.Equal(t, int64(1), vc.Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "[world\ngrid_size = 1"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "[world]\ngrid_size = -1\n"))
	assert.ErrorContains(t, err, "grid_size")
}

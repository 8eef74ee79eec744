package village

import (
	"github.com/google/uuid"

	"village-planner/internal/agent"
	"village-planner/internal/geom"
)

// Building is a placed structure. Position and size are in grid cells.
type Building struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"`
	Name   string     `json:"name"`
	CellX  int        `json:"x"`
	CellY  int        `json:"y"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Role   agent.Role `json:"-"`

	gridSize float64
}

// NewBuilding creates a building of the given spec with a fresh identity.
func NewBuilding(spec BuildingSpec, cellX, cellY int, gridSize float64) *Building {
	return &Building{
		ID:       uuid.NewString(),
		Key:      spec.Key,
		Name:     spec.Name,
		CellX:    cellX,
		CellY:    cellY,
		Width:    spec.Width,
		Height:   spec.Height,
		Role:     spec.role,
		gridSize: gridSize,
	}
}

// Bounds returns the footprint in world units.
func (b *Building) Bounds() geom.Rect {
	g := b.gridSize
	return geom.RectXYWH(float64(b.CellX)*g, float64(b.CellY)*g, float64(b.Width)*g, float64(b.Height)*g)
}

func (b *Building) ObstacleID() string { return b.ID }

// Construction tracks a building that is still being built. Its footprint
// already blocks movement.
type Construction struct {
	Building  *Building `json:"building"`
	TurnsLeft int       `json:"turns_left"`
	Builder   string    `json:"builder,omitempty"` // villager working on it
}

// WorkedOn reports whether a builder is assigned.
func (c *Construction) WorkedOn() bool {
	return c.Builder != ""
}

// OnNewTurn advances construction by one turn if a builder is working on it.
func (c *Construction) OnNewTurn() {
	if c.WorkedOn() {
		c.TurnsLeft--
	}
}

// Finished reports whether the building is complete.
func (c *Construction) Finished() bool {
	return c.TurnsLeft <= 0
}

package village

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"village-planner/internal/agent"
	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
	"village-planner/internal/spatial"
)

var (
	// ErrCannotBuild is returned when a footprint leaves the wall or overlaps
	// another building.
	ErrCannotBuild = errors.New("village: cannot build here")
	// ErrUnknownBuilding is returned for unknown building keys or IDs.
	ErrUnknownBuilding = errors.New("village: unknown building")
)

// Config holds everything a village needs besides its catalog.
type Config struct {
	Navmesh  navmesh.BuildConfig
	Wall     WallConfig
	Behavior agent.Behavior
	Seed     int64
}

// TurnReport summarizes a NewTurn call.
type TurnReport struct {
	Turn      int      `json:"turn"`
	Completed []string `json:"completed"`
	Rebuilt   bool     `json:"rebuilt"`
}

// Village handles buildings, the construction queue, the wall and the
// villagers, and keeps the navigator informed of layout changes.
type Village struct {
	cfg     Config
	catalog *Catalog
	log     *zap.Logger
	rng     *rand.Rand

	buildings     []*Building
	constructions []*Construction
	footprints    *spatial.Footprints
	wall          *Wall
	nav           *navmesh.Navigator

	villagers []*agent.Villager
	homeOf    map[string]*agent.Villager // building ID -> villager
	turn      int
}

// New creates an empty village.
func New(cfg Config, catalog *Catalog, log *zap.Logger) *Village {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Village{
		cfg:        cfg,
		catalog:    catalog,
		log:        log,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		footprints: spatial.NewFootprints(),
		homeOf:     make(map[string]*agent.Villager),
	}
	v.wall = NewWall(cfg.Wall, cfg.Navmesh.GridSize, cfg.Navmesh.Clearance, cfg.Navmesh.CornerOffset)
	v.nav = navmesh.NewNavigator(cfg.Navmesh, v, log.Named("navmesh"))
	return v
}

// Obstacles returns every footprint that blocks movement: buildings first,
// then construction sites, each in placement order.
func (v *Village) Obstacles() []navmesh.Obstacle {
	out := make([]navmesh.Obstacle, 0, len(v.buildings)+len(v.constructions))
	for _, b := range v.buildings {
		out = append(out, b)
	}
	for _, c := range v.constructions {
		out = append(out, c.Building)
	}
	return out
}

// Wall returns the village wall as seen by the navmesh.
func (v *Village) Wall() navmesh.Wall {
	return v.wall
}

// Perimeter returns the wall itself.
func (v *Village) Perimeter() *Wall {
	return v.wall
}

func (v *Village) Navigator() *navmesh.Navigator { return v.nav }
func (v *Village) Buildings() []*Building { return v.buildings }
func (v *Village) Constructions() []*Construction { return v.constructions }
func (v *Village) Villagers() []*agent.Villager { return v.villagers }
func (v *Village) Turn() int { return v.turn }
func (v *Village) Catalog() *Catalog { return v.catalog }
func (v *Village) VillagerOf(buildingID string) *agent.Villager { return v.homeOf[buildingID] }

// CanBuild checks that a cell rectangle is within the wall and does not
// overlap a building or construction site.
func (v *Village) CanBuild(cellX, cellY, width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if !v.wall.Contains(cellX, cellY, width, height) {
		return false
	}
	g := v.cfg.Navmesh.GridSize
	r := geom.RectXYWH(float64(cellX)*g, float64(cellY)*g, float64(width)*g, float64(height)*g)
	return len(v.footprints.Intersecting(r)) == 0
}

// Place adds a finished building of the given type.
func (v *Village) Place(key string, cellX, cellY int) (*Building, error) {
	spec, ok := v.catalog.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilding, key)
	}
	b := NewBuilding(spec, cellX, cellY, v.cfg.Navmesh.GridSize)
	if err := v.AddBuilding(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddBuilding makes the building part of the village and spawns its
// villager.
func (v *Village) AddBuilding(b *Building) error {
	if !v.CanBuild(b.CellX, b.CellY, b.Width, b.Height) {
		return fmt.Errorf("%w: %s at (%d,%d)", ErrCannotBuild, b.Key, b.CellX, b.CellY)
	}
	v.footprints.Insert(b.ID, b.Bounds())
	v.commission(b)
	v.nav.MarkDirty("building added")
	return nil
}

// commission registers a finished building whose footprint is already
// reserved.
func (v *Village) commission(b *Building) {
	v.buildings = append(v.buildings, b)
	villager := agent.NewVillager(b.ID, b.Role, b.Bounds(),
		agent.StrategyFor(b.Role, v.cfg.Navmesh.Clearance), v.cfg.Behavior)
	v.villagers = append(v.villagers, villager)
	v.homeOf[b.ID] = villager
	v.assignBuilders()
	v.log.Info("building added",
		zap.String("id", b.ID),
		zap.String("key", b.Key),
		zap.Int("x", b.CellX),
		zap.Int("y", b.CellY),
		zap.Stringer("role", b.Role))
}

// StartConstruction queues a building. Its footprint blocks movement from
// now on; it becomes a building once its turns run out.
func (v *Village) StartConstruction(key string, cellX, cellY int) (*Construction, error) {
	spec, ok := v.catalog.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilding, key)
	}
	if !v.CanBuild(cellX, cellY, spec.Width, spec.Height) {
		return nil, fmt.Errorf("%w: %s at (%d,%d)", ErrCannotBuild, key, cellX, cellY)
	}
	b := NewBuilding(spec, cellX, cellY, v.cfg.Navmesh.GridSize)
	c := &Construction{Building: b, TurnsLeft: spec.ConstructionTurns}
	v.footprints.Insert(b.ID, b.Bounds())
	v.constructions = append(v.constructions, c)
	v.assignBuilders()
	v.nav.MarkDirty("construction started")

	v.log.Info("construction started",
		zap.String("id", b.ID),
		zap.String("key", key),
		zap.Int("turns", c.TurnsLeft),
		zap.String("builder", c.Builder))
	return c, nil
}

// Demolish removes a building or construction site.
func (v *Village) Demolish(id string) error {
	if err := v.remove(id); err != nil {
		return err
	}
	v.nav.MarkDirty("building demolished")
	v.log.Info("building demolished", zap.String("id", id))
	return nil
}

// Destroy removes a building lost to a hazard such as fire.
func (v *Village) Destroy(id string) error {
	if err := v.remove(id); err != nil {
		return err
	}
	v.nav.MarkDirty("building destroyed")
	v.log.Warn("building destroyed", zap.String("id", id))
	return nil
}

func (v *Village) remove(id string) error {
	for i, b := range v.buildings {
		if b.ID != id {
			continue
		}
		v.buildings = append(v.buildings[:i], v.buildings[i+1:]...)
		v.footprints.Delete(id)
		v.retire(id)
		return nil
	}
	for i, c := range v.constructions {
		if c.Building.ID != id {
			continue
		}
		v.constructions = append(v.constructions[:i], v.constructions[i+1:]...)
		v.footprints.Delete(id)
		v.release(c)
		v.assignBuilders()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownBuilding, id)
}

// retire removes the villager living in a building. Its construction job,
// if any, goes back to the queue.
func (v *Village) retire(buildingID string) {
	villager, ok := v.homeOf[buildingID]
	if !ok {
		return
	}
	delete(v.homeOf, buildingID)
	for i, other := range v.villagers {
		if other == villager {
			v.villagers = append(v.villagers[:i], v.villagers[i+1:]...)
			break
		}
	}
	for _, c := range v.constructions {
		if c.Builder == villager.ID {
			c.Builder = ""
		}
	}
	v.assignBuilders()
}

func (v *Village) release(c *Construction) {
	if c.Builder == "" {
		return
	}
	if builder, ok := v.homeOf[c.Builder]; ok {
		builder.Unassign()
	}
	c.Builder = ""
}

// assignBuilders gives every idle builder the oldest unattended
// construction site.
func (v *Village) assignBuilders() {
	busy := make(map[string]bool, len(v.constructions))
	for _, c := range v.constructions {
		if c.Builder != "" {
			busy[c.Builder] = true
		}
	}
	for _, c := range v.constructions {
		if c.WorkedOn() {
			continue
		}
		for _, villager := range v.villagers {
			if villager.Role != agent.RoleBuilder || busy[villager.ID] {
				continue
			}
			villager.Assign(c.Building.Bounds())
			c.Builder = villager.ID
			busy[villager.ID] = true
			break
		}
	}
}

// UpgradeWall enlarges the wall.
func (v *Village) UpgradeWall() {
	v.wall.Upgrade()
	v.nav.MarkDirty("wall upgraded")
	v.log.Info("wall upgraded",
		zap.Int("width", v.wall.Width),
		zap.Int("height", v.wall.Height))
}

// ApplyLayout places the buildings of a layout. Placements that fail are
// logged and skipped.
func (v *Village) ApplyLayout(l *Layout) int {
	placed := 0
	for _, p := range l.Placements {
		if _, err := v.Place(p.Key, p.X, p.Y); err != nil {
			v.log.Warn("skipping placement", zap.String("key", p.Key), zap.Error(err))
			continue
		}
		placed++
	}
	v.log.Info("layout applied", zap.Int("placed", placed), zap.Int("total", len(l.Placements)))
	return placed
}

// NewTurn advances construction, promotes finished buildings, and rebuilds
// the navmesh once if anything changed during the turn.
func (v *Village) NewTurn() TurnReport {
	v.turn++
	report := TurnReport{Turn: v.turn}

	remaining := v.constructions[:0]
	var finished []*Construction
	for _, c := range v.constructions {
		c.OnNewTurn()
		if c.Finished() {
			finished = append(finished, c)
			continue
		}
		remaining = append(remaining, c)
	}
	v.constructions = remaining

	for _, c := range finished {
		v.release(c)
		v.commission(c.Building)
		v.nav.MarkDirty("construction finished")
		report.Completed = append(report.Completed, c.Building.ID)
	}
	v.assignBuilders()

	if v.nav.RebuildIfDirty() {
		report.Rebuilt = true
		for _, villager := range v.villagers {
			if ev := villager.Replan(v.nav); ev == agent.EventLost {
				v.log.Debug("villager lost after rebuild", zap.String("villager", villager.ID))
			}
		}
	}

	v.log.Info("new turn",
		zap.Int("turn", v.turn),
		zap.Int("completed", len(report.Completed)),
		zap.Int("constructions", len(v.constructions)),
		zap.Bool("rebuilt", report.Rebuilt))
	return report
}

// Tick updates every villager by one frame.
func (v *Village) Tick() {
	for _, villager := range v.villagers {
		switch villager.Tick(v.nav, v.rng) {
		case agent.EventLost:
			v.log.Debug("villager lost",
				zap.String("villager", villager.ID),
				zap.Stringer("role", villager.Role),
				zap.Float64("x", villager.Destination.X),
				zap.Float64("y", villager.Destination.Y))
		case agent.EventArrived:
			v.log.Debug("villager arrived", zap.String("villager", villager.ID))
		}
	}
}

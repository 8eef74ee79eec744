package agent

import (
	"fmt"
	"math/rand"

	"village-planner/internal/geom"
)

// Role is the job a villager does. It decides where the villager walks.
type Role uint8

const (
	RoleFarmer Role = iota
	RoleMiner
	RoleLumberjack
	RoleBlacksmith
	RoleShipwright
	RoleBuilder
	RoleHersir
)

var roleNames = [...]string{
	RoleFarmer:     "farmer",
	RoleMiner:      "miner",
	RoleLumberjack: "lumberjack",
	RoleBlacksmith: "blacksmith",
	RoleShipwright: "shipwright",
	RoleBuilder:    "builder",
	RoleHersir:     "hersir",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole maps a role name to its Role.
func ParseRole(name string) (Role, error) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// DestinationStrategy picks where a villager walks next.
type DestinationStrategy interface {
	Choose(v *Villager, rng *rand.Rand) geom.Point
}

// HomeEdge sends the villager to a random spot beside its home building.
type HomeEdge struct {
	Clearance geom.Clearance
}

func (s HomeEdge) Choose(v *Villager, rng *rand.Rand) geom.Point {
	return RandomEdgePoint(v.Home.Inflate(s.Clearance), rng)
}

// ConstructionEdge sends a builder to its construction site, or home when
// it has no assignment.
type ConstructionEdge struct {
	Clearance geom.Clearance
}

func (s ConstructionEdge) Choose(v *Villager, rng *rand.Rand) geom.Point {
	if site, ok := v.Assignment(); ok {
		return RandomEdgePoint(site.Inflate(s.Clearance), rng)
	}
	return RandomEdgePoint(v.Home.Inflate(s.Clearance), rng)
}

// Wander picks a point within Radius of the villager's position on each
// axis.
type Wander struct {
	Radius float64
}

func (s Wander) Choose(v *Villager, rng *rand.Rand) geom.Point {
	return geom.Point{
		X: v.Pos.X + (rng.Float64()*2-1)*s.Radius,
		Y: v.Pos.Y + (rng.Float64()*2-1)*s.Radius,
	}
}

// StrategyFor returns the destination strategy of a role. clearance is the
// sprite padding used by the navmesh, so edge points lie just outside the
// padded footprint.
func StrategyFor(role Role, clearance geom.Clearance) DestinationStrategy {
	switch role {
	case RoleBuilder:
		return ConstructionEdge{Clearance: clearance}
	case RoleHersir:
		return Wander{Radius: 100}
	default:
		return HomeEdge{Clearance: clearance}
	}
}

// RandomEdgePoint returns a uniformly distributed point on the perimeter of
// r.
func RandomEdgePoint(r geom.Rect, rng *rand.Rand) geom.Point {
	w, h := r.Width(), r.Height()
	d := rng.Float64() * 2 * (w + h)
	switch {
	case d < w:
		return geom.Point{X: r.MinX + d, Y: r.MinY}
	case d < w+h:
		return geom.Point{X: r.MaxX, Y: r.MinY + d - w}
	case d < 2*w+h:
		return geom.Point{X: r.MaxX - (d - w - h), Y: r.MaxY}
	default:
		return geom.Point{X: r.MinX, Y: r.MaxY - (d - 2*w - h)}
	}
}

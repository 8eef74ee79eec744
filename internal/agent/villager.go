package agent

import (
	"math/rand"

	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
)

// State is the activity of a villager.
type State uint8

const (
	StateIdle State = iota
	StateWalking
	StateLost // the last path request failed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Event reports what a Tick changed.
type Event uint8

const (
	EventNone Event = iota
	EventDeparted
	EventArrived
	EventGaveUp // walk timer ran out before arrival
	EventLost
)

// Planner finds walkable routes.
type Planner interface {
	RequestPath(start, end geom.Point) (navmesh.Path, error)
}

// Behavior holds the movement parameters shared by all villagers.
type Behavior struct {
	Speed         float64
	ArriveEpsilon float64
	WalkTicks     int
	WalkJitter    int
	IdleTicks     int
}

// DefaultBehavior matches the game's pacing at 60 ticks per second.
func DefaultBehavior() Behavior {
	return Behavior{
		Speed:         1,
		ArriveEpsilon: 2,
		WalkTicks:     600,
		WalkJitter:    100,
		IdleTicks:     0,
	}
}

// Villager is one inhabitant. It alternates between idling and walking to a
// destination chosen by its role's strategy. When no route exists it
// becomes Lost and waits out the walk timer before choosing again.
type Villager struct {
	ID   string
	Role Role
	Home geom.Rect
	Pos  geom.Point

	State       State
	Destination geom.Point

	strategy DestinationStrategy
	behavior Behavior
	follower Follower
	timer    int

	assignment    geom.Rect
	hasAssignment bool
}

// NewVillager places a villager at the top-left corner of its home.
func NewVillager(id string, role Role, home geom.Rect, strategy DestinationStrategy, behavior Behavior) *Villager {
	return &Villager{
		ID:       id,
		Role:     role,
		Home:     home,
		Pos:      geom.Point{X: home.MinX, Y: home.MinY},
		strategy: strategy,
		behavior: behavior,
		follower: Follower{Speed: behavior.Speed, Epsilon: behavior.ArriveEpsilon},
	}
}

// Assign gives the villager a work site, used by builders.
func (v *Villager) Assign(site geom.Rect) {
	v.assignment = site
	v.hasAssignment = true
}

// Unassign clears the work site.
func (v *Villager) Unassign() {
	v.hasAssignment = false
}

// Assignment returns the current work site.
func (v *Villager) Assignment() (geom.Rect, bool) {
	return v.assignment, v.hasAssignment
}

// Waypoints returns the rest of the current route.
func (v *Villager) Waypoints() []geom.Point {
	return v.follower.Waypoints
}

// Tick advances the villager by one frame.
func (v *Villager) Tick(planner Planner, rng *rand.Rand) Event {
	v.timer--

	switch v.State {
	case StateIdle, StateLost:
		if v.timer < 0 {
			return v.depart(planner, rng)
		}
	case StateWalking:
		if v.timer < 0 {
			v.stop()
			return EventGaveUp
		}
		var arrived bool
		v.Pos, arrived = v.follower.Step(v.Pos)
		if arrived {
			v.stop()
			return EventArrived
		}
	}
	return EventNone
}

// Replan requests a new route to the current destination, for use after
// the navmesh changed under a walking villager.
func (v *Villager) Replan(planner Planner) Event {
	if v.State != StateWalking {
		return EventNone
	}
	path, err := planner.RequestPath(v.Pos, v.Destination)
	if err != nil {
		v.State = StateLost
		v.follower.Waypoints = nil
		return EventLost
	}
	v.follow(path)
	return EventNone
}

func (v *Villager) depart(planner Planner, rng *rand.Rand) Event {
	v.timer = v.behavior.WalkTicks
	if v.behavior.WalkJitter > 0 {
		v.timer += rng.Intn(2*v.behavior.WalkJitter+1) - v.behavior.WalkJitter
	}

	v.Destination = v.strategy.Choose(v, rng)
	path, err := planner.RequestPath(v.Pos, v.Destination)
	if err != nil {
		v.State = StateLost
		v.follower.Waypoints = nil
		return EventLost
	}
	v.follow(path)
	v.State = StateWalking
	return EventDeparted
}

func (v *Villager) follow(path navmesh.Path) {
	// The first waypoint is the current position.
	if len(path) > 1 && path[0] == v.Pos {
		path = path[1:]
	}
	v.follower.Waypoints = append([]geom.Point(nil), path...)
}

func (v *Villager) stop() {
	v.State = StateIdle
	v.timer = v.behavior.IdleTicks
	v.follower.Waypoints = nil
}

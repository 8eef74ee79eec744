package navmesh_test

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
)

func testConfig(world geom.Rect, clearance geom.Clearance) navmesh.BuildConfig {
	cfg := navmesh.DefaultBuildConfig(world, 24)
	cfg.Clearance = clearance
	return cfg
}

func box(id string, cx, cy, w, h float64) navmesh.Box {
	return navmesh.Box{ID: id, Rect: geom.RectXYWH(cx-w/2, cy-h/2, w, h)}
}

func requireVisibleLegs(t *testing.T, mesh *navmesh.Mesh, path navmesh.Path) {
	t.Helper()
	for i := 0; i+1 < len(path); i++ {
		require.Truef(t, mesh.CanSee(path[i], path[i+1]), "leg %d %v -> %v is blocked", i, path[i], path[i+1])
	}
}

func TestBuild_EmptyLayoutIsConnectedGrid(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	mesh := navmesh.Build(testConfig(world, geom.Uniform(10)), nil, nil, nil)

	// 0, 360, ... 1800 on both axes.
	require.Equal(t, 36, mesh.Graph.Len())
	labels := mesh.Graph.Components()
	for _, l := range labels {
		assert.Equal(t, labels[0], l)
	}
	for _, k := range mesh.Graph.Kinds {
		assert.Equal(t, navmesh.KindSeed, k)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	obstacles := []navmesh.Obstacle{
		box("hall", 900, 900, 200, 200),
		box("mill", 400, 1300, 96, 72),
		box("forge", 1500, 500, 48, 48),
	}
	cfg := navmesh.DefaultBuildConfig(world, 24)

	a := navmesh.Build(cfg, obstacles, nil, nil)
	b := navmesh.Build(cfg, obstacles, nil, nil)
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestBuild_NoNodeInsidePaddedObstacle(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	cfg := navmesh.DefaultBuildConfig(world, 24)
	// Covers the seed at (720, 720).
	mesh := navmesh.Build(cfg, []navmesh.Obstacle{box("hall", 720, 720, 200, 200)}, nil, nil)

	padded, ok := mesh.Oracle.Padded("hall")
	require.True(t, ok)
	for i, p := range mesh.Graph.Nodes {
		assert.Falsef(t, padded.Contains(p), "node %d at %v", i, p)
		assert.NotEmpty(t, mesh.Graph.Edges[i], "zero-degree node %d survived", i)
	}
}

func TestBuild_EdgesAreVisible(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	obstacles := []navmesh.Obstacle{
		box("hall", 900, 900, 200, 200),
		box("barn", 1300, 1500, 120, 96),
	}
	mesh := navmesh.Build(navmesh.DefaultBuildConfig(world, 24), obstacles, nil, nil)

	for _, line := range mesh.Graph.Lines() {
		assert.True(t, mesh.CanSee(line[0], line[1]))
	}
}

func TestOracle_MatchesBruteForceNearBoundary(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	cfg := testConfig(world, geom.SpriteClearance(24))
	obstacles := []navmesh.Obstacle{
		box("hall", 500, 500, 200, 120),
		box("well", 200, 750, 48, 48),
	}
	oracle := navmesh.NewOracle(cfg, obstacles, nil, navmesh.PadBounds(world, 0.25))

	var padded []geom.Rect
	for _, obs := range obstacles {
		r, ok := oracle.Padded(obs.ObstacleID())
		require.True(t, ok)
		padded = append(padded, r)
	}

	rng := rand.New(rand.NewSource(7))
	near := func(r geom.Rect) geom.Point {
		// A point within a few units of the padded boundary.
		corners := r.Corners()
		a, b := corners[rng.Intn(4)], corners[rng.Intn(4)]
		f := rng.Float64()
		return geom.Pt(a.X+(b.X-a.X)*f+rng.Float64()*6-3, a.Y+(b.Y-a.Y)*f+rng.Float64()*6-3)
	}

	blocked, clear := 0, 0
	for i := 0; i < 400; i++ {
		p1 := near(padded[rng.Intn(len(padded))])
		var p2 geom.Point
		if i%2 == 0 {
			p2 = near(padded[rng.Intn(len(padded))])
		} else {
			p2 = geom.Pt(rng.Float64()*1000, rng.Float64()*1000)
		}

		want := true
		for _, r := range padded {
			if geom.SegmentHitsRect(p1, p2, r, false) {
				want = false
				break
			}
		}
		if want {
			clear++
		} else {
			blocked++
		}
		require.Equalf(t, want, oracle.CanSee(p1, p2), "segment %v -> %v", p1, p2)
	}
	assert.GreaterOrEqual(t, blocked, 20)
	assert.GreaterOrEqual(t, clear, 20)
}

func TestOracle_TangentRule(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	obstacles := []navmesh.Obstacle{box("hall", 500, 500, 100, 100)}

	open := navmesh.NewOracle(testConfig(world, geom.Uniform(0)), obstacles, nil, world)
	// Runs along the top edge.
	assert.True(t, open.CanSee(geom.Pt(300, 450), geom.Pt(700, 450)))
	assert.False(t, open.CanSee(geom.Pt(300, 460), geom.Pt(700, 460)))

	cfg := testConfig(world, geom.Uniform(0))
	cfg.TangentBlocks = true
	closed := navmesh.NewOracle(cfg, obstacles, nil, world)
	assert.False(t, closed.CanSee(geom.Pt(300, 450), geom.Pt(700, 450)))
	assert.Equal(t, []string{"hall"}, closed.Blockers(geom.Pt(300, 450), geom.Pt(700, 450)))
}

func TestOracle_CanSeeFromOwnMargin(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	obstacles := []navmesh.Obstacle{box("house", 500, 500, 100, 100)}
	oracle := navmesh.NewOracle(testConfig(world, geom.Uniform(20)), obstacles, nil, world)

	// Inside the margin but outside the house itself.
	origin := geom.Pt(500, 440)
	require.True(t, oracle.Inside(origin))
	assert.False(t, oracle.CanSee(origin, geom.Pt(500, 100)))
	assert.True(t, oracle.CanSeeFrom(origin, geom.Pt(500, 100)))
}

func bruteForceCost(g *navmesh.Graph, at, goal navmesh.NodeID, visited []bool, sofar float64, best *float64) {
	if at == goal {
		*best = math.Min(*best, sofar)
		return
	}
	visited[at] = true
	for _, e := range g.Edges[at] {
		if !visited[e.To] {
			bruteForceCost(g, e.To, goal, visited, sofar+e.Cost, best)
		}
	}
	visited[at] = false
}

func TestSearch_OptimalAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		g := navmesh.NewGraph()
		n := 4 + rng.Intn(7)
		for i := 0; i < n; i++ {
			g.AddNode(geom.Pt(rng.Float64()*100, rng.Float64()*100), navmesh.KindSeed)
		}
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				if rng.Float64() < 0.4 {
					g.AddEdge(navmesh.NodeID(a), navmesh.NodeID(b))
				}
			}
		}

		start, goal := navmesh.NodeID(0), navmesh.NodeID(n-1)
		best := math.Inf(1)
		bruteForceCost(g, start, goal, make([]bool, n), 0, &best)

		path, cost, ok := navmesh.Search(g, start, goal)
		if math.IsInf(best, 1) {
			assert.False(t, ok, "round %d", round)
			continue
		}
		require.True(t, ok, "round %d", round)
		assert.InDelta(t, best, cost, 1e-9, "round %d", round)
		assert.Equal(t, start, path[0])
		assert.Equal(t, goal, path[len(path)-1])

		walked := 0.0
		for i := 0; i+1 < len(path); i++ {
			require.True(t, g.HasEdge(path[i], path[i+1]))
			walked += g.Nodes[path[i]].Distance(g.Nodes[path[i+1]])
		}
		assert.InDelta(t, cost, walked, 1e-9)
	}
}

func TestSearch_TieBreakIsDeterministic(t *testing.T) {
	// Two routes of equal length around a square.
	g := navmesh.NewGraph()
	a := g.AddNode(geom.Pt(0, 0), navmesh.KindSeed)
	up := g.AddNode(geom.Pt(0, 10), navmesh.KindSeed)
	right := g.AddNode(geom.Pt(10, 0), navmesh.KindSeed)
	b := g.AddNode(geom.Pt(10, 10), navmesh.KindSeed)
	g.AddEdge(a, up)
	g.AddEdge(a, right)
	g.AddEdge(up, b)
	g.AddEdge(right, b)

	first, _, ok := navmesh.Search(g, a, b)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _, _ := navmesh.Search(g, a, b)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []navmesh.NodeID{a, up, b}, first)
}

func TestSearch_InvalidNodes(t *testing.T) {
	g := navmesh.NewGraph()
	g.AddNode(geom.Pt(0, 0), navmesh.KindSeed)

	_, _, ok := navmesh.Search(g, 0, 5)
	assert.False(t, ok)
	path, cost, ok := navmesh.Search(g, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []navmesh.NodeID{0}, path)
	assert.Zero(t, cost)
}

func TestFindPath_RoundTrip(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	obstacles := []navmesh.Obstacle{box("hall", 900, 900, 200, 200)}
	mesh := navmesh.Build(navmesh.DefaultBuildConfig(world, 24), obstacles, nil, nil)

	start, end := geom.Pt(100, 100), geom.Pt(1900, 1900)
	path, ok := mesh.FindPath(start, end)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(path), 3)
	assert.Equal(t, start, path[0])
	assert.Equal(t, end, path[len(path)-1])
	requireVisibleLegs(t, mesh, path)
	assert.GreaterOrEqual(t, path.Length(), start.Distance(end))
}

func TestFindPath_EnclosedStart(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	ring := []navmesh.Obstacle{
		navmesh.Box{ID: "top", Rect: geom.RectXYWH(400, 400, 200, 20)},
		navmesh.Box{ID: "bottom", Rect: geom.RectXYWH(400, 580, 200, 20)},
		navmesh.Box{ID: "left", Rect: geom.RectXYWH(400, 400, 20, 200)},
		navmesh.Box{ID: "right", Rect: geom.RectXYWH(580, 400, 20, 200)},
	}
	mesh := navmesh.Build(testConfig(world, geom.Uniform(10)), ring, nil, nil)

	_, ok := mesh.FindPath(geom.Pt(500, 500), geom.Pt(900, 900))
	assert.False(t, ok)
	_, ok = mesh.FindPath(geom.Pt(900, 900), geom.Pt(500, 500))
	assert.False(t, ok)

	path, ok := mesh.FindPath(geom.Pt(100, 100), geom.Pt(900, 900))
	require.True(t, ok)
	requireVisibleLegs(t, mesh, path)
}

func TestFindPath_EndMustBeReachable(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	hall := navmesh.Box{ID: "hall", Rect: geom.RectXYWH(800, 800, 200, 200)}
	cfg := navmesh.DefaultBuildConfig(world, 24)
	mesh := navmesh.Build(cfg, []navmesh.Obstacle{hall}, nil, nil)
	padded, ok := mesh.Oracle.Padded("hall")
	require.True(t, ok)

	start := geom.Pt(100, 100)
	_, ok = mesh.FindPath(start, geom.Pt(900, 900))
	assert.False(t, ok, "inside the hall")
	_, ok = mesh.FindPath(start, geom.Pt(padded.MinX+5, padded.MinY+5))
	assert.False(t, ok, "inside the margin")

	// A point on the padded edge is a destination, reached without entering.
	door := geom.Pt((padded.MinX+padded.MaxX)/2, padded.MinY)
	for _, tangent := range []bool{false, true} {
		cfg.TangentBlocks = tangent
		mesh := navmesh.Build(cfg, []navmesh.Obstacle{hall}, nil, nil)
		path, ok := mesh.FindPath(start, door)
		require.Truef(t, ok, "tangent=%v", tangent)
		assert.Equal(t, door, path[len(path)-1])
		for i := 0; i+1 < len(path); i++ {
			assert.Falsef(t, geom.SegmentHitsRect(path[i], path[i+1], padded, false),
				"tangent=%v leg %d enters the hall", tangent, i)
		}
	}
}

func TestOracle_CanReach(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	obstacles := []navmesh.Obstacle{box("hall", 500, 500, 100, 100)}
	cfg := testConfig(world, geom.Uniform(0))
	cfg.TangentBlocks = true
	oracle := navmesh.NewOracle(cfg, obstacles, nil, world)

	door := geom.Pt(500, 450)
	assert.False(t, oracle.CanSee(geom.Pt(500, 100), door))
	assert.True(t, oracle.CanReach(geom.Pt(500, 100), door))
	assert.False(t, oracle.CanReach(geom.Pt(500, 900), door), "crosses the hall to reach its far edge")
	assert.False(t, oracle.CanReach(geom.Pt(500, 100), geom.Pt(500, 500)))
}

func TestFindPath_Smoothed(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	obstacles := []navmesh.Obstacle{box("hall", 900, 900, 200, 200)}
	cfg := navmesh.DefaultBuildConfig(world, 24)

	raw, ok := navmesh.Build(cfg, obstacles, nil, nil).FindPath(geom.Pt(100, 100), geom.Pt(1900, 1900))
	require.True(t, ok)

	cfg.SmoothPaths = true
	mesh := navmesh.Build(cfg, obstacles, nil, nil)
	smooth, ok := mesh.FindPath(geom.Pt(100, 100), geom.Pt(1900, 1900))
	require.True(t, ok)

	assert.LessOrEqual(t, len(smooth), len(raw))
	assert.LessOrEqual(t, smooth.Length(), raw.Length()+1e-9)
	requireVisibleLegs(t, mesh, smooth)
}

func TestSmoothPath(t *testing.T) {
	always := func(a, b geom.Point) bool { return true }
	path := []geom.Point{geom.Pt(0, 0), geom.Pt(5, 1), geom.Pt(10, 0), geom.Pt(20, 0)}
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(20, 0)}, navmesh.SmoothPath(path, always))

	never := func(a, b geom.Point) bool { return false }
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(5, 1), geom.Pt(10, 0), geom.Pt(20, 0)}, navmesh.SmoothPath(path, never))

	collinear := []geom.Point{geom.Pt(0, 0), geom.Pt(5, 0), geom.Pt(10, 0)}
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0)}, navmesh.SmoothPath(collinear, never))

	diagonal := []geom.Point{geom.Pt(0, 0), geom.Pt(3, 3), geom.Pt(7, 7.0000001), geom.Pt(10, 10)}
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(10, 10)}, navmesh.SmoothPath(diagonal, never))

	backtrack := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 0)}
	assert.Equal(t, backtrack, navmesh.SmoothPath(backtrack, never), "turning point is kept")
}

func TestNavigator_RebuildRespectsNewObstacle(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	source := &navmesh.StaticSource{}
	nav := navmesh.NewNavigator(testConfig(world, geom.Uniform(10)), source, nil)

	var seen []navmesh.Snapshot
	nav.Subscribe(navmesh.ListenerFunc(func(s navmesh.Snapshot) { seen = append(seen, s) }))

	start, end := geom.Pt(100, 500), geom.Pt(900, 500)
	require.True(t, nav.Dirty())
	_, err := nav.RequestPath(start, end)
	require.NoError(t, err)
	require.False(t, nav.Dirty())
	require.Len(t, seen, 1)
	require.True(t, nav.CanSee(start, end))
	first := nav.Current().Graph

	wall := navmesh.Box{ID: "granary", Rect: geom.RectXYWH(450, 300, 100, 400)}
	source.Items = append(source.Items, wall)
	nav.MarkDirty("building added")
	require.True(t, nav.Dirty())

	path, err := nav.RequestPath(start, end)
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Equal(t, uint64(2), nav.Version())
	assert.Equal(t, uint64(2), seen[1].Version)
	assert.False(t, nav.CanSee(start, end))

	padded := wall.Rect.Inflate(geom.Uniform(10))
	for i := 0; i+1 < len(path); i++ {
		assert.Falsef(t, geom.SegmentHitsRect(path[i], path[i+1], padded, false), "leg %d crosses the new obstacle", i)
	}

	assert.False(t, nav.RebuildIfDirty())
	assert.Len(t, seen, 2)

	// Removing it again restores the original connectivity.
	source.Items = nil
	nav.MarkDirty("building demolished")
	_, err = nav.RequestPath(start, end)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nav.Version())
	assert.True(t, nav.CanSee(start, end))
	restored := nav.Current().Graph
	assert.Equal(t, first.Len(), restored.Len())
	assert.Equal(t, first.EdgeCount(), restored.EdgeCount())
	assert.Equal(t, first.Components(), restored.Components())
}

func TestNavigator_NoPath(t *testing.T) {
	world := geom.RectXYWH(0, 0, 1000, 1000)
	source := &navmesh.StaticSource{Items: []navmesh.Obstacle{
		navmesh.Box{ID: "top", Rect: geom.RectXYWH(400, 400, 200, 20)},
		navmesh.Box{ID: "bottom", Rect: geom.RectXYWH(400, 580, 200, 20)},
		navmesh.Box{ID: "left", Rect: geom.RectXYWH(400, 400, 20, 200)},
		navmesh.Box{ID: "right", Rect: geom.RectXYWH(580, 400, 20, 200)},
	}}
	nav := navmesh.NewNavigator(testConfig(world, geom.Uniform(10)), source, nil)

	_, err := nav.RequestPath(geom.Pt(500, 500), geom.Pt(50, 50))
	assert.ErrorIs(t, err, navmesh.ErrNoPath)
}

func TestSnapshot_SaveLoad(t *testing.T) {
	world := geom.RectXYWH(0, 0, 2000, 2000)
	obstacles := []navmesh.Obstacle{box("hall", 900, 900, 200, 200)}
	mesh := navmesh.Build(navmesh.DefaultBuildConfig(world, 24), obstacles, nil, nil)
	snap := mesh.Snapshot()

	path := filepath.Join(t.TempDir(), "snapshots", "navmesh.json.zst")
	require.NoError(t, navmesh.SaveSnapshot(path, snap))

	loaded, err := navmesh.LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
	assert.Len(t, loaded.Lines(), mesh.Graph.EdgeCount())

	g := loaded.Graph()
	assert.Equal(t, mesh.Graph.Len(), g.Len())
	assert.Equal(t, mesh.Graph.EdgeCount(), g.EdgeCount())
	assert.Equal(t, mesh.Graph.Kinds, g.Kinds)
}

func TestSnapshot_LoadMissingFile(t *testing.T) {
	_, err := navmesh.LoadSnapshot(filepath.Join(t.TempDir(), "absent.json.zst"))
	assert.Error(t, err)
}

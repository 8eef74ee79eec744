package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
	"village-planner/internal/overlay"
	"village-planner/internal/village"
)

type RouteRequest struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

type RouteResponse struct {
	Path     []geom.Point `json:"path"`
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Distance float64      `json:"distance,omitempty"`
	Version  uint64       `json:"version"`
	Blockers []string     `json:"blockers,omitempty"` // obstacles on the straight line, when no route exists
}

type BuildRequest struct {
	Key     string `json:"key"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Instant bool   `json:"instant,omitempty"` // skip construction
}

type RebuildRequest struct {
	Save bool `json:"save,omitempty"` // write the snapshot file afterwards
}

// Server exposes a village over HTTP. Every handler and the simulation loop
// share one mutex, since neither the village nor its navigator is safe for
// concurrent use.
type Server struct {
	log          *zap.Logger
	hub          *overlay.Hub
	snapshotPath string

	mu      sync.Mutex
	village *village.Village
}

// New wraps v. hub may be nil, in which case /ws is not served.
func New(v *village.Village, hub *overlay.Hub, snapshotPath string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if hub != nil {
		v.Navigator().Subscribe(hub)
	}
	return &Server{
		log:          log,
		hub:          hub,
		snapshotPath: snapshotPath,
		village:      v,
	}
}

// corsMiddleware adds CORS headers to allow overlay frontends.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", corsMiddleware(s.routeHandler))
	mux.HandleFunc("/rebuild", corsMiddleware(s.rebuildHandler))
	mux.HandleFunc("/turn", corsMiddleware(s.turnHandler))
	mux.HandleFunc("/buildings", corsMiddleware(s.buildingsHandler))
	mux.HandleFunc("/buildings/{id}", corsMiddleware(s.buildingHandler))
	mux.HandleFunc("/catalog", corsMiddleware(s.catalogHandler))
	mux.HandleFunc("/wall/upgrade", corsMiddleware(s.wallUpgradeHandler))
	mux.HandleFunc("/graph/lines", corsMiddleware(s.graphLinesHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.Handler())
	}
	return mux
}

// Tick advances every villager by one frame.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.village.Tick()
}

// Run serves addr and ticks the village every tickRate until ctx is done.
// A zero tickRate disables the simulation loop.
func (s *Server) Run(ctx context.Context, addr string, tickRate time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if tickRate > 0 {
		go func() {
			ticker := time.NewTicker(tickRate)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.Tick()
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", zap.String("addr", addr), zap.Duration("tick_rate", tickRate))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Server) methodAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	s.log.Debug("method not allowed", zap.String("path", r.URL.Path), zap.String("method", r.Method))
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// decode reads an optional JSON body into v.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// POST /route
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	nav := s.village.Navigator()
	path, err := nav.RequestPath(req.Start, req.End)
	version := nav.Version()
	var blockers []string
	if err != nil {
		blockers = nav.Current().Oracle.Blockers(req.Start, req.End)
	}
	s.mu.Unlock()

	resp := RouteResponse{Path: path, Success: err == nil, Version: version}
	if err != nil {
		resp.Message = err.Error()
		resp.Blockers = blockers
		s.log.Info("route not found",
			zap.Strings("blockers", blockers),
			zap.Float64("start_x", req.Start.X), zap.Float64("start_y", req.Start.Y),
			zap.Float64("end_x", req.End.X), zap.Float64("end_y", req.End.Y))
	} else {
		resp.Distance = path.Length()
		s.log.Debug("route found", zap.Int("waypoints", len(path)), zap.Float64("distance", resp.Distance))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /rebuild
func (s *Server) rebuildHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req RebuildRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	nav := s.village.Navigator()
	nav.MarkDirty("requested")
	mesh := nav.Rebuild()
	var snap navmesh.Snapshot
	if req.Save {
		snap = mesh.Snapshot()
	}
	s.mu.Unlock()

	if req.Save {
		if err := navmesh.SaveSnapshot(s.snapshotPath, snap); err != nil {
			s.log.Error("save snapshot", zap.String("path", s.snapshotPath), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save snapshot")
			return
		}
		s.log.Info("snapshot saved", zap.String("path", s.snapshotPath), zap.Uint64("version", snap.Version))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"version":  mesh.Version,
		"numNodes": mesh.Graph.Len(),
		"numEdges": mesh.Graph.EdgeCount(),
	})
}

// POST /turn
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodPost) {
		return
	}
	s.mu.Lock()
	report := s.village.NewTurn()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, report)
}

// GET /buildings lists buildings and construction sites; POST /buildings
// starts a construction, or places the building outright when instant.
func (s *Server) buildingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		body := map[string]any{
			"buildings":     s.village.Buildings(),
			"constructions": s.village.Constructions(),
		}
		b, err := json.Marshal(body)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode failed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	case http.MethodPost:
		s.build(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	var (
		result any
		err    error
	)
	if req.Instant {
		var b *village.Building
		b, err = s.village.Place(req.Key, req.X, req.Y)
		if err == nil {
			result = b
		}
	} else {
		var c *village.Construction
		c, err = s.village.StartConstruction(req.Key, req.X, req.Y)
		if err == nil {
			result = c
		}
	}
	var body []byte
	if err == nil {
		body, err = json.Marshal(result)
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, village.ErrUnknownBuilding):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, village.ErrCannotBuild):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.log.Info("building requested",
			zap.String("key", req.Key), zap.Int("x", req.X), zap.Int("y", req.Y), zap.Bool("instant", req.Instant))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}
}

// DELETE /buildings/{id}; ?hazard=true destroys instead of demolishing.
func (s *Server) buildingHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodDelete) {
		return
	}
	id := r.PathValue("id")
	hazard := r.URL.Query().Get("hazard") == "true"

	s.mu.Lock()
	var err error
	if hazard {
		err = s.village.Destroy(id)
	} else {
		err = s.village.Demolish(id)
	}
	s.mu.Unlock()

	if errors.Is(err, village.ErrUnknownBuilding) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /catalog lists the buildings that can be placed, by key.
func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	catalog := s.village.Catalog()
	specs := make([]village.BuildingSpec, 0, catalog.Count())
	for _, key := range catalog.Keys() {
		spec, _ := catalog.Get(key)
		specs = append(specs, spec)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"buildings": specs})
}

// POST /wall/upgrade
func (s *Server) wallUpgradeHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodPost) {
		return
	}
	s.mu.Lock()
	s.village.UpgradeWall()
	wall := s.village.Perimeter()
	body := map[string]any{
		"success": true,
		"width":   wall.Width,
		"height":  wall.Height,
		"gate":    wall.GateCenter(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

// GET /graph/lines returns the current edges for visualization.
func (s *Server) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.methodAllowed(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	snap := s.village.Navigator().Snapshot()
	s.mu.Unlock()

	lines := snap.Lines()
	s.log.Debug("graph lines", zap.Int("lines", len(lines)), zap.Uint64("version", snap.Version))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"version":   snap.Version,
		"lines":     lines,
		"obstacles": snap.Obstacles,
		"numNodes":  len(snap.Nodes),
		"numEdges":  len(lines),
	})
}

// GET /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nav := s.village.Navigator()
	body := map[string]any{
		"status":        "ready",
		"version":       nav.Version(),
		"dirty":         nav.Dirty(),
		"turn":          s.village.Turn(),
		"buildings":     len(s.village.Buildings()),
		"constructions": len(s.village.Constructions()),
		"villagers":     len(s.village.Villagers()),
	}
	s.mu.Unlock()
	if s.hub != nil {
		body["overlayClients"] = s.hub.Clients()
	}
	writeJSON(w, http.StatusOK, body)
}

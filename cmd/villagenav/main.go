package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"village-planner/internal/config"
	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
	"village-planner/internal/overlay"
	"village-planner/internal/server"
	"village-planner/internal/village"
)

const defaultConfigPath = "configs/villagenav.toml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "villagenav",
		Short:        "Village navmesh builder and pathfinding server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"config file (default "+defaultConfigPath+", or $"+config.EnvPath+")")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation loop and the HTTP/websocket debug server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}

	routeCmd := &cobra.Command{
		Use:   "route <x1> <y1> <x2> <y2>",
		Short: "Plan one route through the configured layout and print its waypoints",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cfgPath, args)
		},
	}

	var inspect bool
	snapshotCmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Build the navmesh for the configured layout and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if inspect {
				return runInspect(cfgPath, path)
			}
			return runSnapshot(cfgPath, path)
		},
	}
	snapshotCmd.Flags().BoolVar(&inspect, "inspect", false, "print an existing snapshot instead of writing one")

	rootCmd.AddCommand(serveCmd, routeCmd, snapshotCmd)
	return rootCmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = defaultConfigPath
		if p := os.Getenv(config.EnvPath); p != "" {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setup loads the config, the logger and the village with its initial
// layout.
func setup(cfgPath string) (*config.Config, *zap.Logger, *village.Village, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	catalog, err := village.LoadCatalog(cfg.Data.Buildings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("buildings: %w", err)
	}
	log.Info("building catalog loaded", zap.Int("count", catalog.Count()))

	v := village.New(cfg.Village(), catalog, log)
	if cfg.Data.Layout != "" {
		layout, err := village.LoadLayout(cfg.Data.Layout)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("layout: %w", err)
		}
		v.ApplyLayout(layout)
	}
	return cfg, log, v, nil
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, log, v, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if prev, err := navmesh.LoadSnapshot(cfg.Snapshot.Path); err == nil {
		log.Info("previous snapshot found",
			zap.String("path", cfg.Snapshot.Path),
			zap.Uint64("version", prev.Version),
			zap.Int("nodes", len(prev.Nodes)))
	} else {
		log.Debug("no previous snapshot", zap.Error(err))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := overlay.NewHub(log.Named("overlay"))
	srv := server.New(v, hub, cfg.Snapshot.Path, log.Named("http"))
	mesh := v.Navigator().Current()
	log.Info("navmesh ready",
		zap.Int("nodes", mesh.Graph.Len()),
		zap.Int("edges", mesh.Graph.EdgeCount()),
		zap.Int("villagers", len(v.Villagers())))

	if err := srv.Run(ctx, cfg.Server.BindAddress, cfg.Server.TickRate); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func runRoute(cfgPath string, args []string) error {
	coords := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", a, err)
		}
		coords[i] = f
	}

	_, log, v, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	start, end := geom.Pt(coords[0], coords[1]), geom.Pt(coords[2], coords[3])
	path, err := v.Navigator().RequestPath(start, end)
	if err != nil {
		return fmt.Errorf("route %v -> %v: %w", start, end, err)
	}
	for i, p := range path {
		fmt.Printf("%3d  %8.1f %8.1f\n", i, p.X, p.Y)
	}
	fmt.Printf("length %.1f\n", path.Length())
	return nil
}

func runSnapshot(cfgPath, path string) error {
	cfg, log, v, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if path == "" {
		path = cfg.Snapshot.Path
	}
	snap := v.Navigator().Snapshot()
	if err := navmesh.SaveSnapshot(path, snap); err != nil {
		return err
	}
	log.Info("snapshot saved",
		zap.String("path", path),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("obstacles", len(snap.Obstacles)))
	return nil
}

func runInspect(cfgPath, path string) error {
	if path == "" {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		path = cfg.Snapshot.Path
	}
	snap, err := navmesh.LoadSnapshot(path)
	if err != nil {
		return err
	}

	kinds := make(map[string]int)
	for _, n := range snap.Nodes {
		kinds[n.Kind]++
	}
	g := snap.Graph()
	components := 0
	for _, label := range g.Components() {
		components = max(components, label+1)
	}
	fmt.Printf("version    %d\n", snap.Version)
	fmt.Printf("world      %.0f,%.0f - %.0f,%.0f\n", snap.World.MinX, snap.World.MinY, snap.World.MaxX, snap.World.MaxY)
	fmt.Printf("nodes      %d\n", g.Len())
	fmt.Printf("edges      %d\n", g.EdgeCount())
	fmt.Printf("components %d\n", components)
	fmt.Printf("obstacles  %d\n", len(snap.Obstacles))
	for _, kind := range slices.Sorted(maps.Keys(kinds)) {
		fmt.Printf("  %-10s %d\n", kind, kinds[kind])
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

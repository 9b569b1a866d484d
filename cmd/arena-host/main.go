package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/config"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/feed"
	"driftpursuit/arena/internal/logging"
	"driftpursuit/arena/internal/replay"
	"driftpursuit/arena/internal/runner"
	"driftpursuit/arena/internal/sim"
	"driftpursuit/arena/internal/tilemap"
)

const (
	shutdownTimeout = 5 * time.Second
	retentionSweep  = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("arena host stopped", logging.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	//1.- Tunables and level.
	cv, err := cvars.LoadFile(cfg.CvarsPath)
	if err != nil {
		return err
	}
	grid, err := loadLevel(cfg)
	if err != nil {
		return err
	}
	cols, rows := grid.Dimensions()

	simulation := sim.New(cv, grid, sim.WithSeed(cfg.Seed), sim.WithLogger(logger))
	populate(simulation, grid, cfg.IdleVehicles)
	logger.Info("arena ready",
		logging.Int("cols", cols),
		logging.Int("rows", rows),
		logging.Int64("seed", cfg.Seed),
		logging.Int("idle_vehicles", cfg.IdleVehicles),
		logging.Duration("tick_interval", cfg.TickInterval()),
	)

	//2.- Optional replay capture with retention.
	var recorder *replay.Recorder
	var cleaner *replay.Cleaner
	if cfg.ReplayDir != "" {
		writer, manifest, err := replay.NewWriter(cfg.ReplayDir, "arena", nil)
		if err != nil {
			return err
		}
		writer.SetHeaderMetadata(cfg.Seed, cfg.TickHz, replay.ArenaInfo{Cols: cols, Rows: rows, TileSize: grid.TileSize()})
		if recorder, err = replay.NewRecorder(writer); err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Warn("replay close failed", logging.Error(err))
			}
		}()
		logger.Info("recording replay", logging.String("directory", writer.Directory()), logging.String("frames", manifest.FramesPath))

		cleaner = replay.NewCleaner(cfg.ReplayDir, replay.RetentionPolicy{MaxBundles: cfg.ReplayKeep, MaxAge: cfg.ReplayMaxAge}, logger)
		go cleaner.Run(ctx, retentionSweep)
	}

	//3.- Session, viewer feed and loop.
	var session *runner.Session
	hub := feed.NewHub(feed.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
		MaxClients:      cfg.MaxClients,
		PingInterval:    cfg.PingInterval,
		InputRate:       cfg.InputRate,
		OnInput:         func(input sim.Input) { session.SetInput(input) },
	})
	defer hub.Close()

	sinks := []runner.FrameSink{hub}
	if recorder != nil {
		sinks = append(sinks, runner.FrameSinkFunc(recorder.Record))
	}
	session = runner.NewSession(simulation, logger, sinks...)

	monitor := runner.NewTickMonitor()
	health := runner.NewHealth()
	loop := runner.NewLoop(float64(cfg.TickHz), session.Step, runner.WithMonitor(monitor), runner.WithHealth(health))

	status := func() any {
		ticks := monitor.Snapshot()
		doc := map[string]any{
			"tick_hz":      cfg.TickHz,
			"ticks":        ticks.Samples,
			"average_fps":  ticks.AverageFPS(),
			"max_step_ms":  float64(ticks.Max) / float64(time.Millisecond),
			"replay_dir":   cfg.ReplayDir,
			"replay_stats": recorder.Snapshot(),
		}
		if cleaner != nil {
			doc["replay_storage"] = cleaner.Stats()
		}
		return doc
	}

	//4.- Listeners.
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           feed.NewMux(hub, logger, status),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("feed listening", logging.String("address", cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("feed server: %w", err)
		}
	}()
	go func() {
		logger.Info("health listening", logging.String("address", cfg.GRPCAddress))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	loop.Start(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case runErr = <-errCh:
	}

	//5.- Stop ticking first so the replay sees a final frame before closing.
	loop.Stop()
	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("feed shutdown failed", logging.Error(err))
	}
	grpcServer.GracefulStop()
	return runErr
}

func loadLevel(cfg *config.Config) (*tilemap.Grid, error) {
	if cfg.MapPath == "" {
		return tilemap.Arena(cfg.ArenaCols, cfg.ArenaRows, tilemap.DefaultTileSize)
	}
	layout, err := os.ReadFile(cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return tilemap.Parse(string(layout), tilemap.DefaultTileSize)
}

// populate drops the player near the middle of the arena and parks idle
// targets on the open tiles to its right.
func populate(simulation *sim.Simulation, grid *tilemap.Grid, idle int) {
	cols, rows := grid.Dimensions()
	col, row := cols/2, rows/2
	for grid.Solid(col, row) && col > 0 {
		col--
	}
	simulation.SpawnPlayer(archetype.Tank, grid.TileCenter(col, row), 0)

	vehicle := archetype.VehicleType(0)
	for c := col + 2; idle > 0 && c < cols; c += 2 {
		if grid.Solid(c, row) {
			continue
		}
		vehicle = archetype.VehicleType((int(vehicle) + 1) % archetype.VehicleTypeCount)
		simulation.SpawnVehicle(vehicle, grid.TileCenter(c, row), 0)
		idle--
	}
}

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/game"
	"github.com/patrikandersson91/ecosystem-sub000/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logEvents := flag.Bool("log-events", false, "Log every store event at debug level")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in sim-seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	eventsDB := flag.String("events-db", "", "SQLite file for the append-only event log")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	dt := flag.Float64("dt", 1.0/60.0, "Frame delta in seconds for headless runs")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *logEvents {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		LogEvents:      *logEvents,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		EventsDB:       *eventsDB,
		Headless:       *headless,
	}

	if *headless {
		runHeadless(cfg, opts, *maxTicks, *dt)
		return
	}
	runWindowed(cfg, opts, *maxTicks)
}

func runHeadless(cfg *config.Config, opts game.Options, maxTicks int64, dt float64) {
	sim, err := game.NewSimulation(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"run_id", sim.RunID(),
		"max_ticks", maxTicks,
		"dt", dt,
	)

	for !sim.State().GameOver {
		sim.Step(dt)
		if maxTicks > 0 && sim.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.Tick())
			break
		}
	}

	finish(sim)
}

func runWindowed(cfg *config.Config, opts game.Options, maxTicks int64) {
	rl.InitWindow(int32(cfg.Screen.Width+renderer.PanelWidth), int32(cfg.Screen.Height), "Ecosystem")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	sim, err := game.NewSimulation(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	mapSize := int32(min(cfg.Screen.Width, cfg.Screen.Height))
	view := renderer.NewViewer(sim.Terrain(), sim.Obstacles(), mapSize)
	defer view.Unload()

	for !rl.WindowShouldClose() {
		view.HandleInput(sim.State(), sim)
		sim.Step(float64(rl.GetFrameTime()))

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		view.Draw(sim.State(), sim)
		rl.EndDrawing()

		if maxTicks > 0 && sim.Tick() >= maxTicks {
			break
		}
	}

	finish(sim)
}

func finish(sim *game.Simulation) {
	if err := sim.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
	}
	sim.LogSummary()
}

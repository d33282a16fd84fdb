package game

import "github.com/patrikandersson91/ecosystem-sub000/telemetry"

// Options holds configuration for simulation initialization.
type Options struct {
	Seed           int64   // RNG seed for agent decisions and litters
	LogStats       bool    // log window stats and bookmarks via slog
	LogEvents      bool    // log every store event at debug level
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // CSV output directory, empty = disabled
	EventsDB       string  // SQLite event log path, empty = disabled
	Headless       bool

	// OnWindow, if set, receives every flushed stats window.
	OnWindow func(telemetry.WindowStats)
}

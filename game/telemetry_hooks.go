package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/telemetry"
)

// eventBatchSize is how many event records are buffered before they are
// written to events.csv and the event log.
const eventBatchSize = 512

// setupTelemetry creates the collectors and optional sinks and subscribes
// them to the store.
func (s *Simulation) setupTelemetry(opts Options) error {
	window := opts.StatsWindowSec
	if window <= 0 {
		window = s.cfg.Telemetry.StatsWindow
	}
	s.collector = telemetry.NewCollector(s.runID, window)
	s.perf = telemetry.NewPerfCollector(120)
	s.bookmarks = telemetry.NewBookmarkDetector(10)
	s.onWindow = opts.OnWindow

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	if err := om.WriteConfig(s.cfg); err != nil {
		om.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	s.output = om

	log, err := telemetry.OpenEventLog(opts.EventsDB, s.runID)
	if err != nil {
		om.Close()
		return err
	}
	if err := log.RecordRun(s.seed, time.Now().UTC().Format(time.RFC3339)); err != nil {
		om.Close()
		log.Close()
		return fmt.Errorf("recording run: %w", err)
	}
	s.eventLog = log

	if s.output != nil {
		slog.Info("output enabled", "dir", s.output.Dir(), "run_id", s.runID)
	}

	s.store.Subscribe(s.onEvent)
	return nil
}

// onEvent is the store subscriber. It must not dispatch.
func (s *Simulation) onEvent(e store.Event) {
	s.collector.Record(e)
	s.totals[e.Kind]++

	if s.logEvents {
		slog.Debug("event", "tick", s.tick, "event", e)
	}
	if s.output != nil || s.eventLog != nil {
		s.pending = append(s.pending, telemetry.NewEventRecord(s.runID, s.tick, e))
	}
}

// flushTelemetry writes buffered events when the batch is full and, once per
// stats window, the window stats, perf stats and any bookmarks.
func (s *Simulation) flushTelemetry() {
	if len(s.pending) >= eventBatchSize {
		if err := s.flushEvents(); err != nil {
			slog.Error("failed to write events", "error", err)
		}
	}

	st := s.store.State()
	if !s.collector.ShouldFlush(st.Clock.Elapsed) {
		return
	}

	stats := s.collector.Flush(s.tick, st)
	perfStats := s.perf.Stats()

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if s.onWindow != nil {
		s.onWindow(stats)
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := s.flushEvents(); err != nil {
		slog.Error("failed to write events", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// flushEvents writes buffered event records to every enabled sink.
func (s *Simulation) flushEvents() error {
	if len(s.pending) == 0 {
		return nil
	}
	defer func() { s.pending = s.pending[:0] }()

	if err := s.output.WriteEvents(s.pending); err != nil {
		return err
	}
	if err := s.eventLog.Append(s.pending); err != nil {
		return fmt.Errorf("appending to event log: %w", err)
	}
	return nil
}

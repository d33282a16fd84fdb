package game

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// LogSummary logs an end-of-run summary with human-readable totals.
func (s *Simulation) LogSummary() {
	st := s.store.State()

	attrs := []any{
		"run_id", s.runID,
		"seed", s.seed,
		"ticks", humanize.Comma(s.tick),
		"sim_time", humanize.FtoaWithDigits(st.Clock.Elapsed, 1),
		"rabbits", humanize.Comma(int64(st.Count(store.SpeciesRabbit))),
		"foxes", humanize.Comma(int64(st.Count(store.SpeciesFox))),
		"moose", humanize.Comma(int64(st.Count(store.SpeciesMoose))),
		"flowers", humanize.Comma(int64(len(st.Flowers))),
		"births", humanize.Comma(s.totals[store.EventBirth]),
		"deaths", humanize.Comma(s.totals[store.EventDeath]),
		"catches", humanize.Comma(s.totals[store.EventCaught]),
		"matings", humanize.Comma(s.totals[store.EventMated]),
		"game_over", st.GameOver,
	}

	if dir := s.output.Dir(); dir != "" {
		if info, err := os.Stat(filepath.Join(dir, "events.csv")); err == nil {
			attrs = append(attrs, "events_csv", humanize.Bytes(uint64(info.Size())))
		}
	}

	slog.Info("run summary", attrs...)
}

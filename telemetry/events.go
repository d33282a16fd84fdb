// Package telemetry aggregates store events into windowed ecosystem
// statistics and writes them to CSV files and an optional SQLite event log.
package telemetry

import "github.com/patrikandersson91/ecosystem-sub000/store"

// EventRecord is the flat form of a store event used by events.csv and the
// event log.
type EventRecord struct {
	RunID    string  `csv:"run_id" db:"run_id"`
	Tick     int64   `csv:"tick" db:"tick"`
	Time     float64 `csv:"time" db:"time"`
	Kind     string  `csv:"kind" db:"kind"`
	Species  string  `csv:"species" db:"species"`
	EntityID uint32  `csv:"entity_id" db:"entity_id"`
	OtherID  uint32  `csv:"other_id" db:"other_id"`
	Cause    string  `csv:"cause" db:"cause"`
	Value    float64 `csv:"value" db:"value"`
}

// NewEventRecord flattens a store event.
func NewEventRecord(runID string, tick int64, e store.Event) EventRecord {
	r := EventRecord{
		RunID:    runID,
		Tick:     tick,
		Time:     e.Time,
		Kind:     e.Kind.String(),
		EntityID: uint32(e.EntityID),
		OtherID:  uint32(e.OtherID),
		Value:    e.Value,
	}
	if e.EntityID != 0 {
		r.Species = e.Species.String()
	}
	if e.Cause != store.CauseNone {
		r.Cause = e.Cause.String()
	}
	return r
}

package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

func TestEventLogAppendAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	log, err := OpenEventLog(path, "run-a")
	if err != nil {
		t.Fatalf("OpenEventLog: %v", err)
	}
	defer log.Close()

	if err := log.RecordRun(42, "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	records := []EventRecord{
		NewEventRecord("run-a", 1, store.Event{Kind: store.EventBirth, Species: store.SpeciesRabbit, EntityID: 5}),
		NewEventRecord("run-a", 2, store.Event{Kind: store.EventDeath, Species: store.SpeciesRabbit, EntityID: 5, OtherID: 7, Cause: store.CausePredation}),
		NewEventRecord("run-a", 2, store.Event{Kind: store.EventCaught, Species: store.SpeciesFox, EntityID: 7, OtherID: 5}),
	}
	if err := log.Append(records); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := log.CountByKind("death")
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if n != 1 {
		t.Errorf("death count = %d, want 1", n)
	}

	recent, err := log.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(recent))
	}
	if recent[0].Kind != "caught" || recent[1].Cause != "predation" {
		t.Errorf("unexpected order or content: %+v", recent)
	}
}

func TestEventLogDisabled(t *testing.T) {
	log, err := OpenEventLog("", "run")
	if err != nil || log != nil {
		t.Fatalf("OpenEventLog(\"\") = %v, %v; want nil, nil", log, err)
	}
	// nil log is a no-op
	if err := log.Append([]EventRecord{{Kind: "birth"}}); err != nil {
		t.Errorf("Append on nil log: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("Close on nil log: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteTelemetry(WindowStats{RunID: "r", WindowEndTick: 10, Rabbits: 3}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{RunID: "r", WindowEndTick: 20, Rabbits: 2}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WriteEvents(nil); err != nil {
		t.Fatalf("WriteEvents(nil): %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,") {
		t.Errorf("header = %q", lines[0])
	}
}

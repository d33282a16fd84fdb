package store

import "log/slog"

// EventKind identifies a store event.
type EventKind uint8

const (
	EventBirth EventKind = iota
	EventDeath
	EventAte
	EventDrank
	EventMated
	EventCaught
	EventMatured
	EventFlowerSpawned
	EventWeatherChanged
	EventGameOver
	EventLitterSuppressed
)

var eventNames = [...]string{
	"birth",
	"death",
	"ate",
	"drank",
	"mated",
	"caught",
	"matured",
	"flower_spawned",
	"weather_changed",
	"game_over",
	"litter_suppressed",
}

// String returns the snake_case event name.
func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// DeathCause explains why an entity was removed.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseDehydration
	CausePredation
	CauseRemoved
)

// String returns the cause name.
func (c DeathCause) String() string {
	switch c {
	case CauseStarvation:
		return "starvation"
	case CauseDehydration:
		return "dehydration"
	case CausePredation:
		return "predation"
	case CauseRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Event is a side-channel record of something a reducer did. Events are
// derived from state transitions and never feed back into them.
type Event struct {
	Kind     EventKind
	Time     float64 // clock time when the action was applied
	Species  Species
	EntityID EntityID
	OtherID  EntityID // partner, predator, prey or parent depending on Kind
	Cause    DeathCause
	Value    float64 // hunger after eating, litter size, weather intensity...
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.Float64("time", e.Time),
	}
	if e.EntityID != 0 {
		attrs = append(attrs,
			slog.String("species", e.Species.String()),
			slog.Int("entity_id", int(e.EntityID)),
		)
	}
	if e.OtherID != 0 {
		attrs = append(attrs, slog.Int("other_id", int(e.OtherID)))
	}
	if e.Cause != CauseNone {
		attrs = append(attrs, slog.String("cause", e.Cause.String()))
	}
	if e.Value != 0 {
		attrs = append(attrs, slog.Float64("value", e.Value))
	}
	return slog.GroupValue(attrs...)
}

package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntingSpree     BookmarkType = "hunting_spree"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkPreyCrash        BookmarkType = "prey_crash"
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	SimTime     float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"sim_time", b.SimTime,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the population history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentFoxMin       int  // minimum fox count in recent history
	foxMinSeen         bool // recentFoxMin holds a real observation
	recentRabbitPeak   int  // peak rabbit count in recent history
	stableWindowsCount int  // consecutive windows with stable populations
	extinct            [3]bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(b *Bookmark) {
		if b != nil {
			b.RunID = stats.RunID
			b.Tick = stats.WindowEndTick
			b.SimTime = stats.SimTimeSec
			bookmarks = append(bookmarks, *b)
		}
	}

	add(bd.checkExtinction(stats))
	if bd.historyFull || bd.historyIdx > 0 {
		add(bd.checkHuntingSpree(stats))
		add(bd.checkPredatorRecovery(stats))
		add(bd.checkPreyCrash(stats))
		add(bd.checkStableEcosystem(stats))
	}

	bd.addToHistory(stats)

	if !bd.foxMinSeen || stats.Foxes < bd.recentFoxMin {
		bd.recentFoxMin = stats.Foxes
		bd.foxMinSeen = true
	}
	if stats.Rabbits > bd.recentRabbitPeak {
		bd.recentRabbitPeak = stats.Rabbits
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkExtinction fires once per species when its population first hits 0.
func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	counts := [3]int{stats.Rabbits, stats.Foxes, stats.Moose}
	names := [3]string{"rabbits", "foxes", "moose"}
	for i, n := range counts {
		if n > 0 {
			bd.extinct[i] = false
			continue
		}
		if bd.extinct[i] {
			continue
		}
		bd.extinct[i] = true
		// A species absent from the start is not an extinction.
		if len(bd.getHistory()) == 0 {
			continue
		}
		return &Bookmark{
			Type:        BookmarkExtinction,
			Description: fmt.Sprintf("No %s left", names[i]),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkHuntingSpree(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Catches
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Catches) > avg*2.0 && stats.Catches >= 3 {
		return &Bookmark{
			Type:        BookmarkHuntingSpree,
			Description: fmt.Sprintf("%d catches is %.1fx average (%.2f)", stats.Catches, float64(stats.Catches)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.recentFoxMin == 0 || bd.recentFoxMin > 2 {
		return nil
	}

	threshold := bd.recentFoxMin * 3
	if stats.Foxes >= threshold && stats.Foxes >= 5 {
		// Reset the minimum after triggering
		oldMin := bd.recentFoxMin
		bd.recentFoxMin = stats.Foxes

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Description: fmt.Sprintf("Foxes recovered from %d to %d", oldMin, stats.Foxes),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.recentRabbitPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Rabbits)/float64(bd.recentRabbitPeak)
	if drop > 0.30 && stats.Rabbits < bd.recentRabbitPeak-5 {
		// Reset peak after crash
		oldPeak := bd.recentRabbitPeak
		bd.recentRabbitPeak = stats.Rabbits

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Description: fmt.Sprintf("Rabbits crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Rabbits),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	// Need both populations present
	if stats.Rabbits < 10 || stats.Foxes < 2 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	rabbitCV2 := cv2(recent, func(w WindowStats) int { return w.Rabbits })
	foxCV2 := cv2(recent, func(w WindowStats) int { return w.Foxes })

	if rabbitCV2 < 0.04 && foxCV2 < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Description: fmt.Sprintf("Stable ecosystem with %d rabbits, %d foxes over 5+ windows", stats.Rabbits, stats.Foxes),
		}
	}
	return nil
}

// cv2 returns the squared coefficient of variation of a population series.
func cv2(windows []WindowStats, count func(WindowStats) int) float64 {
	var sum float64
	for _, w := range windows {
		sum += float64(count(w))
	}
	mean := sum / float64(len(windows))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, w := range windows {
		d := float64(count(w)) - mean
		variance += d * d
	}
	variance /= float64(len(windows))
	return variance / (mean * mean)
}

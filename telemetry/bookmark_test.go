package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HuntingSpree(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Rabbits: 40, Foxes: 4, Catches: 1})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Rabbits: 35, Foxes: 4, Catches: 5})
	if !hasBookmark(bookmarks, BookmarkHuntingSpree) {
		t.Error("expected hunting_spree bookmark")
	}
}

func TestBookmarkDetector_PreyCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Rabbits: 100, Foxes: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Rabbits: 50, Foxes: 10})
	if !hasBookmark(bookmarks, BookmarkPreyCrash) {
		t.Error("expected prey_crash bookmark")
	}
}

func TestBookmarkDetector_PredatorRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Rabbits: 100, Foxes: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 2400, Rabbits: 100, Foxes: 10})
	if !hasBookmark(bookmarks, BookmarkPredatorRecovery) {
		t.Error("expected predator_recovery bookmark")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 600), Rabbits: 100, Foxes: 20})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("stable_ecosystem fired %d times, want 1", fired)
	}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// moose absent from the start never counts
	first := bd.Check(WindowStats{WindowEndTick: 0, Rabbits: 20, Foxes: 3})
	if hasBookmark(first, BookmarkExtinction) {
		t.Fatal("extinction fired for a species that was never present")
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 600, SimTimeSec: 10, Rabbits: 20, Foxes: 0})
	if !hasBookmark(bookmarks, BookmarkExtinction) {
		t.Fatal("expected extinction bookmark when foxes reach 0")
	}
	if bookmarks[0].Tick != 600 || bookmarks[0].SimTime != 10 {
		t.Errorf("bookmark stamped with tick %d time %v", bookmarks[0].Tick, bookmarks[0].SimTime)
	}

	again := bd.Check(WindowStats{WindowEndTick: 1200, Rabbits: 20, Foxes: 0})
	if hasBookmark(again, BookmarkExtinction) {
		t.Error("extinction fired twice for the same species")
	}
}

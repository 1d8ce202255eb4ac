package indexdb

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"emberhall/internal/persistence/snapshot"
	"emberhall/internal/sim/tavern"
)

func TestIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for day := 1; day <= 3; day++ {
		rep := &tavern.DayReport{
			Day:       day,
			Weekday:   day,
			Season:    "spring",
			Guests:    20 + day,
			Revenue:   float64(100 * day),
			Net:       float64(10 * day),
			GoldAfter: 120,
		}
		if err := idx.WriteReport("g1", rep); err != nil {
			t.Fatalf("write report: %v", err)
		}
	}
	if err := idx.WriteAudit(AuditEntry{Game: "g1", Day: 2, Minute: 490, Action: "buySupply", OK: true}); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	idx.RecordSave("g1", "/saves/day-000003.sav.zst", snapshot.Header{Version: 1, Game: "g1", Day: 3, SavedAt: "2026-01-01T00:00:00Z"})
	idx.RecordWeek("g1", 1, 7, 700, 150, 90)

	// Close drains the writer and commits what was queued.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	reports, err := idx.RecentReports("g1", 2)
	if err != nil {
		t.Fatalf("recent reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	var first tavern.DayReport
	if err := json.Unmarshal(reports[0], &first); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if first.Day != 3 {
		t.Fatalf("expected newest report first, got day %d", first.Day)
	}

	savePath, day, err := idx.LatestSave("g1")
	if err != nil {
		t.Fatalf("latest save: %v", err)
	}
	if day != 3 || savePath != "/saves/day-000003.sav.zst" {
		t.Fatalf("unexpected latest save %q day %d", savePath, day)
	}

	weeks, err := idx.WeekSummaries("g1", 10)
	if err != nil {
		t.Fatalf("weeks: %v", err)
	}
	if len(weeks) != 1 || weeks[0].WeekIndex != 1 || weeks[0].Guests != 150 {
		t.Fatalf("unexpected week rollup: %+v", weeks)
	}
}

func TestIndexReplacesReportForSameDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = idx.WriteReport("g1", &tavern.DayReport{Day: 5, Season: "spring", Guests: 10})
	_ = idx.WriteReport("g1", &tavern.DayReport{Day: 5, Season: "spring", Guests: 44})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	reports, err := idx.RecentReports("g1", 5)
	if err != nil {
		t.Fatalf("recent reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected the second write to replace the first, got %d rows", len(reports))
	}
	var rep tavern.DayReport
	if err := json.Unmarshal(reports[0], &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Guests != 44 {
		t.Fatalf("expected replaced guests 44, got %d", rep.Guests)
	}
}

func TestLatestSaveMissingGameIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	savePath, day, err := idx.LatestSave("nope")
	if err != nil {
		t.Fatalf("latest save: %v", err)
	}
	if savePath != "" || day != 0 {
		t.Fatalf("expected empty result, got %q day %d", savePath, day)
	}
}

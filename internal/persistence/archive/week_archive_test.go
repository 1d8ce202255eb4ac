package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"emberhall/internal/persistence/snapshot"
)

func TestArchiveWeekSave_CopiesWeekEndSave(t *testing.T) {
	dir := t.TempDir()
	gameDir := filepath.Join(dir, "games", "g1")

	src := filepath.Join(gameDir, "saves", "day-000014.sav.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir saves: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	h := snapshot.Header{Version: 1, Game: "g1", Day: 14, SavedAt: "2026-01-01T00:00:00Z"}

	week, archivedPath, ok, err := ArchiveWeekSave(gameDir, src, h)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok {
		t.Fatalf("expected archived=true")
	}
	if week != 2 {
		t.Fatalf("week=%d want 2", week)
	}

	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", string(got), string(want))
	}

	metaPath := filepath.Join(filepath.Dir(archivedPath), "meta.json")
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("expected meta.json to exist: %v", err)
	}
	var meta WeekArchiveMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Week != 2 || meta.EndDay != 14 || meta.Game != "g1" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestArchiveWeekSave_SkipsMidWeekDays(t *testing.T) {
	dir := t.TempDir()
	h := snapshot.Header{Version: 1, Game: "g1", Day: 9}
	_, _, ok, err := ArchiveWeekSave(dir, filepath.Join(dir, "nope.sav.zst"), h)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if ok {
		t.Fatalf("expected archived=false for mid-week day")
	}
}

package snapshot

import (
	"bytes"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := []byte(`{"version":1,"state":{"day":12,"gold":250}}`)
	h := Header{Version: 1, Game: "default", Day: 12, SavedAt: "2026-03-01T12:00:00Z"}
	path := PathFor(dir, 12)

	if err := Write(path, h, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, body, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != h {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if !bytes.Equal(body, payload) {
		t.Fatalf("payload = %q, want %q", body, payload)
	}
}

func TestHeaderScanWithoutBody(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte(`x`), 1<<20)
	h := Header{Version: 1, Game: "default", Day: 3, SavedAt: "2026-03-02T09:00:00Z"}
	path := PathFor(dir, 3)
	if err := Write(path, h, big); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.Day != 3 || got.Version != 1 {
		t.Fatalf("header = %+v", got)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, day := range []int{2, 9, 5} {
		h := Header{Version: 1, Game: "default", Day: day}
		if err := Write(PathFor(dir, day), h, []byte("{}")); err != nil {
			t.Fatalf("write day %d: %v", day, err)
		}
	}
	entries, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Header.Day != 9 || entries[1].Header.Day != 5 || entries[2].Header.Day != 2 {
		t.Fatalf("order = %d,%d,%d", entries[0].Header.Day, entries[1].Header.Day, entries[2].Header.Day)
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	entries, err := List(t.TempDir() + "/nope")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

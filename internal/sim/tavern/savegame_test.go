package tavern

import (
	"encoding/json"
	"testing"
	"time"

	"emberhall/internal/protocol"
	"emberhall/internal/sim/tuning"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestSim(321)
	for day := 0; day < 5; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
	}
	want, err := s.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}

	raw, err := s.MarshalSave(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, info, r := LoadGame(raw, tuning.Defaults())
	if !r.OK {
		t.Fatalf("load failed: %s %s", r.Code, r.Err)
	}
	if len(info.Migrations) != 0 {
		t.Fatalf("current-version save migrated: %v", info.Migrations)
	}
	got, err := loaded.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if got != want {
		t.Fatalf("round trip changed the state:\nsaved  %s\nloaded %s", want, got)
	}
}

func TestSavePayloadIsDetachedFromTheLiveState(t *testing.T) {
	s := newTestSim(321)
	payload, err := s.SaveGame(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	goldAtSave := payload.State.Gold
	aleAtSave := payload.State.Inventory[ItemAle]

	s.state.Gold += 250
	s.state.Inventory[ItemAle] += 5

	if payload.State.Gold != goldAtSave {
		t.Fatalf("payload gold moved to %.0f with the live sim", payload.State.Gold)
	}
	if payload.State.Inventory[ItemAle] != aleAtSave {
		t.Fatal("payload shares the live inventory map")
	}
}

func TestSaveLoadResumesIdentically(t *testing.T) {
	s := newTestSim(654)
	for day := 0; day < 3; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
	}
	raw, err := s.MarshalSave(time.Now())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, _, r := LoadGame(raw, tuning.Defaults())
	if !r.OK {
		t.Fatalf("load failed: %s %s", r.Code, r.Err)
	}

	// Both copies play the same three further days.
	for day := 0; day < 3; day++ {
		ra := s.AdvanceDay(AdvanceOptions{})
		rb := loaded.AdvanceDay(AdvanceOptions{})
		if !ra.OK || !rb.OK {
			t.Fatalf("day %d: original ok=%v, loaded ok=%v", day, ra.OK, rb.OK)
		}
	}
	sa, err := s.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	sb, err := loaded.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sa != sb {
		t.Fatal("loaded copy diverged from the original")
	}
}

func TestLoadMigratesVersionZero(t *testing.T) {
	// A version-0 document was the bare state with no envelope.
	doc := map[string]any{
		"day":  9,
		"gold": 140.0,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	loaded, info, r := LoadGame(raw, tuning.Defaults())
	if !r.OK {
		t.Fatalf("load failed: %s %s", r.Code, r.Err)
	}
	if len(info.Migrations) != 1 || info.Migrations[0] != "0->1" {
		t.Fatalf("migrations = %v, want [0->1]", info.Migrations)
	}
	st := loaded.State()
	if st.Day != 9 {
		t.Fatalf("day = %d, want 9", st.Day)
	}
	if st.Gold != 140 {
		t.Fatalf("gold = %.0f, want 140", st.Gold)
	}
	// Gaps fill with fresh-game defaults.
	if len(st.Staff) == 0 {
		t.Fatal("staff roster not defaulted")
	}
	if st.Prices[ItemAle] < 1 {
		t.Fatal("prices not defaulted")
	}
	if loaded.RNG().Seeded() {
		t.Fatal("version-0 save should load with system randomness")
	}
	if st.Manager.Phase != PhasePlanning {
		t.Fatalf("phase = %s, want planning", st.Manager.Phase)
	}
	if st.Manager.DayInWeek != (9-1)%7+1 {
		t.Fatalf("dayInWeek = %d, want re-derived", st.Manager.DayInWeek)
	}
}

func TestLoadRefusesNewerVersion(t *testing.T) {
	raw := []byte(`{"version": 99, "state": {}}`)
	_, _, r := LoadGame(raw, tuning.Defaults())
	if r.OK {
		t.Fatal("newer save accepted")
	}
	if r.Code != protocol.ErrSaveVersion {
		t.Fatalf("code = %s, want %s", r.Code, protocol.ErrSaveVersion)
	}
}

func TestLoadRefusesMalformedDocuments(t *testing.T) {
	for _, raw := range []string{`[]`, `"nope"`, `{"version": 1, "state": 7}`} {
		_, _, r := LoadGame([]byte(raw), tuning.Defaults())
		if r.OK {
			t.Fatalf("accepted %s", raw)
		}
		if r.Code != protocol.ErrSaveShape {
			t.Fatalf("%s: code = %s, want %s", raw, r.Code, protocol.ErrSaveShape)
		}
	}
}

func TestLoadClearsInFlightBoundary(t *testing.T) {
	s := newTestSim(11)
	s.state.Timeflow.InProgress = true
	s.state.Timeflow.CurrentTrigger = TriggerManualSkip
	raw, err := s.MarshalSave(time.Now())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, _, r := LoadGame(raw, tuning.Defaults())
	if !r.OK {
		t.Fatalf("load failed: %s %s", r.Code, r.Err)
	}
	if loaded.State().Timeflow.InProgress {
		t.Fatal("boundary lock survived the load")
	}
}

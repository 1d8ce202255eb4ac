package tavern

import (
	"encoding/json"
	"fmt"
	"time"

	"emberhall/internal/protocol"
	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tuning"
)

// Save and restore. A save is a versioned JSON envelope holding the random
// stream snapshot and the full game state. Loading tolerates older envelopes
// by migrating them forward and filling any gaps from a fresh-game template,
// so fields added after a save was written come back with sane defaults and
// unknown fields survive the round trip untouched.

const SaveVersion = 1

type SavePayload struct {
	Version int          `json:"version"`
	SavedAt string       `json:"savedAt,omitempty"`
	Random  rng.Snapshot `json:"random"`
	State   *State       `json:"state"`
}

// LoadInfo reports what loading had to do to the envelope.
type LoadInfo struct {
	Migrations []string `json:"migrations,omitempty"`
}

// SaveGame captures the current game as a versioned envelope. Boundary-exempt:
// saving never mutates the sim. The state is a deep copy, so a caller holding
// the payload does not see the sim's later mutations.
func (s *Sim) SaveGame(now time.Time) (SavePayload, error) {
	st, err := cloneState(s.state)
	if err != nil {
		return SavePayload{}, fmt.Errorf("clone state: %w", err)
	}
	return SavePayload{
		Version: SaveVersion,
		SavedAt: now.UTC().Format(time.RFC3339),
		Random:  s.rng.Snapshot(),
		State:   st,
	}, nil
}

// MarshalSave renders the envelope as JSON.
func (s *Sim) MarshalSave(now time.Time) ([]byte, error) {
	payload, err := s.SaveGame(now)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal save: %w", err)
	}
	return data, nil
}

func cloneState(st *State) (*State, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	out := &State{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadGame restores a sim from a save envelope. Envelopes older than the
// current version are migrated in place; newer ones are refused.
func LoadGame(raw []byte, tun tuning.Tuning) (*Sim, LoadInfo, Result) {
	var info LoadInfo

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, info, fail(protocol.ErrSaveShape, "save is not a JSON object: "+err.Error())
	}

	version := 0
	if v, isNum := envelope["version"].(float64); isNum {
		version = int(v)
	}
	if version > SaveVersion {
		return nil, info, fail(protocol.ErrSaveVersion, fmt.Sprintf("save version %d is newer than supported version %d", version, SaveVersion))
	}
	for version < SaveVersion {
		migrateSave(envelope, version)
		info.Migrations = append(info.Migrations, fmt.Sprintf("%d->%d", version, version+1))
		version++
	}
	envelope["version"] = version

	stateMap, isObj := envelope["state"].(map[string]any)
	if !isObj {
		return nil, info, fail(protocol.ErrSaveShape, "save has no state object")
	}

	// Fill gaps from a fresh-game template. The template controller is fixed
	// so loading the same bytes always yields the same sim.
	template := New(tun, rng.NewSeeded(1))
	templateMap, err := toJSONMap(template.state)
	if err != nil {
		return nil, info, fail(protocol.ErrSaveShape, "template render failed: "+err.Error())
	}
	mergeDefaults(stateMap, templateMap)

	merged, err := json.Marshal(stateMap)
	if err != nil {
		return nil, info, fail(protocol.ErrSaveShape, "merged state render failed: "+err.Error())
	}
	st := &State{}
	if err := json.Unmarshal(merged, st); err != nil {
		return nil, info, fail(protocol.ErrSaveShape, "state does not fit the schema: "+err.Error())
	}
	normalizeLoadedState(st, tun)

	ctrl := rng.New()
	if snapMap, isObj := envelope["random"].(map[string]any); isObj {
		snapRaw, _ := json.Marshal(snapMap)
		var snap rng.Snapshot
		if err := json.Unmarshal(snapRaw, &snap); err == nil {
			ctrl.Restore(snap)
		}
	}

	s := &Sim{rng: ctrl, tun: tun, autoPrepare: true}
	s.state = st
	return s, info, okRes()
}

// migrateSave lifts an envelope one version step.
func migrateSave(envelope map[string]any, from int) {
	switch from {
	case 0:
		// Version 0 predates the envelope: the whole document was the state
		// and there was no random snapshot. Wrap it and default to system
		// randomness.
		if _, hasState := envelope["state"]; !hasState {
			state := map[string]any{}
			for k, v := range envelope {
				if k != "version" {
					state[k] = v
					delete(envelope, k)
				}
			}
			envelope["state"] = state
		}
		if _, hasRandom := envelope["random"]; !hasRandom {
			envelope["random"] = map[string]any{"mode": string(rng.ModeSystem)}
		}
	}
}

// mergeDefaults recursively copies template keys the save lacks. Keys the
// save has, including ones the template knows nothing about, are preserved.
func mergeDefaults(dst, template map[string]any) {
	for key, tv := range template {
		dv, present := dst[key]
		if !present || dv == nil {
			dst[key] = tv
			continue
		}
		dm, dstIsMap := dv.(map[string]any)
		tm, tmplIsMap := tv.(map[string]any)
		if dstIsMap && tmplIsMap {
			mergeDefaults(dm, tm)
		}
	}
}

// normalizeLoadedState re-derives bookkeeping that older saves may carry in
// a stale or empty shape.
func normalizeLoadedState(st *State, tun tuning.Tuning) {
	if st.Day < 1 {
		st.Day = 1
	}
	if st.Timeflow.ResolvedKeys == nil {
		st.Timeflow.ResolvedKeys = map[string]bool{}
	}
	if st.Timeflow.CadenceLocks == nil {
		st.Timeflow.CadenceLocks = map[string]CadenceLock{}
	}
	// A save written mid-boundary never resumes mid-boundary.
	st.Timeflow.InProgress = false
	st.Timeflow.CurrentTrigger = ""
	if st.Manager.Phase != PhasePlanning && st.Manager.Phase != PhaseExecution && st.Manager.Phase != PhaseWeekClose {
		st.Manager.Phase = PhasePlanning
	}
	if st.Manager.WeekIndex < 1 {
		st.Manager.WeekIndex = (st.Day-1)/7 + 1
	}
	// DayInWeek is derived from Day everywhere else; stale saves get it
	// recomputed rather than trusted.
	st.Manager.DayInWeek = (st.Day-1)%7 + 1
	if st.Inventory == nil {
		st.Inventory = map[string]int{}
	}
	if st.SupplyStats == nil {
		st.SupplyStats = map[string]SupplyStat{}
	}
	if st.Prices == nil {
		st.Prices = map[string]int{}
	}
	for item, base := range priceBaselines {
		if st.Prices[item] < 1 {
			st.Prices[item] = base
		}
	}
	if limit := tun.EventLogCap; len(st.Log) > limit {
		st.Log = st.Log[:limit]
	}
}

func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Package tuning loads the operational knobs of a simulation run. Gameplay
// balance constants pinned by regression fixtures live in the engine itself;
// tuning covers what an operator may vary between deployments without
// breaking scenario signatures.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	StartingGold    float64 `yaml:"starting_gold"`
	PatronPoolSize  int     `yaml:"patron_pool_size"`
	EventLogCap     int     `yaml:"event_log_cap"`
	CommandBoardCap int     `yaml:"command_board_cap"`
	CrownHistoryCap int     `yaml:"crown_history_cap"`

	CrownCadenceDays int     `yaml:"crown_cadence_days"`
	CrownTaxRate     float64 `yaml:"crown_tax_rate"`
	CrownTaxFlat     float64 `yaml:"crown_tax_flat"`

	MinuteMsPerTick   int `yaml:"minute_ms_per_tick"`
	AnalyticsWindow   int `yaml:"analytics_window_days"`
	SnapshotEveryDays int `yaml:"snapshot_every_days"`

	SaveDir string `yaml:"save_dir"`
}

// Defaults returns the tuning a fresh game uses when no tuning.yaml is given.
func Defaults() Tuning {
	return Tuning{
		StartingGold:      320,
		PatronPoolSize:    56,
		EventLogCap:       180,
		CommandBoardCap:   40,
		CrownHistoryCap:   36,
		CrownCadenceDays:  7,
		CrownTaxRate:      0.08,
		CrownTaxFlat:      6,
		MinuteMsPerTick:   250,
		AnalyticsWindow:   28,
		SnapshotEveryDays: 7,
		SaveDir:           "data/saves",
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t.withFloors(), nil
}

func (t Tuning) withFloors() Tuning {
	d := Defaults()
	if t.PatronPoolSize < 8 {
		t.PatronPoolSize = d.PatronPoolSize
	}
	if t.EventLogCap < 20 {
		t.EventLogCap = d.EventLogCap
	}
	if t.CommandBoardCap < 10 {
		t.CommandBoardCap = d.CommandBoardCap
	}
	if t.CrownHistoryCap < 6 {
		t.CrownHistoryCap = d.CrownHistoryCap
	}
	if t.CrownCadenceDays < 1 {
		t.CrownCadenceDays = d.CrownCadenceDays
	}
	if t.AnalyticsWindow < 7 {
		t.AnalyticsWindow = d.AnalyticsWindow
	}
	return t
}

package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
)

func TestSchemas_ValidateEngineOutput(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, raw []byte) {
		t.Helper()
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("unmarshal sample: %v", err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	saveSchema := compile("save.schema.json")
	reportSchema := compile("report.schema.json")

	sim := tavern.New(tuning.Defaults(), rng.NewSeeded(77))
	for i := 0; i < 9; i++ {
		if res := sim.AdvanceDay(tavern.AdvanceOptions{}); !res.OK {
			t.Fatalf("advance day %d: %s %s", i+1, res.Code, res.Err)
		}
	}

	raw, err := sim.MarshalSave(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("marshal save: %v", err)
	}
	validate(saveSchema, raw)

	rep := sim.State().LastReport
	if rep == nil {
		t.Fatalf("expected a report after nine days")
	}
	rawRep, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	validate(reportSchema, rawRep)
}

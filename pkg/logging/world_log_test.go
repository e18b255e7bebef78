package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

func TestWorldWarningsCarryRunCorrelation(t *testing.T) {
	t.Setenv("PHYS2D_LOG_LEVEL", "")
	var buf bytes.Buffer
	w, err := physics.NewWorld(physics.DefaultSettings(), nil, logging.NewLoggerWithWriter(&buf))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	w.SetLogContext(logging.WithCorrelationID(context.Background(), "run-42"))

	w.Step(math.NaN())
	w.Advance(-1)

	var entries []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var e map[string]any
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("log output is not JSON: %v", err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(entries), entries)
	}
	for _, e := range entries {
		if e["correlation_id"] != "run-42" || e["level"] != "WARN" {
			t.Errorf("entry = %v", e)
		}
	}
	if entries[0]["dt"] != "NaN" {
		t.Errorf("dt = %v, want NaN", entries[0]["dt"])
	}
	if entries[1]["elapsed"] != float64(-1) {
		t.Errorf("elapsed = %v, want -1", entries[1]["elapsed"])
	}
}

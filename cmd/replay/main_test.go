package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	persistlog "antfarm.ai/internal/persistence/log"
	"antfarm.ai/internal/sim/tuning"
	"antfarm.ai/internal/sim/world"
)

func replayTuning() tuning.Tuning {
	tune := tuning.Defaults()
	tune.Seed = 5
	tune.Width = 40
	tune.Height = 30
	tune.HomeSize = 6
	tune.ObstacleDensity = 0.05
	return tune
}

func newWorld(t *testing.T, tune tuning.Tuning) *world.World {
	t.Helper()
	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

// recordRun writes 200 ticks of a world with a few edits and reads the log back.
func recordRun(t *testing.T) []world.TickLogEntry {
	t.Helper()
	dir := t.TempDir()
	w := newWorld(t, replayTuning())
	tl := persistlog.NewTickLogger(dir)
	w.SetTickLogger(tl)
	for i := 0; i < 200; i++ {
		var edits []world.EditRequest
		if i == 15 {
			edits = []world.EditRequest{{Op: world.EditPlaceObstacle, X: 20, Y: 20}, {Op: world.EditPlaceObstacle, X: 21, Y: 20}}
		}
		if i == 90 {
			edits = []world.EditRequest{{Op: world.EditRemoveObstacle, X: 20, Y: 20}}
		}
		w.StepOnce(edits)
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := persistlog.Files(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) == 0 {
		t.Fatalf("files: %v %v", files, err)
	}
	var out []world.TickLogEntry
	for _, f := range files {
		err := persistlog.ReadLines(f, func(line []byte) error {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	return out
}

func TestReplayTick_MatchesRecordedRun(t *testing.T) {
	entries := recordRun(t)
	if len(entries) == 0 || entries[0].Tick != 0 || len(entries[0].Spawns) == 0 {
		t.Fatalf("expected the initial spawns in the first entry")
	}

	w := newWorld(t, replayTuning())
	sum := newSummary()
	for _, e := range entries {
		sum.add(e)
		if err := replayTick(w, e); err != nil {
			t.Fatalf("replay: %v", err)
		}
	}
	if sum.edits != 3 {
		t.Fatalf("edits: got %d want 3", sum.edits)
	}
	if len(sum.stats) == 0 {
		t.Fatalf("no colony stats summarized")
	}
}

func TestReplayTick_DetectsTampering(t *testing.T) {
	entries := recordRun(t)
	entries[0].Spawns = entries[0].Spawns[1:]

	w := newWorld(t, replayTuning())
	if err := replayTick(w, entries[0]); err == nil {
		t.Fatalf("expected digest mismatch")
	}
}

func TestReplayTick_DetectsWrongSeed(t *testing.T) {
	entries := recordRun(t)
	tune := replayTuning()
	tune.Seed = 6

	w := newWorld(t, tune)
	var err error
	for _, e := range entries {
		if err = replayTick(w, e); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatalf("expected a mismatch with a different seed")
	}
}

func TestReplayTick_ReportsTickMismatch(t *testing.T) {
	entries := recordRun(t)
	w := newWorld(t, replayTuning())
	for i := 0; i < 5; i++ {
		w.StepOnce(nil)
	}

	err := replayTick(w, entries[0])
	want := fmt.Sprintf("tick mismatch: want=%d got=%d", entries[0].Tick, w.CurrentTick())
	if err == nil || err.Error() != want {
		t.Fatalf("got %v, want %q", err, want)
	}
}

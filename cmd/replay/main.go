package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"antfarm.ai/internal/persistence/indexdb"
	persistlog "antfarm.ai/internal/persistence/log"
	"antfarm.ai/internal/sim/tuning"
	"antfarm.ai/internal/sim/world"
)

func main() {
	var (
		eventsDir  = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		dbPath     = flag.String("db", "", "sqlite index (optional; supplies tuning and latest stats)")
		tuningPath = flag.String("tuning", "", "tuning.yaml to replay with when -db is not given")
		seed       = flag.Int64("seed", 0, "world seed override")
		verify     = flag.Bool("verify", false, "re-run the world and compare every logged tick")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	files, err := persistlog.Files(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var (
		tune    tuning.Tuning
		haveTun bool
	)
	if *dbPath != "" {
		db, err := indexdb.OpenReader(*dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
		ctx := context.Background()
		if t, err := indexdb.ReadTuning(ctx, db); err == nil {
			tune, haveTun = t, true
		} else {
			fmt.Fprintln(os.Stderr, "read tuning:", err)
		}
		if stats, err := indexdb.LatestColonyStats(ctx, db); err == nil {
			for _, st := range stats {
				fmt.Printf("index colony=%d agents=%d workers=%d soldiers=%d queens=%d raiders=%d stored=%.2f carried=%.2f\n",
					st.Colony, st.Agents, st.Workers, st.Soldiers, st.Queens, st.Raiders, st.StoredFood, st.CarriedFood)
			}
		}
		_ = db.Close()
	}
	if !haveTun && *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune, haveTun = t, true
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	var w *world.World
	if *verify {
		if !haveTun {
			fmt.Fprintln(os.Stderr, "-verify needs -db or -tuning")
			os.Exit(2)
		}
		if tune.Seed == 0 {
			fmt.Fprintln(os.Stderr, "-verify needs a non-zero seed")
			os.Exit(2)
		}
		cfg, err := world.ConfigFromTuning(tune)
		if err != nil {
			fmt.Fprintln(os.Stderr, "tuning:", err)
			os.Exit(1)
		}
		if w, err = world.New(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
	}

	sum := newSummary()
	for _, path := range files {
		err := persistlog.ReadLines(path, func(line []byte) error {
			var entry world.TickLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if *toTick != 0 && entry.Tick > *toTick {
				return errStop
			}
			sum.add(entry)
			if w != nil {
				return replayTick(w, entry)
			}
			return nil
		})
		if err == errStop {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	sum.print()
	if w != nil {
		fmt.Printf("replay ok: checked=%d ticks (last tick=%d)\n", sum.ticks, sum.lastTick)
	}
}

var errStop = fmt.Errorf("stop")

// replayTick steps w up to entry.Tick and compares the produced entry. Ticks
// between two logged entries must be quiet.
func replayTick(w *world.World, entry world.TickLogEntry) error {
	for w.CurrentTick() < entry.Tick {
		got := w.StepOnce(nil)
		if eventful(got) {
			return fmt.Errorf("tick %d: replay produced events but none were logged", got.Tick)
		}
	}
	if w.CurrentTick() != entry.Tick {
		return fmt.Errorf("tick mismatch: want=%d got=%d", entry.Tick, w.CurrentTick())
	}

	edits := make([]world.EditRequest, 0, len(entry.Edits))
	for _, e := range entry.Edits {
		edits = append(edits, world.EditRequest{Op: e.Op, X: e.X, Y: e.Y})
	}
	got := w.StepOnce(edits)

	gotDigest, err := entryDigest(got)
	if err != nil {
		return err
	}
	wantDigest, err := entryDigest(entry)
	if err != nil {
		return err
	}
	if gotDigest != wantDigest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", entry.Tick, gotDigest, wantDigest)
	}
	return nil
}

func eventful(e world.TickLogEntry) bool {
	return len(e.Spawns) > 0 || len(e.Deaths) > 0 || len(e.Edits) > 0 || len(e.Faults) > 0 || len(e.Stats) > 0
}

func entryDigest(e world.TickLogEntry) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

type summary struct {
	ticks    uint64
	lastTick uint64
	spawns   map[string]int
	deaths   map[string]int
	edits    int
	refused  int
	faults   []string
	stats    map[int]world.ColonyStats
}

func newSummary() *summary {
	return &summary{
		spawns: map[string]int{},
		deaths: map[string]int{},
		stats:  map[int]world.ColonyStats{},
	}
}

func (s *summary) add(e world.TickLogEntry) {
	s.ticks++
	s.lastTick = e.Tick
	for _, a := range e.Spawns {
		s.spawns[a.Role]++
	}
	for _, a := range e.Deaths {
		s.deaths[a.Cause]++
	}
	for _, ed := range e.Edits {
		s.edits++
		if !ed.OK {
			s.refused++
		}
	}
	s.faults = append(s.faults, e.Faults...)
	for _, st := range e.Stats {
		s.stats[st.Colony] = st
	}
}

func (s *summary) print() {
	fmt.Printf("events ticks=%d last_tick=%d edits=%d refused=%d faults=%d\n", s.ticks, s.lastTick, s.edits, s.refused, len(s.faults))
	for _, k := range sortedKeys(s.spawns) {
		fmt.Printf("spawns role=%s n=%d\n", k, s.spawns[k])
	}
	for _, k := range sortedKeys(s.deaths) {
		fmt.Printf("deaths cause=%s n=%d\n", k, s.deaths[k])
	}
	ids := make([]int, 0, len(s.stats))
	for id := range s.stats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		st := s.stats[id]
		fmt.Printf("colony=%d agents=%d workers=%d soldiers=%d queens=%d raiders=%d stored=%.2f carried=%.2f\n",
			st.Colony, st.Agents, st.Workers, st.Soldiers, st.Queens, st.Raiders, st.StoredFood, st.CarriedFood)
	}
	for i, f := range s.faults {
		if i == 10 {
			fmt.Printf("... %d more faults\n", len(s.faults)-10)
			break
		}
		fmt.Printf("fault %s\n", f)
	}
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

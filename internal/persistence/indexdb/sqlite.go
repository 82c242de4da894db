package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"antfarm.ai/internal/sim/tuning"
	"antfarm.ai/internal/sim/world"
)

const schemaVersion = "1"

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTickTotal atomic.Uint64
}

type req struct {
	tick world.TickLogEntry
}

// Stats reports queue pressure on the async writer.
type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			spawns INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			edits INTEGER NOT NULL,
			faults INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS colony_stats (
			tick INTEGER NOT NULL,
			colony INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			soldiers INTEGER NOT NULL,
			queens INTEGER NOT NULL,
			raiders INTEGER NOT NULL,
			stored_food REAL NOT NULL,
			carried_food REAL NOT NULL,
			PRIMARY KEY (tick, colony)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_colony_stats_colony_tick ON colony_stats(colony, tick);`,
		`CREATE TABLE IF NOT EXISTS agent_events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			agent_id INTEGER NOT NULL,
			colony INTEGER NOT NULL,
			role TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			cause TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_events_agent ON agent_events(agent_id, tick);`,
		`CREATE TABLE IF NOT EXISTS edits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			op TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick enqueues an eventful tick. Quiet ticks are not indexed.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	if len(entry.Spawns) == 0 && len(entry.Deaths) == 0 && len(entry.Edits) == 0 && len(entry.Faults) == 0 && len(entry.Stats) == 0 {
		return nil
	}
	select {
	case s.ch <- req{tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTickTotal.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTickTotal.Load(),
	}
}

// UpsertTuning stores the values the world actually runs with (canonical JSON).
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", schemaVersion},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
		{"updated_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,spawns,deaths,edits,faults,raw_json) VALUES(?,?,?,?,?,?)`)
	insertStats, _ := s.db.Prepare(`INSERT OR REPLACE INTO colony_stats(tick,colony,agents,workers,soldiers,queens,raiders,stored_food,carried_food) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO agent_events(tick,seq,kind,agent_id,colony,role,x,y,cause) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertEdit, _ := s.db.Prepare(`INSERT OR REPLACE INTO edits(tick,seq,op,x,y,ok) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertStats, insertEvent, insertEdit} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		e := r.tick
		tick := int64(e.Tick)
		raw, _ := json.Marshal(e)
		if !exec(insertTick, tick, len(e.Spawns), len(e.Deaths), len(e.Edits), len(e.Faults), string(raw)) {
			continue
		}
		for _, st := range e.Stats {
			if !exec(insertStats, tick, st.Colony, st.Agents, st.Workers, st.Soldiers, st.Queens, st.Raiders, st.StoredFood, st.CarriedFood) {
				break
			}
		}
		seq := 0
		writeEvents := func(kind string, evs []world.AgentEvent) {
			for _, ev := range evs {
				if !exec(insertEvent, tick, seq, kind, int64(ev.AgentID), ev.Colony, ev.Role, ev.Pos[0], ev.Pos[1], ev.Cause) {
					return
				}
				seq++
			}
		}
		writeEvents("spawn", e.Spawns)
		writeEvents("death", e.Deaths)
		for i, ed := range e.Edits {
			if !exec(insertEdit, tick, i, ed.Op, ed.X, ed.Y, ed.OK) {
				break
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

// LatestColonyStats returns the most recent stats row of every colony.
func LatestColonyStats(ctx context.Context, db *sql.DB) ([]world.ColonyStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.colony, s.agents, s.workers, s.soldiers, s.queens, s.raiders, s.stored_food, s.carried_food
		FROM colony_stats s
		JOIN (SELECT colony, MAX(tick) AS tick FROM colony_stats GROUP BY colony) last
		  ON last.colony = s.colony AND last.tick = s.tick
		ORDER BY s.colony`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.ColonyStats
	for rows.Next() {
		var st world.ColonyStats
		if err := rows.Scan(&st.Colony, &st.Agents, &st.Workers, &st.Soldiers, &st.Queens, &st.Raiders, &st.StoredFood, &st.CarriedFood); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ReadTuning returns the tuning recorded by the last UpsertTuning.
func ReadTuning(ctx context.Context, db *sql.DB) (tuning.Tuning, error) {
	var raw string
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='tuning'`).Scan(&raw); err != nil {
		return tuning.Tuning{}, err
	}
	var tune tuning.Tuning
	if err := json.Unmarshal([]byte(raw), &tune); err != nil {
		return tuning.Tuning{}, fmt.Errorf("decode tuning: %w", err)
	}
	return tune, nil
}

// OpenReader opens an existing index for queries only.
func OpenReader(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

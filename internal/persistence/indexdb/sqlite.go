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

	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/tuning"
	"motionstack.dev/internal/sim/world"
)

// SQLiteIndex stores the path catalog and a write-behind index of motion
// events. Tick writes never block the world loop.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqFlush
)

type req struct {
	kind reqKind

	tick world.TickLogEntry
	done chan struct{}
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTickTotal uint64
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
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS paths (
			kind TEXT NOT NULL,
			id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			delay_ms INTEGER NOT NULL,
			PRIMARY KEY (kind, id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			events INTEGER NOT NULL,
			informs INTEGER NOT NULL,
			assists INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS motion_events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			unit INTEGER NOT NULL,
			op TEXT NOT NULL,
			type TEXT NOT NULL,
			depth INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_motion_events_unit_tick ON motion_events(unit, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_motion_events_type_op ON motion_events(type, op);`,
		`CREATE TABLE IF NOT EXISTS informs (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			unit INTEGER NOT NULL,
			type TEXT NOT NULL,
			inform_id INTEGER NOT NULL,
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

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; the JSONL journal remains the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

// Flush blocks until every tick queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
	}
}

// UpsertCatalogs records the catalog and tuning digests and replaces the
// stored paths with the catalog ones.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("creatures", filepath.Join(configDir, "creatures.json"))
		read("paths", filepath.Join(configDir, "paths.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["creatures"]; len(b) > 0 {
		rows = append(rows, kv{name: "creatures", digest: cats.Creatures.Digest, json: b})
	}
	if b := raw["paths"]; len(b) > 0 {
		rows = append(rows, kv{name: "paths", digest: cats.Paths.Digest, json: b})
	}
	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	if err := replacePaths(tx, cats.Paths); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,commands,events,informs,assists,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO motion_events(tick,seq,unit,op,type,depth) VALUES(?,?,?,?,?,?)`)
	insertInform, _ := s.db.Prepare(`INSERT OR REPLACE INTO informs(tick,seq,unit,type,inform_id) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertEvent, insertInform} {
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

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		e := r.tick
		tick := int64(e.Tick)
		b, _ := json.Marshal(e)
		if insertTick != nil {
			if _, err := tx.Stmt(insertTick).Exec(
				tick,
				e.Digest,
				len(e.Commands),
				len(e.Events),
				len(e.Informs),
				len(e.Assists),
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		for i, ev := range e.Events {
			if insertEvent == nil {
				break
			}
			if _, err := tx.Stmt(insertEvent).Exec(tick, i, int64(ev.Unit), string(ev.Op), ev.Name, ev.Depth); err != nil {
				rollback()
				break
			}
			opCount++
		}
		for i, in := range e.Informs {
			if insertInform == nil || tx == nil {
				break
			}
			if _, err := tx.Stmt(insertInform).Exec(tick, i, int64(in.Unit), in.Type, int64(in.ID)); err != nil {
				rollback()
				break
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}

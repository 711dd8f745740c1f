package indexdb

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/motion"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
	"motionstack.dev/internal/sim/world"
)

const configDir = "../../../configs"

func openTemp(t *testing.T) *SQLiteIndex {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "motion.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUpsertCatalogs_SeedsPaths(t *testing.T) {
	s := openTemp(t)
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if err := s.UpsertCatalogs(configDir, cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	// Upserting twice replaces rather than duplicates.
	if err := s.UpsertCatalogs(configDir, cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs again: %v", err)
	}

	ctx := context.Background()
	set, err := s.LoadPaths(ctx)
	if err != nil {
		t.Fatalf("LoadPaths: %v", err)
	}
	if set.Len() != len(cats.Paths.Waypoints)+len(cats.Paths.Taxi) {
		t.Fatalf("paths=%d", set.Len())
	}
	for id, want := range cats.Paths.Waypoints {
		got, ok := set.WaypointPath(id)
		if !ok || len(got) != len(want) {
			t.Fatalf("waypoint %d: got %d nodes want %d", id, len(got), len(want))
		}
		for i := range want {
			if got[i].Pos != want[i].Vec() || got[i].DelayMs != want[i].DelayMs {
				t.Fatalf("waypoint %d node %d: %+v vs %+v", id, i, got[i], want[i])
			}
		}
	}
	for id, want := range cats.Paths.Taxi {
		got, ok := set.TaxiPath(id)
		if !ok || len(got) != len(want) {
			t.Fatalf("taxi %d: got %d nodes want %d", id, len(got), len(want))
		}
	}
	if _, ok := set.WaypointPath(9999); ok {
		t.Fatalf("unknown path found")
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("catalog rows=%d want 3", n)
	}
}

func TestWriteTick_IndexesEvents(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries := []world.TickLogEntry{
		{Tick: 1, Digest: "a", Events: []motion.Event{
			{Unit: 5, Op: motion.OpInterrupt, Name: "RANDOM", Depth: 1},
			{Unit: 5, Op: motion.OpPush, Name: "CHASE", Depth: 2},
		}},
		{Tick: 2, Digest: "b"},
		{Tick: 3, Digest: "c", Events: []motion.Event{
			{Unit: 5, Op: motion.OpFinalize, Name: "CHASE", Depth: 2},
			{Unit: 6, Op: motion.OpPush, Name: "CHASE", Depth: 2},
		}, Informs: []world.Inform{{Unit: 5, Type: "POINT", ID: 4}}},
	}
	for _, e := range entries {
		if err := s.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	last, ok, err := s.LastTick(ctx)
	if err != nil || !ok || last != 3 {
		t.Fatalf("LastTick=%d ok=%v err=%v", last, ok, err)
	}

	counts, err := s.TransitionCounts(ctx)
	if err != nil {
		t.Fatalf("TransitionCounts: %v", err)
	}
	got := map[string]int{}
	for _, c := range counts {
		got[c.Type+"/"+c.Op] = c.Count
	}
	if got["CHASE/PUSH"] != 2 || got["CHASE/FINALIZE"] != 1 || got["RANDOM/INTERRUPT"] != 1 || len(got) != 3 {
		t.Fatalf("counts=%v", got)
	}

	evs, err := s.UnitEvents(ctx, 5, 2)
	if err != nil {
		t.Fatalf("UnitEvents: %v", err)
	}
	if len(evs) != 2 || evs[0].Tick != 3 || evs[0].Op != "FINALIZE" || evs[1].Op != "PUSH" {
		t.Fatalf("events=%+v", evs)
	}

	var informs int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM informs`).Scan(&informs); err != nil || informs != 1 {
		t.Fatalf("informs=%d err=%v", informs, err)
	}
}

func TestLastTick_Empty(t *testing.T) {
	s := openTemp(t)
	if _, ok, err := s.LastTick(context.Background()); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestWriteTick_DropsWhenQueueFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	_ = s.WriteTick(world.TickLogEntry{Tick: 1})
	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	_ = s.WriteTick(world.TickLogEntry{Tick: 3})

	st := s.Stats()
	if st.DropTickTotal != 2 {
		t.Fatalf("DropTickTotal=%d want=2", st.DropTickTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestClosedIndexIgnoresWrites(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "motion.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.WriteTick(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("WriteTick after close: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPathSet_DrivesWaypointDefault(t *testing.T) {
	s := openTemp(t)
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if err := s.UpsertCatalogs(configDir, cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	set, err := s.LoadPaths(context.Background())
	if err != nil {
		t.Fatalf("LoadPaths: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "t"}, world.Options{
		Tuning:   tuning.Defaults(),
		Catalogs: cats,
		Paths:    set,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.AddTickSink(s)
	u, err := w.Spawn(world.SpawnSpec{ID: 1, Kind: movegen.KindCreature, Entry: 1002})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if got := u.Master().CurrentType(); got != movegen.TypeWaypoint {
		t.Fatalf("default motion %s", got)
	}
	for i := 0; i < 5; i++ {
		w.StepOnce(nil)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	last, ok, err := s.LastTick(context.Background())
	if err != nil || !ok || last != 4 {
		t.Fatalf("LastTick=%d ok=%v err=%v", last, ok, err)
	}
}

package world

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/chewxy/math32"

	"motionstack.dev/internal/observerproto"
	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/motion"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
)

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Creatures: catalogs.CreatureCatalog{ByEntry: map[uint32]catalogs.CreatureDef{
			1: {Entry: 1, Name: "wolf", DefaultMotion: "random", WanderDistance: 4},
			2: {Entry: 2, Name: "guard", DefaultMotion: "waypoint", PathID: 1},
			3: {Entry: 3, Name: "rock"},
		}},
		Paths: catalogs.PathCatalog{
			Waypoints: map[uint32][]catalogs.PathNode{1: {{Pos: [3]float32{5, 0, 0}}, {Pos: [3]float32{5, 5, 0}}}},
			Taxi:      map[uint32][]catalogs.PathNode{1: {{Pos: [3]float32{0, 0, 10}}, {Pos: [3]float32{30, 0, 10}}}},
		},
	}
}

type recordingSink struct {
	entries []TickLogEntry
	err     error
}

func (s *recordingSink) WriteTick(e TickLogEntry) error {
	s.entries = append(s.entries, e)
	return s.err
}

func newTestWorld(t *testing.T) (*World, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(WorldConfig{ID: "test", TickRateHz: 10}, Options{
		Tuning:   tuning.Defaults(),
		Catalogs: testCatalogs(),
		Logger:   log.New(&buf, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, &buf
}

func mustSpawn(t *testing.T, w *World, spec SpawnSpec) *Unit {
	t.Helper()
	u, err := w.Spawn(spec)
	if err != nil {
		t.Fatalf("spawn %d: %v", spec.ID, err)
	}
	return u
}

func stack(u *Unit) string {
	var names []string
	for _, t := range u.Master().Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}

func TestSpawnInstallsTemplateDefault(t *testing.T) {
	w, _ := newTestWorld(t)
	wolf := mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindCreature, Entry: 1})
	guard := mustSpawn(t, w, SpawnSpec{ID: 2, Kind: movegen.KindCreature, Entry: 2})
	rock := mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 3})
	player := mustSpawn(t, w, SpawnSpec{ID: 4, Kind: movegen.KindPlayer, Name: "p"})

	if stack(wolf) != "RANDOM" || stack(guard) != "WAYPOINT" || stack(rock) != "IDLE" || stack(player) != "IDLE" {
		t.Fatalf("stacks: %s %s %s %s", stack(wolf), stack(guard), stack(rock), stack(player))
	}
	if wolf.Name() != "wolf" || w.UnitCount() != 4 {
		t.Fatalf("name=%q count=%d", wolf.Name(), w.UnitCount())
	}
}

func TestSpawnErrors(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer})
	cases := []SpawnSpec{
		{ID: 0, Kind: movegen.KindPlayer},
		{ID: 1, Kind: movegen.KindPlayer},
		{ID: 2, Kind: movegen.KindCreature, Entry: 99},
		{ID: 3, Kind: movegen.KindCreature, Entry: 1, Owner: 42},
	}
	for _, spec := range cases {
		if _, err := w.Spawn(spec); err == nil {
			t.Fatalf("spawn %+v: expected error", spec)
		}
	}
}

func TestFallLandsOnGround(t *testing.T) {
	w, _ := newTestWorld(t)
	rock := mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 3, Pos: [3]float32{1, 1, 10}})

	w.StepOnce([]Command{{Unit: 3, Request: "fall", ID: 5}})
	if stack(rock) != "IDLE,EFFECT" {
		t.Fatalf("stack %s", stack(rock))
	}

	var informs []Inform
	sink := &recordingSink{}
	w.AddTickSink(sink)
	for i := 0; i < 20 && stack(rock) != "IDLE"; i++ {
		w.StepOnce(nil)
	}
	for _, e := range sink.entries {
		informs = append(informs, e.Informs...)
	}
	if stack(rock) != "IDLE" {
		t.Fatalf("still falling: %s", stack(rock))
	}
	if rock.Position().Z() != 0 {
		t.Fatalf("landed at %v", rock.Position())
	}
	if len(informs) != 1 || informs[0].Type != "EFFECT" || informs[0].ID != 5 {
		t.Fatalf("informs %+v", informs)
	}

	// Standing on the ground: nothing to do.
	w.StepOnce([]Command{{Unit: 3, Request: "fall"}})
	if stack(rock) != "IDLE" {
		t.Fatalf("fall on ground pushed %s", stack(rock))
	}
}

func TestChaseClosesDistance(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer, Pos: [3]float32{20, 0, 0}})
	rock := mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 3})

	w.StepOnce([]Command{{Unit: 3, Request: "chase", Target: 1}})
	for i := 0; i < 40; i++ {
		w.StepOnce(nil)
	}
	if d := rock.Position().Sub(w.Unit(1).Position()).Len(); d > 0.01 {
		t.Fatalf("chaser still %v away", d)
	}
	if stack(rock) != "IDLE,CHASE" {
		t.Fatalf("stack %s", stack(rock))
	}

	// The target leaves the world: the chase ends on the next tick.
	w.StepOnce([]Command{{Unit: 1, Request: "despawn"}})
	w.StepOnce(nil)
	if stack(rock) != "IDLE" || w.UnitCount() != 1 {
		t.Fatalf("stack %s count %d", stack(rock), w.UnitCount())
	}
}

// A chase issued over a distract expires the distract together with the chase
// suspended beneath it, so only the new chase remains.
func TestChaseOverDistractReplacesOldChase(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer, Pos: [3]float32{50, 0, 0}})
	rock := mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 3})

	w.StepOnce([]Command{
		{Unit: 3, Request: "chase", Target: 1},
		{Unit: 3, Request: "distract", Ms: 1000},
		{Unit: 3, Request: "chase", Target: 1},
	})
	if stack(rock) != "IDLE,CHASE" {
		t.Fatalf("stack %s", stack(rock))
	}
	if rock.HasState(movegen.StateDistracted) || !rock.HasState(movegen.StateChasing) {
		t.Fatalf("state %b", rock.State())
	}
}

func TestPetTargetedHomeFollowsOwner(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer, Pos: [3]float32{10, 0, 0}})
	pet := mustSpawn(t, w, SpawnSpec{ID: 2, Kind: movegen.KindCreature, Entry: 1, Owner: 1})

	w.StepOnce([]Command{{Unit: 2, Request: "targeted_home"}})
	if stack(pet) != "RANDOM,FOLLOW" {
		t.Fatalf("stack %s", stack(pet))
	}
	if !pet.HasState(movegen.StateFollowing) {
		t.Fatalf("pet should be following")
	}
}

func TestPetTargetedHomeWithDespawnedOwner(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer, Pos: [3]float32{10, 0, 0}})
	pet := mustSpawn(t, w, SpawnSpec{ID: 2, Kind: movegen.KindCreature, Entry: 1, Owner: 1})

	w.StepOnce([]Command{
		{Unit: 2, Request: "distract", Ms: 5000},
		{Unit: 1, Request: "despawn"},
		{Unit: 2, Request: "targeted_home"},
	})
	if stack(pet) != "RANDOM" {
		t.Fatalf("pet without a reachable owner should fall back to its floor, stack %s", stack(pet))
	}
	if !pet.HasCharmerOrOwner() || pet.CharmerOrOwner() != nil {
		t.Fatalf("owner id should survive the despawn")
	}
}

func TestSeekAssistanceRecordsCall(t *testing.T) {
	w, _ := newTestWorld(t)
	rock := mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 3})
	sink := &recordingSink{}
	w.AddTickSink(sink)

	w.StepOnce([]Command{{Unit: 3, Request: "seek_assistance", Pos: [3]float32{3, 0, 0}}})
	if rock.React() != movegen.ReactPassive {
		t.Fatalf("react %v", rock.React())
	}
	for i := 0; i < 10 && stack(rock) != "IDLE,ASSISTANCE_DISTRACT"; i++ {
		w.StepOnce(nil)
	}
	if stack(rock) != "IDLE,ASSISTANCE_DISTRACT" {
		t.Fatalf("stack %s", stack(rock))
	}
	calls := 0
	for _, e := range sink.entries {
		calls += len(e.Assists)
	}
	if calls != 1 {
		t.Fatalf("assist calls %d", calls)
	}
	for i := 0; i < 20; i++ {
		w.StepOnce(nil)
	}
	if stack(rock) != "IDLE" || rock.React() != movegen.ReactAggressive {
		t.Fatalf("stack %s react %v", stack(rock), rock.React())
	}
}

func TestTaxiFlightUsesTaxiSpeed(t *testing.T) {
	w, _ := newTestWorld(t)
	p := mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindCreature, Entry: 3})
	w.StepOnce([]Command{{Unit: 1, Request: "taxi_flight", Path: 1}})
	if stack(p) != "IDLE,FLIGHT" {
		t.Fatalf("stack %s", stack(p))
	}
	// 10 yards up at 32 y/s takes a bit over 3 ticks; 30 more yards about 10.
	for i := 0; i < 20; i++ {
		w.StepOnce(nil)
	}
	if stack(p) != "IDLE" {
		t.Fatalf("flight should be over, stack %s pos %v", stack(p), p.Position())
	}
	if p.Position().X() != 30 {
		t.Fatalf("pos %v", p.Position())
	}
}

func TestCommandErrorsAreLogged(t *testing.T) {
	w, buf := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer})
	w.StepOnce([]Command{
		{Unit: 9, Request: "idle"},
		{Unit: 1, Request: "teleport"},
		{Unit: 1, Request: "seek_assistance"},
	})
	out := buf.String()
	if !strings.Contains(out, ErrUnknownUnit.Error()) || !strings.Contains(out, ErrUnknownRequest.Error()) {
		t.Fatalf("log: %q", out)
	}
	if !strings.Contains(out, "attempt to seek assistance") {
		t.Fatalf("rejection not logged: %q", out)
	}
	if err := w.apply(Command{Unit: 1, Request: "bogus"}); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("err %v", err)
	}
}

func TestRootFreezesStack(t *testing.T) {
	w, _ := newTestWorld(t)
	wolf := mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindCreature, Entry: 1})
	w.StepOnce([]Command{{Unit: 1, Request: "root"}})
	pos := wolf.Position()
	for i := 0; i < 30; i++ {
		w.StepOnce(nil)
	}
	if wolf.Position() != pos {
		t.Fatalf("rooted unit moved from %v to %v", pos, wolf.Position())
	}
	w.StepOnce([]Command{{Unit: 1, Request: "unroot"}, {Unit: 1, Request: "speed", Speed: 12}})
	if wolf.Speed() != 12 {
		t.Fatalf("speed %v", wolf.Speed())
	}
}

func TestClearAllReinitializes(t *testing.T) {
	w, _ := newTestWorld(t)
	wolf := mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindCreature, Entry: 1})
	w.StepOnce([]Command{{Unit: 1, Request: "confused"}, {Unit: 1, Request: "clear", All: true}})
	if stack(wolf) != "RANDOM" {
		t.Fatalf("stack %s", stack(wolf))
	}
}

func TestDeterministicDigests(t *testing.T) {
	run := func() []string {
		w, _ := newTestWorld(t)
		mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer, Pos: [3]float32{8, 8, 0}})
		mustSpawn(t, w, SpawnSpec{ID: 2, Kind: movegen.KindCreature, Entry: 1, Pos: [3]float32{-3, 2, 0}})
		mustSpawn(t, w, SpawnSpec{ID: 3, Kind: movegen.KindCreature, Entry: 2})
		var out []string
		for i := 0; i < 60; i++ {
			var cmds []Command
			if i == 10 {
				cmds = []Command{{Unit: 2, Request: "fleeing", Target: 1, Ms: 2000}}
			}
			_, d := w.StepOnce(cmds)
			out = append(out, d)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d digests differ", i)
		}
	}
	if a[0] == a[len(a)-1] {
		t.Fatalf("digest never changed")
	}
}

func TestTickSinkEntries(t *testing.T) {
	w, buf := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer})
	sink := &recordingSink{err: errors.New("disk full")}
	w.AddTickSink(sink)

	w.StepOnce([]Command{{Unit: 1, Request: "rotate", Ms: 500}})
	w.StepOnce(nil)
	if len(sink.entries) != 2 || sink.entries[0].Tick != 0 || sink.entries[1].Tick != 1 {
		t.Fatalf("entries %+v", sink.entries)
	}
	e := sink.entries[0]
	if len(e.Commands) != 1 || e.Commands[0].Request != "rotate" {
		t.Fatalf("commands %+v", e.Commands)
	}
	var pushed bool
	for _, ev := range e.Events {
		if ev.Op == motion.OpPush && ev.Name == "ROTATE" {
			pushed = true
		}
	}
	if !pushed {
		t.Fatalf("events %+v", e.Events)
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("sink error not logged: %q", buf.String())
	}
}

func TestObserverReceivesFilteredTicks(t *testing.T) {
	w, _ := newTestWorld(t)
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer})
	mustSpawn(t, w, SpawnSpec{ID: 2, Kind: movegen.KindCreature, Entry: 3})

	out := make(chan []byte, 4)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "O1", TickOut: out, Units: []uint64{2}, Events: true})
	w.StepOnce([]Command{{Unit: 2, Request: "point", Pos: [3]float32{4, 0, 0}, ID: 3}})

	var msg observerproto.TickMsg
	if err := json.Unmarshal(<-out, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "TICK" || len(msg.Units) != 1 || msg.Units[0].ID != 2 {
		t.Fatalf("msg %+v", msg)
	}
	u := msg.Units[0]
	if len(u.Stack) != 2 || u.Stack[1] != "POINT" || !u.Moving || u.Dest == nil || u.Dest[0] != 4 {
		t.Fatalf("unit %+v", u)
	}
	if len(msg.Events) == 0 {
		t.Fatalf("expected motion events")
	}

	w.handleObserverLeave("O1")
	if _, ok := <-out; ok {
		// Drain the buffered tick, if any, then expect close.
		if _, ok := <-out; ok {
			t.Fatalf("channel should be closed")
		}
	}
}

func TestRunAppliesInboxAndStops(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(WorldConfig{ID: "run", TickRateHz: 100}, Options{
		Tuning:   tuning.Defaults(),
		Catalogs: testCatalogs(),
		Logger:   log.New(&buf, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustSpawn(t, w, SpawnSpec{ID: 1, Kind: movegen.KindPlayer})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Inbox() <- Command{Unit: 1, Request: "teleport"}
	deadline := time.Now().Add(2 * time.Second)
	for w.CurrentTick() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}
	if w.CurrentTick() < 3 {
		t.Fatalf("world did not tick")
	}
	if !strings.Contains(buf.String(), "teleport") {
		t.Fatalf("inbox command not applied: %q", buf.String())
	}
}

func TestTerrain(t *testing.T) {
	flat := NewTerrain(tuning.Ground{BaseHeight: 2})
	if h, ok := flat.GroundHeight(0, 0, 10, 20); !ok || h != 2 {
		t.Fatalf("flat: %v %v", h, ok)
	}
	if _, ok := flat.GroundHeight(0, 0, 1, 20); ok {
		t.Fatalf("ground above the query point must not be found")
	}
	if _, ok := flat.GroundHeight(0, 0, 100, 20); ok {
		t.Fatalf("ground beyond the search distance must not be found")
	}

	hills := NewTerrain(tuning.Ground{HillAmplitude: 3, HillPeriod: 40})
	if h := hills.HeightAt(10, 0); math32.Abs(h-3) > 1e-4 {
		t.Fatalf("hill top %v", h)
	}
}

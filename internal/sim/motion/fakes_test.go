package motion

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
)

type fakeSpline struct {
	finalized bool
	dest      mgl32.Vec3
	launches  []movegen.Trajectory
}

func (s *fakeSpline) Launch(t movegen.Trajectory) {
	s.launches = append(s.launches, t)
	s.dest = t.Dest
	s.finalized = false
}
func (s *fakeSpline) Finalized() bool              { return s.finalized }
func (s *fakeSpline) FinalDestination() mgl32.Vec3 { return s.dest }

type fakeUnit struct {
	id    uint64
	entry uint32
	kind  movegen.UnitKind
	dead  bool
	state movegen.UnitState

	pos         mgl32.Vec3
	orientation float32
	home        mgl32.Vec3

	ground   float32
	groundOK bool

	stops   int
	leader  movegen.Unit
	// owned marks a leader that is assigned but may not resolve.
	owned   bool
	spline  *fakeSpline
	motion  movegen.Requester
	react   movegen.ReactState
	attacks int
	assists int
	informs []string
}

func newFakeUnit(id uint64, kind movegen.UnitKind) *fakeUnit {
	return &fakeUnit{id: id, entry: 100, kind: kind, spline: &fakeSpline{finalized: true}, react: movegen.ReactAggressive}
}

func (u *fakeUnit) ID() uint64                         { return u.id }
func (u *fakeUnit) Entry() uint32                      { return u.entry }
func (u *fakeUnit) Kind() movegen.UnitKind             { return u.kind }
func (u *fakeUnit) Alive() bool                        { return !u.dead }
func (u *fakeUnit) Position() mgl32.Vec3               { return u.pos }
func (u *fakeUnit) Orientation() float32               { return u.orientation }
func (u *fakeUnit) SetOrientation(o float32)           { u.orientation = o }
func (u *fakeUnit) Home() mgl32.Vec3                   { return u.home }
func (u *fakeUnit) Speed() float32                     { return 7 }
func (u *fakeUnit) HasState(s movegen.UnitState) bool  { return u.state&s != 0 }
func (u *fakeUnit) AddState(s movegen.UnitState)       { u.state |= s }
func (u *fakeUnit) ClearState(s movegen.UnitState)     { u.state &^= s }
func (u *fakeUnit) IsStopped() bool                    { return u.spline.finalized }
func (u *fakeUnit) Spline() movegen.Spline             { return u.spline }
func (u *fakeUnit) Motion() movegen.Requester          { return u.motion }
func (u *fakeUnit) AttackStop()                        { u.attacks++ }
func (u *fakeUnit) SetReactState(r movegen.ReactState) { u.react = r }
func (u *fakeUnit) CallAssistance()                    { u.assists++ }

func (u *fakeUnit) StopMoving() {
	u.stops++
	u.spline.finalized = true
}

func (u *fakeUnit) HasCharmerOrOwner() bool { return u.owned || u.leader != nil }

func (u *fakeUnit) CharmerOrOwner() movegen.Unit {
	if u.leader == nil {
		return nil
	}
	return u.leader
}

func (u *fakeUnit) GroundHeight(x, y, z, maxSearch float32) (float32, bool) {
	return u.ground, u.groundOK
}

func (u *fakeUnit) MovementInform(t movegen.MotionType, id uint32) {
	u.informs = append(u.informs, fmt.Sprintf("%s:%d", t, id))
}

// recGen records every lifecycle call into a shared journal.
type recGen struct {
	name    string
	typ     movegen.MotionType
	journal *[]string

	alive      bool
	onUpdate   func()
	onFinalize func()

	updates, finalizes, interrupts, resets, initializes, disposes, speedChanges int

	finalDistance float32
}

func newRecGen(name string, typ movegen.MotionType, journal *[]string) *recGen {
	return &recGen{name: name, typ: typ, journal: journal, alive: true}
}

func (g *recGen) note(what string) {
	if g.journal != nil {
		*g.journal = append(*g.journal, g.name+"."+what)
	}
}

func (g *recGen) Initialize(movegen.Unit)  { g.initializes++; g.note("init") }
func (g *recGen) Interrupt(movegen.Unit)   { g.interrupts++; g.note("interrupt") }
func (g *recGen) Reset(movegen.Unit)       { g.resets++; g.note("reset") }
func (g *recGen) Type() movegen.MotionType { return g.typ }

func (g *recGen) Update(movegen.Unit, uint32) bool {
	g.updates++
	g.note("update")
	if g.onUpdate != nil {
		g.onUpdate()
	}
	return g.alive
}

func (g *recGen) Finalize(movegen.Unit) {
	g.finalizes++
	g.note("finalize")
	if g.onFinalize != nil {
		g.onFinalize()
	}
}

func (g *recGen) Dispose() {
	g.disposes++
	g.note("dispose")
}

func (g *recGen) SpeedChanged(movegen.Unit) { g.speedChanges++ }

func (g *recGen) UpdateFinalDistance(_ movegen.Unit, d float32) { g.finalDistance = d }

type fakePaths struct {
	waypoints map[uint32][]movegen.PathNode
	taxi      map[uint32][]movegen.PathNode
}

func (p fakePaths) WaypointPath(id uint32) ([]movegen.PathNode, bool) {
	n, ok := p.waypoints[id]
	return n, ok
}

func (p fakePaths) TaxiPath(id uint32) ([]movegen.PathNode, bool) {
	n, ok := p.taxi[id]
	return n, ok
}

type harness struct {
	unit   *fakeUnit
	m      *Master
	logBuf *bytes.Buffer
	events []Event
}

func newHarness(t *testing.T, kind movegen.UnitKind, sel movegen.Selector) *harness {
	t.Helper()
	h := &harness{unit: newFakeUnit(1, kind), logBuf: &bytes.Buffer{}}
	h.m = New(h.unit, Options{
		Selector: sel,
		Paths: fakePaths{
			waypoints: map[uint32][]movegen.PathNode{7: {{Pos: mgl32.Vec3{1, 0, 0}}, {Pos: mgl32.Vec3{2, 0, 0}}}},
			taxi:      map[uint32][]movegen.PathNode{3: {{Pos: mgl32.Vec3{0, 5, 0}}, {Pos: mgl32.Vec3{0, 9, 0}}}},
		},
		Tuning: tuning.Defaults().Motion,
		Logger: log.New(h.logBuf, "", 0),
		Sink:   EventSinkFunc(func(ev Event) { h.events = append(h.events, ev) }),
	})
	h.unit.motion = h.m
	h.m.Initialize()
	return h
}

func (h *harness) logLines() int {
	s := strings.TrimSpace(h.logBuf.String())
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

func (h *harness) types() string {
	ts := h.m.Types()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

func indexOf(journal []string, entry string) int {
	for i, e := range journal {
		if e == entry {
			return i
		}
	}
	return -1
}

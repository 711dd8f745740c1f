package movegen

import "github.com/go-gl/mathgl/mgl32"

// Point walks one spline leg to a fixed destination. It doubles as a charge
// when a speed override is given.
type Point struct {
	id    uint32
	dest  mgl32.Vec3
	speed float32
}

func NewPoint(id uint32, dest mgl32.Vec3, speed float32) *Point {
	return &Point{id: id, dest: dest, speed: speed}
}

func (p *Point) Initialize(u Unit) {
	if !u.IsStopped() {
		u.StopMoving()
	}
	u.AddState(StateRoaming)
	p.launch(u)
}

func (p *Point) launch(u Unit) {
	if u.HasState(StateCannotMove) {
		return
	}
	u.Spline().Launch(Trajectory{Dest: p.dest, Speed: p.speed})
}

func (p *Point) Update(u Unit, _ uint32) bool {
	if u.HasState(StateCannotMove) {
		return true
	}
	return !u.Spline().Finalized()
}

func (p *Point) Finalize(u Unit) {
	u.ClearState(StateRoaming)
	if u.Spline().Finalized() {
		u.MovementInform(TypePoint, p.id)
	}
}

func (p *Point) Interrupt(u Unit) { u.ClearState(StateRoaming) }

func (p *Point) Reset(u Unit) {
	u.AddState(StateRoaming)
	p.launch(u)
}

func (p *Point) Type() MotionType { return TypePoint }

// Destination is the fixed end point of the leg.
func (p *Point) Destination() mgl32.Vec3 { return p.dest }

// Assistance runs to a point and calls for help there. Its Finalize pushes an
// AssistanceDistract onto the stack that is removing it.
type Assistance struct {
	Point
	distractMs uint32
}

func NewAssistance(dest mgl32.Vec3, distractMs uint32) *Assistance {
	return &Assistance{Point: Point{dest: dest}, distractMs: distractMs}
}

func (a *Assistance) Finalize(u Unit) {
	u.ClearState(StateRoaming)
	u.CallAssistance()
	if u.Alive() {
		u.Motion().MoveSeekAssistanceDistract(a.distractMs)
	}
}

func (a *Assistance) Type() MotionType { return TypeAssistance }

// Effect holds the top slot while a spline launched elsewhere (a fall, a
// knockback) plays out.
type Effect struct {
	id uint32
}

func NewEffect(id uint32) *Effect { return &Effect{id: id} }

func (*Effect) Initialize(Unit) {}
func (*Effect) Interrupt(Unit)  {}
func (*Effect) Reset(Unit)      {}

func (*Effect) Update(u Unit, _ uint32) bool { return !u.Spline().Finalized() }

func (e *Effect) Finalize(u Unit) { u.MovementInform(TypeEffect, e.id) }

func (*Effect) Type() MotionType { return TypeEffect }

// Home returns a creature to its home position.
type Home struct {
	arrived bool
}

func NewHome() *Home { return &Home{} }

func (h *Home) Initialize(u Unit) { h.launch(u) }

func (h *Home) launch(u Unit) {
	if u.HasState(StateCannotMove) {
		return
	}
	h.arrived = false
	u.Spline().Launch(Trajectory{Dest: u.Home()})
}

func (h *Home) Update(u Unit, _ uint32) bool {
	h.arrived = u.Spline().Finalized()
	return !h.arrived
}

func (h *Home) Finalize(u Unit) {
	if !h.arrived {
		return
	}
	u.MovementInform(TypeHome, 0)
}

func (*Home) Interrupt(Unit) {}

func (h *Home) Reset(u Unit) { h.launch(u) }

func (*Home) Type() MotionType { return TypeHome }

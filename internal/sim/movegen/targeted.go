package movegen

import (
	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/mathx"
)

// Targeted keeps a unit at offset yards and angle radians from a target. It
// backs both chase and follow.
type Targeted struct {
	kind   MotionType
	target Unit
	offset float32
	angle  float32

	recalc bool
	// lastTarget is the target position used for the running leg.
	lastTarget mgl32.Vec3
}

// NewChase returns a chase generator. A zero offset means melee range.
func NewChase(target Unit, offset, angle float32) *Targeted {
	return &Targeted{kind: TypeChase, target: target, offset: offset, angle: angle}
}

func NewFollow(target Unit, offset, angle float32) *Targeted {
	return &Targeted{kind: TypeFollow, target: target, offset: offset, angle: angle}
}

func (t *Targeted) state() UnitState {
	if t.kind == TypeChase {
		return StateChasing
	}
	return StateFollowing
}

// Target returns the unit being chased or followed.
func (t *Targeted) Target() Unit { return t.target }

func (t *Targeted) Initialize(u Unit) {
	u.AddState(t.state())
	t.recalc = true
	t.travel(u)
}

func (t *Targeted) travel(u Unit) {
	if t.target == nil || u.HasState(StateCannotMove) {
		return
	}
	pos := t.target.Position()
	dest := pos
	if t.offset > 0 {
		dest = mathx.NearPoint(pos, t.offset, t.target.Orientation()+t.angle)
	}
	t.lastTarget = pos
	t.recalc = false
	u.Spline().Launch(Trajectory{Dest: dest})
}

func (t *Targeted) Update(u Unit, _ uint32) bool {
	if t.target == nil || !t.target.Alive() || !u.Alive() {
		return false
	}
	if u.HasState(StateCannotMove) {
		return true
	}
	// Re-path when the target drifted further than the allowed slack.
	slack := t.offset + 0.5
	if mathx.Dist2D(t.lastTarget, t.target.Position()) > slack {
		t.recalc = true
	}
	if t.recalc {
		t.travel(u)
	}
	return true
}

func (t *Targeted) Finalize(u Unit) { u.ClearState(t.state()) }

func (t *Targeted) Interrupt(u Unit) { u.ClearState(t.state()) }

func (t *Targeted) Reset(u Unit) {
	u.AddState(t.state())
	t.recalc = true
	t.travel(u)
}

func (t *Targeted) Type() MotionType { return t.kind }

func (t *Targeted) SpeedChanged(Unit) { t.recalc = true }

func (t *Targeted) UpdateFinalDistance(_ Unit, d float32) {
	t.offset = d
	t.recalc = true
}

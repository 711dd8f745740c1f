package movegen

import (
	"github.com/chewxy/math32"

	"motionstack.dev/internal/sim/mathx"
)

// Distract keeps a unit standing still for a while.
type Distract struct {
	remainingMs int64
}

func NewDistract(ms uint32) *Distract { return &Distract{remainingMs: int64(ms)} }

func (d *Distract) Initialize(u Unit) {
	u.AddState(StateDistracted)
	if !u.IsStopped() {
		u.StopMoving()
	}
}

func (d *Distract) Update(_ Unit, diff uint32) bool {
	d.remainingMs -= int64(diff)
	return d.remainingMs > 0
}

func (d *Distract) Finalize(u Unit) { u.ClearState(StateDistracted) }

func (*Distract) Interrupt(Unit) {}

func (d *Distract) Reset(u Unit) { d.Initialize(u) }

func (*Distract) Type() MotionType { return TypeDistract }

// AssistanceDistract is the pause after a creature called for help. It turns
// the creature aggressive again when it ends.
type AssistanceDistract struct {
	Distract
}

func NewAssistanceDistract(ms uint32) *AssistanceDistract {
	return &AssistanceDistract{Distract: Distract{remainingMs: int64(ms)}}
}

func (a *AssistanceDistract) Finalize(u Unit) {
	u.ClearState(StateDistracted)
	u.SetReactState(ReactAggressive)
}

func (*AssistanceDistract) Type() MotionType { return TypeAssistanceDistract }

// Rotate turns a unit in place, one full circle per duration.
type Rotate struct {
	durationMs  uint32
	remainingMs uint32
	dir         RotateDirection
}

func NewRotate(ms uint32, dir RotateDirection) *Rotate {
	return &Rotate{durationMs: ms, remainingMs: ms, dir: dir}
}

func (r *Rotate) Initialize(u Unit) {
	if !u.IsStopped() {
		u.StopMoving()
	}
}

func (r *Rotate) Update(u Unit, diff uint32) bool {
	if r.durationMs == 0 {
		return false
	}
	step := float32(diff) * 2 * math32.Pi / float32(r.durationMs)
	o := u.Orientation()
	if r.dir == RotateLeft {
		o += step
	} else {
		o -= step
	}
	u.SetOrientation(mathx.NormalizeAngle(o))
	if r.remainingMs <= diff {
		return false
	}
	r.remainingMs -= diff
	return true
}

func (*Rotate) Finalize(u Unit) { u.MovementInform(TypeRotate, 0) }

func (*Rotate) Interrupt(Unit) {}
func (*Rotate) Reset(Unit)     {}

func (*Rotate) Type() MotionType { return TypeRotate }

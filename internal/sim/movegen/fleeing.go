package movegen

import (
	"github.com/chewxy/math32"

	"motionstack.dev/internal/sim/mathx"
)

const (
	fleeMinDistance = 8
	fleeMaxDistance = 15
)

// Fleeing runs away from an enemy for as long as the enemy is alive.
type Fleeing struct {
	enemy Unit
	legs  uint32
}

func NewFleeing(enemy Unit) *Fleeing { return &Fleeing{enemy: enemy} }

func (f *Fleeing) Initialize(u Unit) {
	u.AddState(StateFleeing)
	f.nextLeg(u)
}

func (f *Fleeing) nextLeg(u Unit) {
	if u.HasState(StateCannotMove) {
		return
	}
	f.legs++
	pos := u.Position()
	angle := mathx.Range(mathx.Hash2(u.ID(), f.legs, 3), 0, 2*math32.Pi)
	if f.enemy != nil {
		spread := mathx.Range(mathx.Hash2(u.ID(), f.legs, 4), -math32.Pi/4, math32.Pi/4)
		angle = mathx.AngleTo(f.enemy.Position(), pos) + spread
	}
	dist := mathx.Range(mathx.Hash2(u.ID(), f.legs, 5), fleeMinDistance, fleeMaxDistance)
	dest := mathx.NearPoint(pos, dist, angle)
	if z, ok := u.GroundHeight(dest.X(), dest.Y(), pos.Z()+dist, 2*dist); ok {
		dest[2] = z
	}
	u.Spline().Launch(Trajectory{Dest: dest})
}

func (f *Fleeing) Update(u Unit, _ uint32) bool {
	if !u.Alive() || f.enemy == nil || !f.enemy.Alive() {
		return false
	}
	if u.HasState(StateCannotMove) {
		return true
	}
	if u.Spline().Finalized() {
		f.nextLeg(u)
	}
	return true
}

func (f *Fleeing) Finalize(u Unit) { u.ClearState(StateFleeing) }

func (f *Fleeing) Interrupt(u Unit) { u.ClearState(StateFleeing) }

func (f *Fleeing) Reset(u Unit) { f.Initialize(u) }

func (*Fleeing) Type() MotionType { return TypeFleeing }

// TimedFleeing is a creature flee bounded by a duration. The creature stops
// when it ends.
type TimedFleeing struct {
	Fleeing
	remainingMs int64
}

func NewTimedFleeing(enemy Unit, ms uint32) *TimedFleeing {
	return &TimedFleeing{Fleeing: Fleeing{enemy: enemy}, remainingMs: int64(ms)}
}

func (t *TimedFleeing) Update(u Unit, diff uint32) bool {
	if !u.Alive() {
		return false
	}
	t.remainingMs -= int64(diff)
	if t.remainingMs <= 0 {
		return false
	}
	if u.HasState(StateCannotMove) {
		return true
	}
	if u.Spline().Finalized() {
		t.nextLeg(u)
	}
	return true
}

func (t *TimedFleeing) Finalize(u Unit) {
	u.ClearState(StateFleeing)
	u.StopMoving()
}

func (*TimedFleeing) Type() MotionType { return TypeTimedFleeing }

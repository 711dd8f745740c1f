package movegen

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/mathx"
)

// Random wanders a creature around its home position.
type Random struct {
	wanderDistance float32

	center  mgl32.Vec3
	pauseMs int64
	legs    uint32
}

func NewRandom(wanderDistance float32) *Random {
	return &Random{wanderDistance: wanderDistance}
}

func (r *Random) Initialize(u Unit) {
	if !u.Alive() {
		return
	}
	r.center = u.Home()
	u.AddState(StateRoaming)
	r.nextLeg(u)
}

func (r *Random) nextLeg(u Unit) {
	if u.HasState(StateCannotMove) {
		return
	}
	r.legs++
	h := mathx.Hash2(u.ID(), r.legs, 0)
	angle := mathx.Range(h, 0, 2*math32.Pi)
	dist := mathx.Range(mathx.Hash2(u.ID(), r.legs, 1), 0, r.wanderDistance)
	dest := mathx.NearPoint(r.center, dist, angle)
	if z, ok := u.GroundHeight(dest.X(), dest.Y(), r.center.Z()+r.wanderDistance, 2*r.wanderDistance+5); ok {
		dest[2] = z
	}
	u.Spline().Launch(Trajectory{Dest: dest})
	// Pause between 0.5 and 10 seconds once the leg completes.
	r.pauseMs = int64(mathx.Range(mathx.Hash2(u.ID(), r.legs, 2), 500, 10000))
}

func (r *Random) Update(u Unit, diff uint32) bool {
	if u.HasState(StateCannotMove) {
		return true
	}
	if !u.Spline().Finalized() {
		return true
	}
	r.pauseMs -= int64(diff)
	if r.pauseMs <= 0 {
		r.nextLeg(u)
	}
	return true
}

func (r *Random) Finalize(u Unit) { u.ClearState(StateRoaming) }

func (r *Random) Interrupt(u Unit) { u.ClearState(StateRoaming) }

func (r *Random) Reset(u Unit) { r.Initialize(u) }

func (*Random) Type() MotionType { return TypeRandom }

// Confused makes short random hops around the point where it started. It
// never expires on its own.
type Confused struct {
	origin  mgl32.Vec3
	pauseMs int64
	hops    uint32
}

const confusedHopDistance = 4

func NewConfused() *Confused { return &Confused{} }

func (c *Confused) Initialize(u Unit) {
	u.AddState(StateConfused)
	c.origin = u.Position()
	if !u.IsStopped() {
		u.StopMoving()
	}
	c.pauseMs = 0
}

func (c *Confused) Update(u Unit, diff uint32) bool {
	if u.HasState(StateCannotMove) || !u.Spline().Finalized() {
		return true
	}
	c.pauseMs -= int64(diff)
	if c.pauseMs > 0 {
		return true
	}
	c.hops++
	angle := mathx.Range(mathx.Hash2(u.ID(), c.hops, 7), 0, 2*math32.Pi)
	dest := mathx.NearPoint(c.origin, confusedHopDistance, angle)
	u.Spline().Launch(Trajectory{Dest: dest})
	c.pauseMs = int64(mathx.Range(mathx.Hash2(u.ID(), c.hops, 8), 0, 1500))
	return true
}

func (c *Confused) Finalize(u Unit) {
	u.ClearState(StateConfused)
	u.StopMoving()
}

func (c *Confused) Interrupt(u Unit) { u.ClearState(StateConfused) }

func (c *Confused) Reset(u Unit) { c.Initialize(u) }

func (*Confused) Type() MotionType { return TypeConfused }

package world

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/mathx"
	"motionstack.dev/internal/sim/motion"
	"motionstack.dev/internal/sim/movegen"
)

// Unit is a player or creature of the world. All of its state is owned by
// the world loop goroutine.
type Unit struct {
	w *World

	id    uint64
	entry uint32
	kind  movegen.UnitKind
	name  string
	alive bool

	pos         mgl32.Vec3
	orientation float32
	home        mgl32.Vec3
	speed       float32

	state   movegen.UnitState
	react   movegen.ReactState
	// ownerID outlives owner when the owner despawns.
	ownerID uint64
	owner   *Unit
	combat  bool

	spline *LinearSpline
	motion *motion.Master
}

func (u *Unit) ID() uint64             { return u.id }
func (u *Unit) Entry() uint32          { return u.entry }
func (u *Unit) Kind() movegen.UnitKind { return u.kind }
func (u *Unit) Name() string           { return u.name }
func (u *Unit) Alive() bool            { return u.alive }

func (u *Unit) Position() mgl32.Vec3     { return u.pos }
func (u *Unit) Orientation() float32     { return u.orientation }
func (u *Unit) SetOrientation(o float32) { u.orientation = o }
func (u *Unit) Home() mgl32.Vec3         { return u.home }
func (u *Unit) Speed() float32           { return u.speed }

func (u *Unit) HasState(s movegen.UnitState) bool { return u.state&s != 0 }
func (u *Unit) AddState(s movegen.UnitState)      { u.state |= s }
func (u *Unit) ClearState(s movegen.UnitState)    { u.state &^= s }

func (u *Unit) IsStopped() bool { return u.spline.Finalized() }
func (u *Unit) StopMoving()     { u.spline.stop() }

func (u *Unit) HasCharmerOrOwner() bool { return u.ownerID != 0 }

func (u *Unit) CharmerOrOwner() movegen.Unit {
	if u.owner == nil {
		return nil
	}
	return u.owner
}

func (u *Unit) GroundHeight(x, y, z, maxSearch float32) (float32, bool) {
	return u.w.terrain.GroundHeight(x, y, z, maxSearch)
}

func (u *Unit) Spline() movegen.Spline    { return u.spline }
func (u *Unit) Motion() movegen.Requester { return u.motion }
func (u *Unit) Master() *motion.Master    { return u.motion }
func (u *Unit) React() movegen.ReactState { return u.react }
func (u *Unit) InCombat() bool            { return u.combat }
func (u *Unit) State() movegen.UnitState  { return u.state }

func (u *Unit) AttackStop()                        { u.combat = false }
func (u *Unit) SetReactState(r movegen.ReactState) { u.react = r }

func (u *Unit) CallAssistance() {
	u.w.noteAssist(u.id)
}

func (u *Unit) MovementInform(t movegen.MotionType, id uint32) {
	u.w.noteInform(Inform{Unit: u.id, Type: t.String(), ID: id})
}

// SetSpeed changes the run speed and lets the motion stack re-time.
func (u *Unit) SetSpeed(v float32) {
	if v <= 0 || v == u.speed {
		return
	}
	u.speed = v
	u.motion.PropagateSpeedChange()
}

// update runs the physical motion first so that generators observe a spline
// that already reflects this tick.
func (u *Unit) update(diff uint32) {
	u.spline.advance(diff)
	u.motion.Advance(diff)
}

func angleOf(d mgl32.Vec3) float32 {
	return mathx.NormalizeAngle(math32.Atan2(d.Y(), d.X()))
}

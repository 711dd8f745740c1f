package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/movegen"
)

// LinearSpline moves its unit in a straight line at constant speed. It is the
// world's physical motion subsystem.
type LinearSpline struct {
	u *Unit

	dest      mgl32.Vec3
	speed     float32
	facing    float32
	hasFacing bool
	finalized bool
}

func newLinearSpline(u *Unit) *LinearSpline {
	return &LinearSpline{u: u, finalized: true}
}

func (s *LinearSpline) Launch(t movegen.Trajectory) {
	s.dest = t.Dest
	s.facing = t.Facing
	s.hasFacing = t.HasFacing
	switch {
	case t.Speed > 0:
		s.speed = t.Speed
	case t.Fall:
		s.speed = s.u.w.tuning.Speeds.Fall
	case s.u.HasState(movegen.StateTaxiFlight):
		s.speed = s.u.w.tuning.Speeds.Taxi
	default:
		s.speed = s.u.Speed()
	}
	s.finalized = false
	if d := s.dest.Sub(s.u.pos); d.X() != 0 || d.Y() != 0 {
		s.u.orientation = angleOf(d)
	}
	if s.dest.ApproxEqual(s.u.pos) {
		s.arrive()
	}
}

func (s *LinearSpline) Finalized() bool { return s.finalized }

func (s *LinearSpline) FinalDestination() mgl32.Vec3 { return s.dest }

// stop ends the running leg where the unit stands.
func (s *LinearSpline) stop() {
	s.dest = s.u.pos
	s.finalized = true
	s.hasFacing = false
}

// advance moves the unit by diff milliseconds of travel.
func (s *LinearSpline) advance(diff uint32) {
	if s.finalized {
		return
	}
	step := s.speed * float32(diff) / 1000
	d := s.dest.Sub(s.u.pos)
	if l := d.Len(); l <= step || l == 0 {
		s.arrive()
		return
	}
	s.u.pos = s.u.pos.Add(d.Normalize().Mul(step))
}

func (s *LinearSpline) arrive() {
	s.u.pos = s.dest
	s.finalized = true
	if s.hasFacing {
		s.u.orientation = s.facing
		s.hasFacing = false
	}
}

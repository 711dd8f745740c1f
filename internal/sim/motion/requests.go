package motion

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/movegen"
)

// MoveIdle pushes the idle singleton unless it is already on top. It is a
// plain push: the previous top is neither interrupted nor expired.
func (m *Master) MoveIdle() {
	if len(m.stack) == 0 || !movegen.IsStatic(m.top()) {
		m.push(movegen.Idle)
	}
}

// MoveRandom starts wandering around home. Only creatures wander.
func (m *Master) MoveRandom(wanderDistance float32) {
	if m.owner.Kind() != movegen.KindCreature {
		return
	}
	m.Mutate(movegen.NewRandom(wanderDistance))
}

// MoveTargetedHome sends a creature home, or back to its charmer or owner
// when it has one. The whole active chain is replaced.
func (m *Master) MoveTargetedHome() {
	if m.owner.HasState(movegen.StateLostControl) {
		return
	}
	if m.owner.Kind() != movegen.KindCreature {
		m.reject(movegen.TypeHome, "attempt targeted home")
		return
	}

	m.Clear(false, false)

	if m.owner.HasCharmerOrOwner() {
		leader := m.owner.CharmerOrOwner()
		if leader == nil {
			// Assigned but gone: stay on the floor.
			return
		}
		t := m.opts.Tuning
		m.Mutate(movegen.NewFollow(leader, t.PetFollowDistance, t.PetFollowAngle))
		return
	}
	m.Mutate(movegen.NewHome())
}

func (m *Master) MoveConfused() {
	m.Mutate(movegen.NewConfused())
}

// MoveChase ignores a nil target.
func (m *Master) MoveChase(target movegen.Unit, dist, angle float32) {
	if target == nil {
		return
	}
	m.Mutate(movegen.NewChase(target, dist, angle))
}

// MoveFollow replaces the whole active chain with a follow. A nil target is
// ignored.
func (m *Master) MoveFollow(target movegen.Unit, dist, angle float32) {
	if m.owner.HasState(movegen.StateLostControl) {
		return
	}
	if target == nil {
		return
	}
	m.Clear(true, false)
	m.Mutate(movegen.NewFollow(target, dist, angle))
}

func (m *Master) MovePoint(id uint32, x, y, z float32) {
	m.Mutate(movegen.NewPoint(id, mgl32.Vec3{x, y, z}, 0))
}

// MoveCharge is a point movement at a forced speed.
func (m *Master) MoveCharge(x, y, z, speed float32, id uint32) {
	m.Mutate(movegen.NewPoint(id, mgl32.Vec3{x, y, z}, speed))
}

// MoveSeekAssistance makes a creature stop fighting and run to (x, y, z) to
// call for help.
func (m *Master) MoveSeekAssistance(x, y, z float32) {
	if m.owner.Kind() == movegen.KindPlayer {
		m.reject(movegen.TypeAssistance, "attempt to seek assistance")
		return
	}
	m.owner.AttackStop()
	m.owner.SetReactState(movegen.ReactPassive)
	m.Mutate(movegen.NewAssistance(mgl32.Vec3{x, y, z}, m.opts.Tuning.AssistanceDistractMs))
}

func (m *Master) MoveSeekAssistanceDistract(ms uint32) {
	if m.owner.Kind() == movegen.KindPlayer {
		m.reject(movegen.TypeAssistanceDistract, "attempt to call distract after assistance")
		return
	}
	m.Mutate(movegen.NewAssistanceDistract(ms))
}

// MoveFleeing runs from enemy. Creatures given a duration use a timed flee.
func (m *Master) MoveFleeing(enemy movegen.Unit, ms uint32) {
	if enemy == nil {
		return
	}
	if m.owner.Kind() == movegen.KindCreature && ms > 0 {
		m.Mutate(movegen.NewTimedFleeing(enemy, ms))
		return
	}
	m.Mutate(movegen.NewFleeing(enemy))
}

// MoveTaxiFlight flies a creature along a taxi path from the given node.
func (m *Master) MoveTaxiFlight(path, node uint32) {
	if m.owner.Kind() == movegen.KindPlayer {
		m.reject(movegen.TypeFlight, "attempt taxi to (path %d node %d)", path, node)
		return
	}
	var nodes []movegen.PathNode
	ok := false
	if m.opts.Paths != nil {
		nodes, ok = m.opts.Paths.TaxiPath(path)
	}
	if !ok {
		m.reject(movegen.TypeFlight, "unknown taxi path %d", path)
		return
	}
	m.Mutate(movegen.NewFlightPath(nodes, node))
}

func (m *Master) MoveDistract(ms uint32) {
	m.Mutate(movegen.NewDistract(ms))
}

// MoveRotate with a zero duration does nothing.
func (m *Master) MoveRotate(ms uint32, dir movegen.RotateDirection) {
	if ms == 0 {
		return
	}
	m.Mutate(movegen.NewRotate(ms, dir))
}

// MoveFall drops the unit onto the ground below it. Nothing happens when no
// ground is found or the unit already stands on it.
func (m *Master) MoveFall(id uint32) {
	t := m.opts.Tuning
	pos := m.owner.Position()
	tz, ok := m.owner.GroundHeight(pos.X(), pos.Y(), pos.Z(), t.MaxFallDistance)
	if !ok {
		return
	}
	if math32.Abs(pos.Z()-tz) < t.FallGroundTolerance {
		return
	}
	m.owner.Spline().Launch(movegen.Trajectory{
		Dest: mgl32.Vec3{pos.X(), pos.Y(), tz},
		Fall: true,
	})
	m.Mutate(movegen.NewEffect(id))
}

// MovePath walks a stored waypoint path. Path 0 means none.
func (m *Master) MovePath(pathID uint32, repeatable bool) {
	if pathID == 0 {
		return
	}
	if m.owner.Kind() != movegen.KindCreature {
		m.reject(movegen.TypeWaypoint, "attempt waypoint path %d", pathID)
		return
	}
	var nodes []movegen.PathNode
	ok := false
	if m.opts.Paths != nil {
		nodes, ok = m.opts.Paths.WaypointPath(pathID)
	}
	if !ok || len(nodes) == 0 {
		m.reject(movegen.TypeWaypoint, "unknown waypoint path %d", pathID)
		return
	}
	m.Mutate(movegen.NewWaypoint(pathID, nodes, repeatable))
}

func (m *Master) reject(t movegen.MotionType, format string, args ...any) {
	args = append([]any{m.owner.Kind(), m.owner.ID(), m.owner.Entry()}, args...)
	m.log.Printf("%s (id: %d entry: %d) "+format, args...)
	if m.opts.Sink != nil {
		m.opts.Sink.MotionEvent(Event{
			Unit:  m.owner.ID(),
			Op:    OpReject,
			Type:  t,
			Name:  t.String(),
			Depth: len(m.stack),
		})
	}
}

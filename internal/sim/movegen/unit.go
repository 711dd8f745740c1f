package movegen

import "github.com/go-gl/mathgl/mgl32"

// Unit is the entity a motion stack moves. The world implements it; generators
// and the stack only ever see this view of it.
type Unit interface {
	ID() uint64
	Entry() uint32
	Kind() UnitKind
	Alive() bool

	Position() mgl32.Vec3
	Orientation() float32
	SetOrientation(o float32)
	Home() mgl32.Vec3
	// Speed is the current run speed in yards per second.
	Speed() float32

	HasState(s UnitState) bool
	AddState(s UnitState)
	ClearState(s UnitState)

	IsStopped() bool
	StopMoving()

	// HasCharmerOrOwner reports whether a leader is assigned, even one that
	// is no longer in the world.
	HasCharmerOrOwner() bool
	// CharmerOrOwner returns nil when the unit has neither or it is gone.
	CharmerOrOwner() Unit
	// GroundHeight searches at most maxSearch yards below z. ok is false when
	// no ground was found.
	GroundHeight(x, y, z, maxSearch float32) (h float32, ok bool)

	Spline() Spline
	Motion() Requester

	AttackStop()
	SetReactState(r ReactState)
	CallAssistance()
	// MovementInform tells the unit's AI that a generator with the given id
	// reached its end.
	MovementInform(t MotionType, id uint32)
}

// Trajectory is a single launch command for the physical motion subsystem.
type Trajectory struct {
	Dest mgl32.Vec3
	// Speed overrides the unit speed when non-zero.
	Speed float32
	Fall  bool
	// Facing, when set, is applied once the trajectory ends.
	Facing    float32
	HasFacing bool
}

// Spline is the physical motion subsystem of a unit.
type Spline interface {
	Launch(t Trajectory)
	Finalized() bool
	FinalDestination() mgl32.Vec3
}

// Requester is the subset of the motion stack that generators call back into,
// typically from Finalize.
type Requester interface {
	MoveSeekAssistanceDistract(ms uint32)
	MoveIdle()
}

type PathNode struct {
	Pos mgl32.Vec3
	// DelayMs is the pause after reaching the node.
	DelayMs uint32
}

// PathSource resolves stored waypoint and taxi paths.
type PathSource interface {
	WaypointPath(id uint32) ([]PathNode, bool)
	TaxiPath(id uint32) ([]PathNode, bool)
}

package movegen

// Waypoint walks a stored creature path node by node, pausing at each node for
// its delay. A repeatable path wraps around; otherwise the generator expires
// after the last node.
type Waypoint struct {
	pathID     uint32
	nodes      []PathNode
	repeatable bool

	next    int
	pauseMs int64
	waiting bool
}

func NewWaypoint(pathID uint32, nodes []PathNode, repeatable bool) *Waypoint {
	return &Waypoint{pathID: pathID, nodes: nodes, repeatable: repeatable}
}

func (w *Waypoint) PathID() uint32 { return w.pathID }

func (w *Waypoint) Initialize(u Unit) {
	u.AddState(StateRoaming)
	w.launch(u)
}

func (w *Waypoint) launch(u Unit) {
	if len(w.nodes) == 0 || u.HasState(StateCannotMove) {
		return
	}
	w.waiting = false
	u.Spline().Launch(Trajectory{Dest: w.nodes[w.next].Pos})
}

func (w *Waypoint) Update(u Unit, diff uint32) bool {
	if len(w.nodes) == 0 {
		return false
	}
	if u.HasState(StateCannotMove) || !u.Spline().Finalized() {
		return true
	}
	if !w.waiting {
		// Arrived at w.next.
		u.MovementInform(TypeWaypoint, uint32(w.next))
		w.waiting = true
		w.pauseMs = int64(w.nodes[w.next].DelayMs)
		w.next++
		if w.next == len(w.nodes) {
			if !w.repeatable {
				return false
			}
			w.next = 0
		}
	}
	w.pauseMs -= int64(diff)
	if w.pauseMs <= 0 {
		w.launch(u)
	}
	return true
}

func (w *Waypoint) Finalize(u Unit) { u.ClearState(StateRoaming) }

func (w *Waypoint) Interrupt(u Unit) { u.ClearState(StateRoaming) }

func (w *Waypoint) Reset(u Unit) {
	u.AddState(StateRoaming)
	w.launch(u)
}

func (*Waypoint) Type() MotionType { return TypeWaypoint }

// FlightPath carries a creature along a taxi path starting at a given node.
type FlightPath struct {
	nodes []PathNode
	next  int
}

func NewFlightPath(nodes []PathNode, startNode uint32) *FlightPath {
	next := int(startNode)
	if next > len(nodes) {
		next = len(nodes)
	}
	return &FlightPath{nodes: nodes, next: next}
}

func (f *FlightPath) Initialize(u Unit) {
	u.AddState(StateTaxiFlight)
	f.launch(u)
}

func (f *FlightPath) launch(u Unit) {
	if f.next >= len(f.nodes) {
		return
	}
	u.Spline().Launch(Trajectory{Dest: f.nodes[f.next].Pos})
}

func (f *FlightPath) Update(u Unit, _ uint32) bool {
	if !u.Spline().Finalized() {
		return true
	}
	f.next++
	if f.next >= len(f.nodes) {
		return false
	}
	f.launch(u)
	return true
}

func (f *FlightPath) Finalize(u Unit) {
	u.ClearState(StateTaxiFlight)
	u.StopMoving()
}

func (f *FlightPath) Interrupt(u Unit) { u.ClearState(StateTaxiFlight) }

func (f *FlightPath) Reset(u Unit) { f.Initialize(u) }

func (*FlightPath) Type() MotionType { return TypeFlight }

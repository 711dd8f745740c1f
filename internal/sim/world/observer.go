package world

import (
	"encoding/json"

	"motionstack.dev/internal/observerproto"
)

type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte

	// Optional: only stream these units.
	Units  []uint64
	Events bool
}

type ObserverSubscribeRequest struct {
	SessionID string

	Units  []uint64
	Events bool
}

type observerClient struct {
	id      string
	tickOut chan []byte

	units  map[uint64]bool
	events bool
}

func unitFilter(ids []uint64) map[uint64]bool {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.TickOut == nil {
		return
	}
	// Replace existing session id if any.
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:      req.SessionID,
		tickOut: req.TickOut,
		units:   unitFilter(req.Units),
		events:  req.Events,
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.units = unitFilter(req.Units)
	c.events = req.Events
}

func (w *World) handleObserverLeave(sessionID string) {
	if sessionID == "" {
		return
	}
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
}

func (w *World) broadcastTick(entry TickLogEntry) {
	if len(w.observers) == 0 {
		return
	}
	states := make([]observerproto.UnitState, 0, len(w.order))
	for _, id := range w.order {
		states = append(states, w.units[id].observerState())
	}
	events := make([]observerproto.MotionEvent, len(entry.Events))
	for i, ev := range entry.Events {
		events[i] = observerproto.MotionEvent{Unit: ev.Unit, Op: string(ev.Op), Type: ev.Name, Depth: ev.Depth}
	}
	informs := make([]observerproto.Inform, len(entry.Informs))
	for i, in := range entry.Informs {
		informs[i] = observerproto.Inform{Unit: in.Unit, Type: in.Type, ID: in.ID}
	}

	for _, c := range w.observers {
		msg := observerproto.TickMsg{
			Type:            "TICK",
			ProtocolVersion: observerproto.Version,
			Tick:            entry.Tick,
			Digest:          entry.Digest,
			Units:           states,
		}
		if c.units != nil {
			msg.Units = make([]observerproto.UnitState, 0, len(c.units))
			for _, s := range states {
				if c.units[s.ID] {
					msg.Units = append(msg.Units, s)
				}
			}
		}
		if c.events {
			msg.Events = filterEvents(events, c.units)
			msg.Informs = informs
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(c.tickOut, b)
	}
}

func filterEvents(events []observerproto.MotionEvent, units map[uint64]bool) []observerproto.MotionEvent {
	if units == nil {
		return events
	}
	out := make([]observerproto.MotionEvent, 0, len(events))
	for _, ev := range events {
		if units[ev.Unit] {
			out = append(out, ev)
		}
	}
	return out
}

func (u *Unit) observerState() observerproto.UnitState {
	s := observerproto.UnitState{
		ID:          u.id,
		Entry:       u.entry,
		Kind:        u.kind.String(),
		Name:        u.name,
		Alive:       u.alive,
		Pos:         [3]float32(u.pos),
		Orientation: u.orientation,
		Moving:      !u.spline.Finalized(),
	}
	for _, t := range u.motion.Types() {
		s.Stack = append(s.Stack, t.String())
	}
	if dest, ok := u.motion.Destination(); ok {
		d := [3]float32(dest)
		s.Dest = &d
	}
	return s
}

// sendLatest delivers b without blocking the world loop, dropping the oldest
// queued message when the observer falls behind.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

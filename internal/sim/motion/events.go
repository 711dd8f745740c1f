package motion

import "motionstack.dev/internal/sim/movegen"

type Op string

const (
	OpPush      Op = "PUSH"
	OpInterrupt Op = "INTERRUPT"
	OpReset     Op = "RESET"
	OpFinalize  Op = "FINALIZE"
	OpDispose   Op = "DISPOSE"
	OpDefer     Op = "DEFER"
	OpReject    Op = "REJECT"
)

// Event is one lifecycle step of a generator on a unit's stack. OpDefer marks
// a finalized generator parked until the running Advance returns.
type Event struct {
	Unit  uint64             `json:"unit"`
	Op    Op                 `json:"op"`
	Type  movegen.MotionType `json:"-"`
	Name  string             `json:"type"`
	Depth int                `json:"depth"`
}

type EventSink interface {
	MotionEvent(ev Event)
}

type EventSinkFunc func(ev Event)

func (f EventSinkFunc) MotionEvent(ev Event) {
	if f == nil {
		return
	}
	f(ev)
}

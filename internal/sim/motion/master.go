package motion

import (
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/assert"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
)

type Options struct {
	Selector movegen.Selector
	Paths    movegen.PathSource
	Tuning   tuning.MotionTuning
	Logger   *log.Logger
	Sink     EventSink
}

// Master is the motion stack of one unit. The top generator is the active
// one; everything below it is suspended and may be resumed.
//
// Master is not safe for concurrent use. It is driven by its unit's tick and
// by synchronous requests issued on the same goroutine, including requests
// issued from inside a generator's Update or Finalize.
type Master struct {
	owner movegen.Unit
	opts  Options
	log   *log.Logger

	stack []movegen.Generator

	// updating is set while the top generator's Update runs. Removals issued
	// meanwhile are parked in expired instead of being disposed.
	updating     bool
	resetPending bool
	expired      *expireList
}

type expireList struct {
	gens []movegen.Generator
}

func New(owner movegen.Unit, opts Options) *Master {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[motion] ", log.LstdFlags)
	}
	return &Master{owner: owner, opts: opts, log: logger}
}

func (m *Master) Owner() movegen.Unit { return m.owner }

// Initialize stops the unit, drops every generator without deferral and
// installs the default one: the selector's choice for a free creature, idle
// for everything else.
func (m *Master) Initialize() {
	if !m.owner.IsStopped() {
		m.owner.StopMoving()
	}
	m.directClean(false, true)

	g := movegen.Idle
	if m.owner.Kind() == movegen.KindCreature && !m.owner.HasState(movegen.StatePossessed) && m.opts.Selector != nil {
		if sel := m.opts.Selector.SelectDefault(m.owner); sel != nil {
			g = sel
		}
	}
	m.push(g)
	g.Initialize(m.owner)
}

// Close releases every generator still owned by the stack without
// finalizing it: the unit is going away and must not be touched.
func (m *Master) Close() {
	for len(m.stack) > 0 {
		m.dispose(m.pop())
	}
	if m.expired != nil {
		for _, g := range m.expired.gens {
			m.dispose(g)
		}
		m.expired = nil
	}
	m.resetPending = false
}

// Advance runs the active generator for diff milliseconds. It is the only
// entry point of the tick driver.
func (m *Master) Advance(diff uint32) {
	if m.owner.HasState(movegen.StateCannotMove) {
		return
	}
	assert.IsTrue(len(m.stack) > 0, "motion: advance on empty stack (unit %d)", m.owner.ID())

	m.updating = true
	alive := m.top().Update(m.owner, diff)
	// Cleared before expiring so that requests issued from Finalize below run
	// on the direct path.
	m.updating = false

	if !alive {
		m.MovementExpired(true)
	}

	if m.expired == nil {
		return
	}
	exp := m.expired
	m.expired = nil
	for _, g := range exp.gens {
		m.dispose(g)
	}
	if len(m.stack) == 0 {
		m.Initialize()
	}
	if m.resetPending {
		m.resetPending = false
		m.reset(m.top())
	}
}

// Clear drops generators down to the floor, or everything when all is set.
// reset resumes the remaining top afterwards. Inside Advance the removal is
// deferred until the running Update returns.
func (m *Master) Clear(reset, all bool) {
	if m.updating {
		m.delayedClean(reset, all)
	} else {
		m.directClean(reset, all)
	}
}

// MovementExpired removes the active generator together with any chase or
// follow generators directly beneath it. A stack holding only its floor is
// left alone.
func (m *Master) MovementExpired(reset bool) {
	if m.updating {
		m.delayedExpire(reset)
	} else {
		m.directExpire(reset)
	}
}

func (m *Master) directClean(reset, all bool) {
	for m.more(all) {
		g := m.pop()
		m.finalize(g)
		m.dispose(g)
	}
	if !all && reset {
		assert.IsTrue(len(m.stack) > 0, "motion: reset on empty stack (unit %d)", m.owner.ID())
		m.reset(m.top())
	}
}

func (m *Master) delayedClean(reset, all bool) {
	m.resetPending = reset
	if !m.more(all) {
		return
	}
	m.openExpireList()
	for m.more(all) {
		g := m.pop()
		m.finalize(g)
		m.park(g)
	}
}

func (m *Master) directExpire(reset bool) {
	if len(m.stack) <= 1 {
		return
	}
	curr := m.pop()

	for len(m.stack) > 0 && m.top().Type().Targeted() {
		g := m.pop()
		m.finalize(g)
		m.dispose(g)
	}

	// Finalize may push a replacement; only the generator exposed here is
	// eligible for the reset below.
	var exposed movegen.Generator
	if len(m.stack) > 0 {
		exposed = m.top()
	}
	m.finalize(curr)
	m.dispose(curr)

	if len(m.stack) == 0 {
		m.Initialize()
	}
	if reset && exposed != nil && m.top() == exposed {
		m.reset(exposed)
	}
}

func (m *Master) delayedExpire(reset bool) {
	m.resetPending = reset
	if len(m.stack) <= 1 {
		return
	}
	curr := m.pop()
	m.openExpireList()

	for len(m.stack) > 0 && m.top().Type().Targeted() {
		g := m.pop()
		m.finalize(g)
		m.park(g)
	}
	m.finalize(curr)
	m.park(curr)
}

// Mutate makes g the active generator. A home, effect or distract top is
// expired first; any other top is interrupted and stays suspended below g.
func (m *Master) Mutate(g movegen.Generator) {
	if len(m.stack) > 0 {
		if m.top().Type().Transient() {
			m.MovementExpired(false)
		}
		if len(m.stack) > 0 {
			top := m.top()
			top.Interrupt(m.owner)
			m.emit(OpInterrupt, top)
		}
	}
	g.Initialize(m.owner)
	m.push(g)
}

func (m *Master) more(all bool) bool {
	if all {
		return len(m.stack) > 0
	}
	return len(m.stack) > 1
}

func (m *Master) openExpireList() {
	if m.expired == nil {
		m.expired = &expireList{}
	}
}

func (m *Master) top() movegen.Generator { return m.stack[len(m.stack)-1] }

// push appends g. Only the idle singleton may appear more than once.
func (m *Master) push(g movegen.Generator) {
	if !movegen.IsStatic(g) {
		assert.IsTrue(!m.holds(g), "motion: %s pushed twice (unit %d)", g.Type(), m.owner.ID())
	}
	m.stack = append(m.stack, g)
	m.emit(OpPush, g)
}

func (m *Master) holds(g movegen.Generator) bool {
	for _, e := range m.stack {
		if e == g {
			return true
		}
	}
	return false
}

func (m *Master) pop() movegen.Generator {
	g := m.top()
	m.stack[len(m.stack)-1] = nil
	m.stack = m.stack[:len(m.stack)-1]
	return g
}

func (m *Master) finalize(g movegen.Generator) {
	if movegen.IsStatic(g) {
		return
	}
	g.Finalize(m.owner)
	m.emit(OpFinalize, g)
}

func (m *Master) reset(g movegen.Generator) {
	g.Reset(m.owner)
	m.emit(OpReset, g)
}

func (m *Master) park(g movegen.Generator) {
	if movegen.IsStatic(g) {
		return
	}
	m.expired.gens = append(m.expired.gens, g)
	m.emit(OpDefer, g)
}

func (m *Master) dispose(g movegen.Generator) {
	if movegen.IsStatic(g) {
		return
	}
	movegen.Dispose(g)
	m.emit(OpDispose, g)
}

func (m *Master) emit(op Op, g movegen.Generator) {
	if m.opts.Sink == nil {
		return
	}
	t := g.Type()
	m.opts.Sink.MotionEvent(Event{
		Unit:  m.owner.ID(),
		Op:    op,
		Type:  t,
		Name:  t.String(),
		Depth: len(m.stack),
	})
}

// CurrentType is the type of the active generator.
func (m *Master) CurrentType() movegen.MotionType {
	if len(m.stack) == 0 {
		return movegen.TypeIdle
	}
	return m.top().Type()
}

// Top returns the active generator, or nil for an empty stack.
func (m *Master) Top() movegen.Generator {
	if len(m.stack) == 0 {
		return nil
	}
	return m.top()
}

func (m *Master) Size() int { return len(m.stack) }

// Types lists the stack from the floor to the top.
func (m *Master) Types() []movegen.MotionType {
	out := make([]movegen.MotionType, len(m.stack))
	for i, g := range m.stack {
		out[i] = g.Type()
	}
	return out
}

// Destination is the end point of the unit's running spline.
func (m *Master) Destination() (mgl32.Vec3, bool) {
	sp := m.owner.Spline()
	if sp.Finalized() {
		return mgl32.Vec3{}, false
	}
	return sp.FinalDestination(), true
}

// PropagateSpeedChange notifies every generator on the stack, suspended ones
// included.
func (m *Master) PropagateSpeedChange() {
	for _, g := range m.stack {
		if sc, ok := g.(movegen.SpeedChangeAware); ok {
			sc.SpeedChanged(m.owner)
		}
	}
}

func (m *Master) UpdateFinalDistance(d float32) {
	if len(m.stack) == 0 {
		return
	}
	if fd, ok := m.top().(movegen.FinalDistanceAware); ok {
		fd.UpdateFinalDistance(m.owner, d)
	}
}

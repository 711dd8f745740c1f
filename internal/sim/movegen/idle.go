package movegen

type idleGenerator struct{}

// Idle is the shared floor generator. It holds no per-unit state, so every
// stack may push the same instance.
var Idle Generator = &idleGenerator{}

func (*idleGenerator) Initialize(u Unit) { u.StopMoving() }
func (*idleGenerator) Finalize(Unit)     {}
func (*idleGenerator) Interrupt(Unit)    {}
func (*idleGenerator) Reset(u Unit)      { u.StopMoving() }

func (*idleGenerator) Update(Unit, uint32) bool { return true }
func (*idleGenerator) Type() MotionType         { return TypeIdle }

package movegen

// Generator is one movement behavior. A motion stack owns every generator it
// holds, except the shared Idle instance.
type Generator interface {
	// Initialize runs right before the generator becomes active for the first time.
	Initialize(u Unit)
	// Finalize runs exactly once when the generator leaves the stack. It may
	// issue new motion requests through u.Motion().
	Finalize(u Unit)
	// Interrupt pauses the generator; it stays on the stack and may be reset later.
	Interrupt(u Unit)
	// Reset resumes an interrupted generator.
	Reset(u Unit)
	// Update advances the generator by diff milliseconds. false means it expired.
	Update(u Unit, diff uint32) bool
	Type() MotionType
}

// SpeedChangeAware generators cache speed dependent timing.
type SpeedChangeAware interface {
	SpeedChanged(u Unit)
}

// FinalDistanceAware generators accept an updated distance to their target.
type FinalDistanceAware interface {
	UpdateFinalDistance(u Unit, d float32)
}

// Disposer is called once when a stack releases a generator.
type Disposer interface {
	Dispose()
}

// IsStatic reports whether g is the shared idle generator.
func IsStatic(g Generator) bool {
	return g == Idle
}

// Dispose releases g unless it is the shared idle generator.
func Dispose(g Generator) {
	if g == nil || IsStatic(g) {
		return
	}
	if d, ok := g.(Disposer); ok {
		d.Dispose()
	}
}

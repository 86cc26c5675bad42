package frameloop

// VM is the machine a FrameLoop drives.
type VM interface {
	// Step advances the simulation by one tick.
	Step()

	// RenderInterpolated renders using the fractional progress toward the
	// next step. It never changes simulation state.
	RenderInterpolated()
}

// VMFuncs adapts a pair of plain functions to the VM interface.
// A nil function is a no-op.
type VMFuncs struct {
	StepFunc   func()
	RenderFunc func()
}

func (f VMFuncs) Step() {
	if f.StepFunc != nil {
		f.StepFunc()
	}
}

func (f VMFuncs) RenderInterpolated() {
	if f.RenderFunc != nil {
		f.RenderFunc()
	}
}

var _ VM = VMFuncs{}

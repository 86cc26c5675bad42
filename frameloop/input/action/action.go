package action

// Action represents input actions that control a running frame loop
type Action int

const (
	// Loop controls
	LoopQuit Action = iota
	LoopPauseToggle
	LoopStepOnce
	LoopFramerateUp
	LoopFramerateDown
	LoopDisplayRate
	LoopInterpolationToggle

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

var names = map[Action]string{
	LoopQuit:                "quit",
	LoopPauseToggle:         "pause/resume",
	LoopStepOnce:            "step once",
	LoopFramerateUp:         "framerate up",
	LoopFramerateDown:       "framerate down",
	LoopDisplayRate:         "display rate",
	LoopInterpolationToggle: "toggle interpolation",
	DebugLogLevelIncrease:   "more logging",
	DebugLogLevelDecrease:   "less logging",
}

func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return "unknown"
}

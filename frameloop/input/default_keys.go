package input

import "github.com/valerio/go-frameloop/frameloop/input/action"

// DefaultKeyMap provides default key mappings that work across backends.
// Backends can use these mappings as a base and override/extend as needed.
var DefaultKeyMap = map[string]action.Action{
	"Escape": action.LoopQuit,
	"q":      action.LoopQuit,

	"Space": action.LoopPauseToggle,
	"p":     action.LoopPauseToggle, // Alternative key
	"o":     action.LoopStepOnce,

	"Up":   action.LoopFramerateUp,
	"Down": action.LoopFramerateDown,
	"]":    action.LoopFramerateUp,
	"[":    action.LoopFramerateDown,
	"0":    action.LoopDisplayRate,
	"i":    action.LoopInterpolationToggle,

	// Debug controls
	"+": action.DebugLogLevelIncrease,
	"=": action.DebugLogLevelIncrease, // Alternative without shift
	"-": action.DebugLogLevelDecrease,
	"_": action.DebugLogLevelDecrease, // Alternative with shift
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}

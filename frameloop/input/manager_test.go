package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-frameloop/frameloop/input/action"
	"github.com/valerio/go-frameloop/frameloop/input/event"
)

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "rapid press - should debounce",
			eventType:      event.Press,
			timeBetween:    100 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "slow press - should not debounce",
			eventType:      event.Press,
			timeBetween:    400 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "rapid release - should debounce",
			eventType:      event.Release,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "Hold event type - should not debounce",
			eventType:      event.Hold,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			now := time.Unix(0, 0)
			m.now = func() time.Time { return now }

			calls := 0
			m.On(action.LoopPauseToggle, tt.eventType, func() { calls++ })

			assert.True(t, m.Trigger(action.LoopPauseToggle, tt.eventType))
			now = now.Add(tt.timeBetween)
			second := m.Trigger(action.LoopPauseToggle, tt.eventType)

			if tt.expectDebounce {
				assert.False(t, second)
				assert.Equal(t, 1, calls)
			} else {
				assert.True(t, second)
				assert.Equal(t, 2, calls)
			}
		})
	}
}

func TestManager_Trigger(t *testing.T) {
	t.Run("runs every callback in registration order", func(t *testing.T) {
		m := NewManager()
		var order []int
		m.On(action.LoopQuit, event.Press, func() { order = append(order, 1) })
		m.On(action.LoopQuit, event.Press, func() { order = append(order, 2) })

		assert.True(t, m.Trigger(action.LoopQuit, event.Press))
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("unbound action", func(t *testing.T) {
		m := NewManager()
		assert.False(t, m.Trigger(action.LoopStepOnce, event.Press))
	})

	t.Run("callback may register more handlers", func(t *testing.T) {
		m := NewManager()
		m.On(action.LoopQuit, event.Hold, func() {
			m.On(action.LoopQuit, event.Hold, func() {})
		})
		assert.True(t, m.Trigger(action.LoopQuit, event.Hold))
	})
}

func TestDefaultMapping(t *testing.T) {
	act, ok := GetDefaultMapping("q")
	assert.True(t, ok)
	assert.Equal(t, action.LoopQuit, act)

	_, ok = GetDefaultMapping("nope")
	assert.False(t, ok)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "toggle interpolation", action.LoopInterpolationToggle.String())
	assert.Equal(t, "unknown", action.Action(-1).String())
}

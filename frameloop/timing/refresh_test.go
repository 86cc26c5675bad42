package timing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

func TestEveryRefresh(t *testing.T) {
	t.Run("runs once per refresh", func(t *testing.T) {
		host := timing.NewMockHost()
		calls := 0

		h := timing.EveryRefresh(host, func() { calls++ })
		defer h.Cancel()

		assert.Equal(t, 0, calls, "nothing runs before the first refresh")
		for i := 1; i <= 5; i++ {
			assert.Equal(t, 1, host.Refresh())
			assert.Equal(t, i, calls)
		}
	})

	t.Run("next refresh is requested before the callback runs", func(t *testing.T) {
		host := timing.NewMockHost()
		pendingDuringCall := -1

		h := timing.EveryRefresh(host, func() { pendingDuringCall = host.PendingFrames() })
		defer h.Cancel()

		host.Refresh()
		assert.Equal(t, 1, pendingDuringCall)
	})

	t.Run("cancel stops further calls", func(t *testing.T) {
		host := timing.NewMockHost()
		calls := 0

		h := timing.EveryRefresh(host, func() { calls++ })
		host.Refresh()
		h.Cancel()
		h.Cancel()

		assert.Equal(t, 0, host.PendingFrames())
		host.Refresh()
		assert.Equal(t, 1, calls)
	})

	t.Run("cancel from inside the callback", func(t *testing.T) {
		host := timing.NewMockHost()
		calls := 0

		var h timing.Handle
		h = timing.EveryRefresh(host, func() {
			calls++
			if calls == 2 {
				h.Cancel()
			}
		})

		for i := 0; i < 5; i++ {
			host.Refresh()
		}
		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, host.PendingFrames())
	})

	t.Run("falls back to a timer without a refresh source", func(t *testing.T) {
		host := timing.NewMockHost()
		calls := 0

		// a host whose frames are plain 60 Hz timers
		fallback := fallbackHost{host}
		h := timing.EveryRefresh(fallback, func() { calls++ })
		defer h.Cancel()

		host.Advance(timing.FallbackRefreshInterval * 3)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 1, host.PendingTimers())
	})
}

type fallbackHost struct {
	*timing.MockHost
}

func (f fallbackHost) RequestFrame(fn func()) timing.Handle {
	return f.AfterFunc(timing.FallbackRefreshInterval, fn)
}

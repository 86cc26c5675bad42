package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-frameloop/frameloop/backend/headless"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

func TestNewRefreshSource(t *testing.T) {
	out := headless.New(1)

	tests := []struct {
		kind string
		want any
	}{
		{"auto", &timing.TickerRefresh{}},
		{"ticker", &timing.TickerRefresh{}},
		{"limiter", &timing.LimiterRefresh{}},
		{"adaptive", &timing.LimiterRefresh{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			src, err := newRefreshSource(tt.kind, 120, out)
			require.NoError(t, err)
			require.NotNil(t, src)
			defer src.Stop()

			assert.IsType(t, tt.want, src)
		})
	}

	t.Run("fallback", func(t *testing.T) {
		src, err := newRefreshSource("fallback", 60, out)
		require.NoError(t, err)
		assert.Nil(t, src)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := newRefreshSource("vsync", 60, out)
		assert.Error(t, err)
	})
}

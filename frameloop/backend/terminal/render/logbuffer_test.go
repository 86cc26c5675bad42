package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer(t *testing.T) {
	lb := NewLogBuffer(3)
	assert.Empty(t, lb.Recent(0))

	for i := 1; i <= 5; i++ {
		lb.Add(LogEntry{Message: string(rune('0' + i))})
	}

	assert.Equal(t, 3, lb.Len())

	recent := lb.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "5", recent[0].Message)
	assert.Equal(t, "4", recent[1].Message)
	assert.Equal(t, "3", recent[2].Message)

	assert.Len(t, lb.Recent(2), 2)
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	logger := slog.New(NewLogBufferHandler(lb, level)).With("component", "loop")

	logger.Debug("hidden")
	logger.Info("Framerate changed", "fps", 30)
	require.Equal(t, 1, lb.Len())
	assert.Equal(t, "Framerate changed component=loop fps=30", lb.Recent(1)[0].Message)

	level.Set(slog.LevelDebug)
	logger.Debug("visible")
	assert.Equal(t, 2, lb.Len())
}

func TestFormatLogEntry(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC)

	assert.Equal(t, "12:30:45 [WRN] careful", FormatLogEntry(LogEntry{Time: at, Level: slog.LevelWarn, Message: "careful"}))
	assert.Equal(t, "12:30:45 [DBG] detail", FormatLogEntry(LogEntry{Time: at, Level: slog.LevelDebug - 4, Message: "detail"}))
	assert.Equal(t, "12:30:45 [ERR] boom", FormatLogEntry(LogEntry{Time: at, Level: slog.LevelError, Message: "boom"}))
}

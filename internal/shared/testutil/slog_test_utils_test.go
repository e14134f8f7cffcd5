package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("workbook loaded", slog.String("file", "plan.xlsx"))
		logger.Error("upload rejected", slog.Int("status", 422))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("workbook loaded"))
		assert.True(t, handler.ContainsAttr("file", "plan.xlsx"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("child loggers share the store and keep their attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		child := logger.With(slog.String("component", "workbook_service"))

		child.Info("sheet parsed")
		logger.Info("root message")

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "workbook_service"))
		records := handler.GetRecords()
		_, ok := records[1].Attrs["component"]
		assert.False(t, ok)
	})
}

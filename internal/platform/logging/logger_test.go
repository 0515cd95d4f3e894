package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newJSONLogger(&buf, LevelInfo, "domatch-api")

	logger.WarnContext(context.Background(), "gateway call failed",
		"community_id", "c-1",
		"attempts", 2,
		"error", errors.New("boom"),
	)

	var line map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "gateway call failed", line["msg"])
	assert.Equal(t, "domatch-api", line["service"])
	assert.Equal(t, "c-1", line["community_id"])
	assert.EqualValues(t, 2, line["attempts"])
	assert.Equal(t, "boom", line["error"])
	assert.NotContains(t, line, "trace_id")
}

func TestLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newJSONLogger(&buf, LevelWarn, "")
	logger.Info("ignored")
	logger.Debug("ignored too")

	assert.Zero(t, buf.Len())
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("no-op")
		_ = logger.With("k", "v")
		_ = logger.Sync()
	})
}

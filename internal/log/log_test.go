package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: "info"}) })

	Error("cache write failed", errors.New("quota"), "key", "calendar.cachedEvents", "count", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "cache write failed", line["message"])
	assert.Equal(t, "quota", line["err"])
	assert.Equal(t, "calendar.cachedEvents", line["key"])
	assert.EqualValues(t, 3, line["count"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: "info"}) })

	Debug("hidden")
	assert.Zero(t, buf.Len())

	SetLevel(LevelDebug)
	Debug("shown", "odd")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

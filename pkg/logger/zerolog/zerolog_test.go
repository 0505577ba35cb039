package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/vwapbands/pkg/logger"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", JSON: true, Out: &buf})
	require.NoError(t, err)

	log.WithFields(map[string]any{"pair": "BTCUSDT"}).
		WithField("band", 2).
		WithError(errors.New("boom")).
		Warn("band touched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "band touched", entry["message"])
	assert.Equal(t, "BTCUSDT", entry["pair"])
	assert.Equal(t, 2.0, entry["band"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", JSON: true, Out: &buf})
	require.NoError(t, err)
	assert.Equal(t, logger.WarnLevel, log.GetLevel())

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.SetLevel(logger.DebugLevel)
	assert.Equal(t, logger.DebugLevel, log.GetLevel())
	log.Debugf("visible %d", 1)
	assert.Contains(t, buf.String(), "visible 1")

	_, err = New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Out: &buf})
	require.NoError(t, err)

	log.Info("ready")
	assert.Contains(t, buf.String(), "[INF]")
	assert.Contains(t, buf.String(), "> ready")
}

func TestParseLevel(t *testing.T) {
	level, err := logger.ParseLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, logger.WarnLevel, level)

	_, err = logger.ParseLevel("verbose")
	require.Error(t, err)
}

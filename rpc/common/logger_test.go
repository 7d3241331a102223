package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for _, l := range levelNames {
		got, err := ParseLogLevel(l.name)
		require.NoError(t, err)
		assert.Equal(t, l.level, got)
		assert.Equal(t, l.name, LevelName(got))
	}

	got, err := ParseLogLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, got)

	got, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, logger.INFO, got)

	_, err = ParseLogLevel("warning")
	assert.Error(t, err)
	_, err = ParseLogLevel("verbose")
	assert.ErrorContains(t, err, `invalid log level "verbose"`)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	output.setOutput(&buf)
	t.Cleanup(func() { output.setOutput(os.Stdout) })

	l := CreateLogger("unit")
	l.Debugf("hidden")
	l.Infof("shown %d", 1)
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden")
	l.Errorf("failed: %s", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO  | unit            | shown 1\n")
	assert.Contains(t, out, "ERROR | unit            | failed: boom\n")

	assert.PanicsWithValue(t, "fatal 7", func() { l.Panicf("fatal %d", 7) })
}

func TestInitLoggersTwice(t *testing.T) {
	file := filepath.Join(t.TempDir(), "kvsd.log")
	t.Cleanup(func() { _ = InitLoggers("info", "") })

	require.NoError(t, InitLoggers("info", ""))
	require.NotPanics(t, func() {
		require.NoError(t, InitLoggers("debug", file))
	})

	logger.GetLogger("rpc").Debugf("written to file")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG | rpc             | written to file")

	assert.Error(t, InitLoggers("loud", ""))
}

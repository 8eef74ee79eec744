package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"village-planner/internal/config"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = newLogger(config.LoggingConfig{Level: "nonsense", Format: "console"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "route", "snapshot"}, names)

	cmd.SetArgs([]string{"route", "1", "2", "3"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"snapshot", "--inspect", filepath.Join(t.TempDir(), "missing.json.zst")})
	assert.Error(t, cmd.Execute())
}

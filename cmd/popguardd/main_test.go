package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/popguard/internal/guard/config"
	"github.com/haukened/popguard/internal/guard/domain"
)

func setTestEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	t.Setenv("POPGUARD_STORE_PATH", path)
	t.Setenv("POPGUARD_LOG_LEVEL", "error")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "classify", "https://cdn.popads.net/p.js", "https://accounts.google.com/o/oauth2", "https://example.org/x", "https://example.org/popunder.js")
	require.NoError(t, err)

	assert.Contains(t, out, "blocked     https://cdn.popads.net/p.js  (popads.net, builtin)")
	assert.Contains(t, out, "trusted     https://accounts.google.com/o/oauth2  (google.com, builtin)")
	assert.Contains(t, out, "neutral     https://example.org/x\n")
	assert.Contains(t, out, "suspicious  https://example.org/popunder.js")
}

func TestClassifyCommand_RequiresArgs(t *testing.T) {
	setTestEnv(t)
	_, err := execute(t, "classify")
	assert.Error(t, err)
}

func TestStateCommands(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled:              true")
	assert.Contains(t, out, "Total blocked:        0")
	assert.Contains(t, out, "Silent mode:          true")

	out, err = execute(t, "toggle")
	require.NoError(t, err)
	assert.Equal(t, "Protection disabled.\n", out)

	out, err = execute(t, "set", "silentMode", "false")
	require.NoError(t, err)
	assert.Equal(t, "silentMode = false\n", out)

	out, err = execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled:              false")
	assert.Contains(t, out, "Silent mode:          false")

	out, err = execute(t, "reset")
	require.NoError(t, err)
	assert.Equal(t, "Counters reset.\n", out)
}

func TestSetCommand_Errors(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "set", "totalBlocked", "true")
	assert.Error(t, err)

	_, err = execute(t, "set", "silentMode", "maybe")
	assert.Error(t, err)
}

func TestApplication_MessagesReachBackground(t *testing.T) {
	setTestEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop, err := app.Start(ctx)
	require.NoError(t, err)
	assert.True(t, app.gate.Enabled())

	action := domain.BlockedAction{Category: domain.CategoryOpenAdDomain, Detail: "https://popads.net/"}
	require.NoError(t, app.bus.SenderFor("tab-1").Send(domain.BadgeMessage(1, action)))

	require.Eventually(t, func() bool {
		st, err := app.background.Stats(ctx)
		return err == nil && st.TotalBlocked == 1
	}, 2*time.Second, 10*time.Millisecond)

	enabled, err := app.background.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.False(t, app.gate.Enabled())

	stop()
	assert.NoError(t, app.Close())
}

func TestBuildApplication_BadRulesetDir(t *testing.T) {
	setTestEnv(t)
	t.Setenv("POPGUARD_RULESET_DIR", filepath.Join(t.TempDir(), "missing"))
	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = buildApplication(cfg)
	assert.Error(t, err)
}

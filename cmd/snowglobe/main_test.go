package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/snow-globe/internal/world"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestGenerateCommand(t *testing.T) {
	out := run(t, "--db", "", "--log-level", "warn", "generate", "--half-extent", "5", "New", "York")
	assert.Contains(t, out, "New York: style New York, layout grid")
	assert.Contains(t, out, "fingerprint")
	assert.Contains(t, out, "buildings")

	out = run(t, "--db", "", "--log-level", "warn", "generate", "--half-extent", "5", "Atlantis")
	assert.Contains(t, out, "style default (fallback)")
}

func TestStylesAndHistoryWithStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "globe.db")

	out := run(t, "--db", db, "--log-level", "warn", "styles")
	for _, name := range world.DefaultStyleTable().Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "central park")

	out = run(t, "--db", db, "--log-level", "warn", "history")
	assert.Contains(t, out, "WHEN")
}

func TestSetupLoggingRejectsBadLevel(t *testing.T) {
	assert.Error(t, setupLogging("loud", false))
	assert.NoError(t, setupLogging("debug", true))
	assert.NoError(t, setupLogging("info", false))
}

func TestFeatureList(t *testing.T) {
	assert.Equal(t, "-", featureList(world.Features{}))
	assert.Equal(t, "river, boats", featureList(world.Features{HasBoats: true, HasRiver: true}))
}

func TestGeneratePlot(t *testing.T) {
	t.Cleanup(func() { generateOpts.plotPath = "" })
	path := filepath.Join(t.TempDir(), "london.png")

	out := run(t, "--db", "", "--log-level", "warn", "generate", "--half-extent", "5", "--plot", path, "London")
	assert.Contains(t, out, "map written to")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

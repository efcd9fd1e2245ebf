package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/corelgott/dotless/pkg/config"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the package level flag values between tests.
func resetFlags() {
	verbose, quiet = false, false
	colorMode = "auto"
	configPath = ""
	compileFlags = engineFlags{}
	buildFlags = engineFlags{}
	serveFlags = engineFlags{}
	exploreFlags = engineFlags{}
	buildIncremental = false
	buildDB = ""
	buildWorkers = 0
	buildOutputDir = ""
	buildIncludeHidden = false
	buildFormat = "text"
	serveRoot = "."
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCommands_Registered(t *testing.T) {
	for _, name := range []string{"compile", "build", "serve", "explore", "plugins", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSetupColor(t *testing.T) {
	saved := color.NoColor
	defer func() { color.NoColor = saved }()

	require.NoError(t, setupColor("always"))
	assert.False(t, color.NoColor)
	require.NoError(t, setupColor("never"))
	assert.True(t, color.NoColor)

	t.Setenv("NO_COLOR", "1")
	require.NoError(t, setupColor("auto"))
	assert.True(t, color.NoColor)

	assert.Error(t, setupColor("sometimes"))
}

func TestLogLevel(t *testing.T) {
	defer resetFlags()

	resetFlags()
	assert.Equal(t, logging.LevelWarn, logLevel())
	verbose = true
	assert.Equal(t, logging.LevelDebug, logLevel())
	quiet = true
	assert.Equal(t, logging.LevelError, logLevel())
}

func TestLoadProjectConfig(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	cfg, err := loadProjectConfig(dir)
	require.NoError(t, err)
	assert.False(t, cfg.Compress)

	writeFile(t, filepath.Join(dir, config.FileName), "compress: true\n")
	cfg, err = loadProjectConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Compress)

	other := filepath.Join(t.TempDir(), "other.yaml")
	writeFile(t, other, "debug: true\n")
	configPath = other
	cfg, err = loadProjectConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Compress)
}

func TestEngineFlags_Resolve(t *testing.T) {
	cfg := config.Default()
	cfg.Debug = true
	cfg.Plugins = []config.PluginConfig{{Name: "hexcolor"}}

	f := engineFlags{compress: true, sourceMap: true, plugins: []string{"rtl"}}
	ec, plugins, sourceMap, err := f.resolve(cfg)
	require.NoError(t, err)
	assert.True(t, ec.Compress)
	assert.True(t, ec.Debug)
	assert.True(t, sourceMap)
	require.Len(t, plugins, 2)
	assert.Equal(t, "hexcolor", plugins[0].Name())
	assert.Equal(t, "rtl", plugins[1].Name())
	assert.Len(t, cfg.Plugins, 1, "project config is not modified")

	bad := engineFlags{plugins: []string{"nope"}}
	_, _, _, err = bad.resolve(cfg)
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runVersion(cmd, nil))

	output := buf.String()
	assert.Contains(t, output, "Dotless v")
	assert.Contains(t, output, "Go version:")
	assert.Contains(t, output, "OS/Arch:")
}

func TestRunPlugins(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runPlugins(cmd, nil))

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "hexcolor")
	assert.Contains(t, output, "rtl")
}

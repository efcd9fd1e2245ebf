package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCompile_Stdout(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_colors.less"), "@c: red;\n")
	writeFile(t, filepath.Join(dir, "site.less"), "@import \"_colors.less\";\n.a { color: @c; }\n")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, runCompile(cmd, []string{filepath.Join(dir, "site.less")}))
	assert.Equal(t, ".a {\n  color: red;\n}\n", buf.String())
}

func TestRunCompile_CompressFlag(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.less"), ".a { float: left; }\n")
	compileFlags.compress = true
	compileFlags.plugins = []string{"rtl"}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runCompile(cmd, []string{filepath.Join(dir, "site.less")}))
	assert.Equal(t, ".a{float:right}", buf.String())
}

func TestRunCompile_WritesMap(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.less"), ".a { color: red; }\n")
	out := filepath.Join(dir, "out", "site.css")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	compileFlags.sourceMap = true

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, runCompile(cmd, []string{filepath.Join(dir, "site.less"), out}))

	css, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(css), ".a {\n  color: red;\n}\n")
	assert.Contains(t, string(css), "/*# sourceMappingURL=site.css.map */")
	assert.NotContains(t, string(css), "@source")

	sm, err := os.ReadFile(out + ".map")
	require.NoError(t, err)
	assert.Contains(t, string(sm), `"version":3`)
	assert.Contains(t, string(sm), `"file":"site.css"`)
	assert.Contains(t, string(sm), `"site.less"`)
}

func TestRunCompile_MapNeedsOutput(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.less"), ".a { color: red; }\n")
	compileFlags.sourceMap = true

	err := runCompile(&cobra.Command{}, []string{filepath.Join(dir, "site.less")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--map requires an output file")
}

func TestRunCompile_ParseError(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.less"), ".a { color: red;\n")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runCompile(cmd, []string{filepath.Join(dir, "site.less")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site.less:")
	assert.Contains(t, err.Error(), "unclosed block")
	assert.Empty(t, buf.String())
}

func TestRunCompile_MissingInput(t *testing.T) {
	defer resetFlags()
	resetFlags()

	err := runCompile(&cobra.Command{}, []string{filepath.Join(t.TempDir(), "nope.less")})
	assert.Error(t, err)
}

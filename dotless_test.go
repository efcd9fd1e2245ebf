package dotless

import (
	"encoding/json"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"base.less": {Data: []byte("@c: red;\n")},
		"site.less": {Data: []byte("@import \"base.less\";\n.a { color: @c; }\n")},
	}
}

func TestNewCompiler(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	out, err := c.Compile(".a { x: y; }", "a.less")
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  x: y;\n}\n", out)
}

func TestNewCompiler_UnknownPlugin(t *testing.T) {
	_, err := NewCompiler(WithPlugin("nope", nil))
	assert.Error(t, err)
}

func TestCompileFile(t *testing.T) {
	c, err := NewCompiler(WithFS(testFS()), WithCompress())
	require.NoError(t, err)

	out, err := c.CompileFile("site.less")
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red}", out)
	assert.Equal(t, []string{"base.less"}, c.Imports())

	c.ResetImports()
	assert.Empty(t, c.Imports())
}

func TestCompileFile_NoDirectory(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	_, err = c.CompileFile("site.less")
	assert.Error(t, err)
}

func TestCompile_Failure(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	_, err = c.Compile(".a {", "bad.less")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, err.Error(), "bad.less:1:")

	// A later success is not affected by the earlier failure.
	out, err := c.Compile(".a { x: y; }", "ok.less")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCompileWithSourceMap(t *testing.T) {
	c, err := NewCompiler(WithFS(testFS()))
	require.NoError(t, err)

	out, sm, err := c.CompileWithSourceMap(".a {\n  color: red;\n}\n", "a.less")
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  color: red;\n}\n", out)

	var doc struct {
		Version  int      `json:"version"`
		File     string   `json:"file"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(sm, &doc))
	assert.Equal(t, 3, doc.Version)
	assert.Equal(t, "a.css", doc.File)
	assert.Equal(t, []string{"a.less"}, doc.Sources)
	assert.Equal(t, "AAAA;EACE", doc.Mappings)
}

func TestWithPlugin(t *testing.T) {
	c, err := NewCompiler(WithPlugin("hexcolor", map[string]string{"case": "upper"}), WithCompress())
	require.NoError(t, err)

	out, err := c.Compile(".a { color: #abc; }", "a.less")
	require.NoError(t, err)
	assert.Equal(t, ".a{color:#ABC}", out)
}

func TestWithPlugin_RepeatedNameKeepsEachParams(t *testing.T) {
	c, err := NewCompiler(
		WithPlugin("hexcolor", map[string]string{"case": "upper"}),
		WithPlugin("hexcolor", map[string]string{"case": "lower"}),
		WithCompress(),
	)
	require.NoError(t, err)

	assert.Equal(t, []pluginSpec{
		{name: "hexcolor", params: map[string]string{"case": "upper"}},
		{name: "hexcolor", params: map[string]string{"case": "lower"}},
	}, c.config.plugins)

	out, err := c.Compile(".a { color: #abc; }", "a.less")
	require.NoError(t, err)
	assert.Equal(t, ".a{color:#abc}", out)
}

func TestCompiler_Concurrent(t *testing.T) {
	c, err := NewCompiler(WithFS(testFS()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.CompileFile("site.less")
			assert.NoError(t, err)
			assert.Contains(t, out, "color: red;")
		}()
	}
	wg.Wait()
}

func TestPlugins(t *testing.T) {
	assert.Equal(t, []string{"hexcolor", "rtl"}, Plugins())
}

func TestStripMarkers(t *testing.T) {
	text, fragments, err := StripMarkers(`/*@source:"a.less"[1:0]*/a{x:y}`)
	require.NoError(t, err)
	assert.Equal(t, "a{x:y}", text)
	require.Len(t, fragments, 1)
	assert.Equal(t, "a.less", fragments[0].SourceFile)
	assert.Equal(t, 1, fragments[0].SourceLine)
}

package env

import (
	"strings"
	"testing"

	"github.com/corelgott/dotless/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperSelectors struct{}

func (upperSelectors) Name() string                    { return "upper" }
func (upperSelectors) VisitSelector(sel string) string { return strings.ToUpper(sel) }

type suffixValues struct{ suffix string }

func (s suffixValues) Name() string { return "suffix" + s.suffix }
func (s suffixValues) VisitDeclaration(p, v string) (string, string) {
	return p, v + s.suffix
}

type inert struct{}

func (inert) Name() string { return "inert" }

func TestNew_CopiesConfig(t *testing.T) {
	e := New(Config{Compress: true, DisableVariableRedefines: true})

	assert.True(t, e.Compress)
	assert.False(t, e.Debug)
	assert.True(t, e.DisableVariableRedefines)
	assert.Empty(t, e.Plugins())
	assert.False(t, e.SourceMapEnabled())
	assert.Nil(t, e.SourceMap())
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, Require(nil), ErrNilEnv)
	assert.NoError(t, Require(New(Config{})))
}

func TestEnv_PluginsKeepOrder(t *testing.T) {
	e := New(Config{})
	e.AddPlugin(suffixValues{suffix: "1"})
	e.AddPlugin(nil)
	e.AddPlugin(inert{})
	e.AddPlugin(suffixValues{suffix: "2"})
	e.AddPlugin(upperSelectors{})

	names := make([]string, 0)
	for _, p := range e.Plugins() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"suffix1", "inert", "suffix2", "upper"}, names)

	prop, val := e.VisitDeclaration("color", "red")
	assert.Equal(t, "color", prop)
	assert.Equal(t, "red12", val)
	assert.Equal(t, ".A > B", e.VisitSelector(".a > b"))
}

func TestEnv_SourceMapMode(t *testing.T) {
	e := New(Config{})

	g := e.EnableSourceMap("out.css")
	require.NotNil(t, g)
	assert.True(t, e.SourceMapEnabled())
	assert.Same(t, g, e.SourceMap())
	assert.Equal(t, "out.css", g.File())

	g.AddFragment(types.Fragment{SourceFile: "a.less"})
	fresh := e.EnableSourceMap("out.css")
	assert.Equal(t, 0, fresh.Len())

	e.DisableSourceMap()
	assert.False(t, e.SourceMapEnabled())
	assert.Nil(t, e.SourceMap())
}

// Package env holds the rendering environment handed to a parsed tree: the
// output flags, the activated plugins and the source-map accumulator.
package env

import (
	"errors"

	"github.com/corelgott/dotless/pkg/sourcemap"
)

// ErrNilEnv is returned where an environment is required but none was given.
var ErrNilEnv = errors.New("env: environment is nil")

// Config holds the output flags an environment is built from.
type Config struct {
	// Compress strips whitespace and comments from the output.
	Compress bool `json:"compress" yaml:"compress"`

	// Debug annotates rule sets with their source line.
	Debug bool `json:"debug" yaml:"debug"`

	// KeepFirstSpecialComment keeps the first /*! ... */ comment when compressing.
	KeepFirstSpecialComment bool `json:"keep_first_special_comment" yaml:"keep_first_special_comment"`

	// DisableVariableRedefines makes the first definition of a variable final.
	DisableVariableRedefines bool `json:"disable_variable_redefines" yaml:"disable_variable_redefines"`
}

// Env is the state a tree renders against. It is not safe for concurrent use.
type Env struct {
	Config

	plugins   []Plugin
	sourceMap *sourcemap.Generator
}

// New creates an environment from cfg with no plugins and map mode off.
func New(cfg Config) *Env {
	return &Env{Config: cfg}
}

// Require returns ErrNilEnv when e is nil.
func Require(e *Env) error {
	if e == nil {
		return ErrNilEnv
	}
	return nil
}

// AddPlugin registers p. Plugins are consulted in registration order.
func (e *Env) AddPlugin(p Plugin) {
	if p == nil {
		return
	}
	e.plugins = append(e.plugins, p)
}

// Plugins returns the registered plugins in registration order.
func (e *Env) Plugins() []Plugin {
	out := make([]Plugin, len(e.plugins))
	copy(out, e.plugins)
	return out
}

// EnableSourceMap switches map mode on with a fresh accumulator for the
// named output file. Renderers emit position markers while it is on.
func (e *Env) EnableSourceMap(file string) *sourcemap.Generator {
	e.sourceMap = sourcemap.NewGenerator(file)
	return e.sourceMap
}

// DisableSourceMap switches map mode off and drops the accumulator.
func (e *Env) DisableSourceMap() {
	e.sourceMap = nil
}

// SourceMapEnabled reports whether renderers should emit markers.
func (e *Env) SourceMapEnabled() bool {
	return e.sourceMap != nil
}

// SourceMap returns the accumulator, or nil when map mode is off.
func (e *Env) SourceMap() *sourcemap.Generator {
	return e.sourceMap
}

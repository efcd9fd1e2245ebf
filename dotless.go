// Package dotless compiles style sheets to CSS, with optional Source Map v3
// output pointing every rule and declaration back to its source file.
//
// # Basic Usage
//
// Create a compiler that resolves imports in a directory:
//
//	c, err := dotless.NewCompiler(dotless.WithDir("styles"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	css, err := c.CompileFile("site.less")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # With Source Maps
//
//	css, sourceMap, err := c.CompileWithSourceMap(source, "site.less")
//
// Malformed input yields an error wrapping ErrCompileFailed that names the
// file, line and column of the problem.
package dotless

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/plugin"
	"github.com/corelgott/dotless/pkg/sourcemap"
	"github.com/corelgott/dotless/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/corelgott/dotless" without subpackages.
type (
	// Fragment maps a position of the output back to its source.
	Fragment = types.Fragment

	// Point is a line and column pair.
	Point = types.Point

	// Config holds the output flags of a compilation.
	Config = env.Config
)

// ErrCompileFailed is wrapped by the error returned for malformed input.
var ErrCompileFailed = errors.New("compilation failed")

// Compiler compiles style sheets. It is safe for concurrent use; calls are
// serialized.
type Compiler struct {
	engine   *engine.Engine
	recorder *logging.Recorder
	config   *compilerConfig
	mu       sync.Mutex
}

// compilerConfig holds compiler configuration.
type compilerConfig struct {
	fsys    fs.FS
	env     Config
	plugins []pluginSpec
}

// pluginSpec is one WithPlugin call. A plugin may be activated more than once
// with different parameters.
type pluginSpec struct {
	name   string
	params map[string]string
}

// Option configures a Compiler.
type Option func(*compilerConfig)

// WithDir resolves imports below dir.
func WithDir(dir string) Option {
	return func(c *compilerConfig) {
		c.fsys = os.DirFS(dir)
	}
}

// WithFS resolves imports in fsys. Without WithDir or WithFS every @import
// is kept verbatim.
func WithFS(fsys fs.FS) Option {
	return func(c *compilerConfig) {
		c.fsys = fsys
	}
}

// WithConfig sets all output flags at once.
func WithConfig(cfg Config) Option {
	return func(c *compilerConfig) {
		c.env = cfg
	}
}

// WithCompress minifies the output.
func WithCompress() Option {
	return func(c *compilerConfig) {
		c.env.Compress = true
	}
}

// WithPlugin activates a registered plugin. See Plugins for the names.
func WithPlugin(name string, params map[string]string) Option {
	return func(c *compilerConfig) {
		c.plugins = append(c.plugins, pluginSpec{name: name, params: params})
	}
}

// NewCompiler creates a Compiler with the given options.
//
// Example:
//
//	c, err := dotless.NewCompiler(
//	    dotless.WithDir("styles"),
//	    dotless.WithCompress(),
//	    dotless.WithPlugin("rtl", nil),
//	)
func NewCompiler(opts ...Option) (*Compiler, error) {
	config := &compilerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	reg := plugin.Default()
	configurators := make([]env.Configurator, 0, len(config.plugins))
	for _, p := range config.plugins {
		c, err := reg.Configurator(p.name, p.params)
		if err != nil {
			return nil, err
		}
		configurators = append(configurators, c)
	}

	rec := &logging.Recorder{}
	return &Compiler{
		engine: engine.New(&css.Parser{FS: config.fsys},
			engine.WithConfig(config.env),
			engine.WithPlugins(configurators...),
			engine.WithLogger(rec),
		),
		recorder: rec,
		config:   config,
	}, nil
}

// Compile compiles source, read from fileName.
func (c *Compiler) Compile(source, fileName string) (string, error) {
	out, _, err := c.compile(source, fileName, false)
	return out, err
}

// CompileWithSourceMap compiles source and returns the output with its
// serialized source map.
func (c *Compiler) CompileWithSourceMap(source, fileName string) (string, []byte, error) {
	return c.compile(source, fileName, true)
}

// CompileFile reads name from the import file system and compiles it.
func (c *Compiler) CompileFile(name string) (string, error) {
	if c.config.fsys == nil {
		return "", fmt.Errorf("compiling %s: no directory configured", name)
	}
	src, err := fs.ReadFile(c.config.fsys, name)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return c.Compile(string(src), name)
}

func (c *Compiler) compile(source, fileName string, withMap bool) (string, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recorder.Drain()
	var (
		out    string
		mapBuf bytes.Buffer
		err    error
	)
	if withMap {
		out, err = c.engine.TransformToCSSWithSourceMap(source, fileName, &mapBuf)
	} else {
		out, err = c.engine.TransformToCSS(source, fileName)
	}
	if err != nil {
		return "", nil, err
	}
	if !c.engine.LastTransformationSuccessful() {
		return "", nil, compileFailure(c.recorder.Errors())
	}
	if !withMap {
		return out, nil, nil
	}
	return out, mapBuf.Bytes(), nil
}

// compileFailure turns logged parse errors back into an error value.
func compileFailure(msgs []string) error {
	if len(msgs) == 0 {
		return ErrCompileFailed
	}
	return fmt.Errorf("%w: %s", ErrCompileFailed, strings.Join(msgs, "; "))
}

// Imports returns every file resolved through imports since the last
// ResetImports.
func (c *Compiler) Imports() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Imports()
}

// ResetImports clears the import ledger.
func (c *Compiler) ResetImports() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.ResetImports()
}

// Plugins returns the names of the registered plugins.
func Plugins() []string {
	return plugin.Default().Names()
}

// StripMarkers removes source markers from text and returns the fragments
// they described, in output order.
func StripMarkers(text string) (string, []Fragment, error) {
	return sourcemap.Extract(text)
}

// Package engine drives one style sheet through parse, plugin activation,
// render and source-map synthesis.
//
// An Engine is not safe for concurrent use: it keeps the outcome of the last
// transformation and shares one import ledger across calls. Use one engine
// per goroutine, or serialize access.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/parser"
	"github.com/corelgott/dotless/pkg/sourcemap"
)

// Config holds the output flags used when no environment is supplied.
type Config = env.Config

// ErrNoParser is returned when an engine was built without a parser.
var ErrNoParser = errors.New("engine: no parser configured")

// Engine transforms preprocessor source into plain style-sheet text.
type Engine struct {
	parser  parser.Parser
	logger  logging.Logger
	config  Config
	env     *env.Env
	plugins []env.Configurator
	imports *parser.Ledger
	mapFile string

	lastTransformationSuccessful bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets where parse failures are reported.
// Default is an error-level console logger on stderr.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l == nil {
			l = logging.NoopLogger{}
		}
		e.logger = l
	}
}

// WithConfig replaces all output flags at once.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithCompress minifies the output.
func WithCompress(on bool) Option {
	return func(e *Engine) {
		e.config.Compress = on
	}
}

// WithDebug annotates rule sets with their source line.
func WithDebug(on bool) Option {
	return func(e *Engine) {
		e.config.Debug = on
	}
}

// WithKeepFirstSpecialComment keeps the first /*! comment when compressing.
func WithKeepFirstSpecialComment(on bool) Option {
	return func(e *Engine) {
		e.config.KeepFirstSpecialComment = on
	}
}

// WithDisableVariableRedefines makes the first definition of a variable final.
func WithDisableVariableRedefines(on bool) Option {
	return func(e *Engine) {
		e.config.DisableVariableRedefines = on
	}
}

// WithEnv renders against a pre-built environment instead of one built from
// the output flags. The environment is reused across calls: plugins are
// registered on it again on every call and its map mode is switched per call.
func WithEnv(ev *env.Env) Option {
	return func(e *Engine) {
		e.env = ev
	}
}

// WithPlugins sets the plugin configurators, activated in the given order.
func WithPlugins(configurators ...env.Configurator) Option {
	return func(e *Engine) {
		e.plugins = append([]env.Configurator(nil), configurators...)
	}
}

// WithImportLedger shares an import ledger with the caller.
func WithImportLedger(l *parser.Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.imports = l
		}
	}
}

// WithSourceMapFile sets the "file" field of generated source maps.
// Default is the input name with its extension replaced by ".css".
func WithSourceMapFile(name string) Option {
	return func(e *Engine) {
		e.mapFile = name
	}
}

// New creates an engine around p.
func New(p parser.Parser, opts ...Option) *Engine {
	e := &Engine{
		parser:  p,
		logger:  logging.NewConsoleLogger(os.Stderr, logging.LevelError),
		imports: parser.NewLedger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the output flags used when no environment is supplied.
func (e *Engine) Config() Config {
	return e.config
}

// LastTransformationSuccessful reports the outcome of the latest call to
// TransformToCSS or TransformToCSSWithSourceMap.
func (e *Engine) LastTransformationSuccessful() bool {
	return e.lastTransformationSuccessful
}

// Imports returns every file resolved through imports since the last reset,
// without duplicates.
func (e *Engine) Imports() []string {
	return e.imports.Imports()
}

// ResetImports clears the import ledger. Call it between compilations that
// should not report each other's imports.
func (e *Engine) ResetImports() {
	e.imports.Reset()
}

// TransformToCSS compiles source, read from fileName.
//
// Malformed input is logged at error level and yields "" with a nil error;
// LastTransformationSuccessful then reports false. Every other failure is
// returned.
func (e *Engine) TransformToCSS(source, fileName string) (string, error) {
	return e.transform(source, fileName, nil)
}

// TransformToCSSWithSourceMap compiles source like TransformToCSS and, on
// success, appends the serialized source map to sink.
func (e *Engine) TransformToCSSWithSourceMap(source, fileName string, sink io.Writer) (string, error) {
	if sink == nil {
		e.lastTransformationSuccessful = false
		return "", errors.New("engine: source map sink is nil")
	}
	return e.transform(source, fileName, sink)
}

func (e *Engine) transform(source, fileName string, sink io.Writer) (string, error) {
	css, err := e.run(source, fileName, sink)
	if err != nil {
		e.lastTransformationSuccessful = false

		var perr *parser.ParseError
		if errors.As(err, &perr) {
			e.logger.Error("%v", perr)
			return "", nil
		}
		return "", err
	}

	e.lastTransformationSuccessful = true
	return css, nil
}

func (e *Engine) run(source, fileName string, sink io.Writer) (string, error) {
	if e.parser == nil {
		return "", ErrNoParser
	}

	tree, err := e.parser.Parse(source, fileName, e.imports)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", fileName, err)
	}

	ev := e.resolveEnv()
	if err := e.activatePlugins(ev); err != nil {
		return "", err
	}

	if sink != nil {
		ev.EnableSourceMap(e.sourceMapFile(fileName))
	} else {
		ev.DisableSourceMap()
	}

	css, err := tree.Render(ev)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", fileName, err)
	}
	if sink == nil {
		return css, nil
	}

	css, err = postProcessSourceMap(ev, css)
	if err != nil {
		return "", err
	}

	m, err := ev.SourceMap().Generate()
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(sink, m); err != nil {
		return "", fmt.Errorf("writing source map: %w", err)
	}
	return css, nil
}

// resolveEnv is the single place deciding which environment a call renders
// against.
func (e *Engine) resolveEnv() *env.Env {
	if e.env != nil {
		return e.env
	}
	return env.New(e.config)
}

func (e *Engine) activatePlugins(ev *env.Env) error {
	for _, c := range e.plugins {
		p, err := c.CreatePlugin()
		if err != nil {
			return fmt.Errorf("creating plugin %s: %w", c.Name(), err)
		}
		ev.AddPlugin(p)
	}
	return nil
}

func (e *Engine) sourceMapFile(fileName string) string {
	if e.mapFile != "" {
		return e.mapFile
	}
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base)) + ".css"
}

// postProcessSourceMap strips the renderer's position markers from css and
// registers one fragment per marker with the environment's accumulator.
func postProcessSourceMap(ev *env.Env, css string) (string, error) {
	if err := env.Require(ev); err != nil {
		return "", err
	}
	acc := ev.SourceMap()
	if acc == nil {
		return "", errors.New("engine: source map mode is off")
	}
	return sourcemap.Strip(css, acc)
}

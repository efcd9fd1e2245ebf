//go:build wasm

package main

import (
	"bytes"
	"encoding/json"
	"sync"
	"syscall/js"
	"testing/fstest"

	"github.com/corelgott/dotless/pkg/config"
	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/plugin"
)

// compilerOptions is the argument of DotlessConfigure.
type compilerOptions struct {
	// Config is the content of a dotless.yaml file.
	Config string `json:"config"`
	// Files are the sources imports resolve to, keyed by slash separated name.
	Files map[string]string `json:"files"`
}

// compileResult is the JSON returned by DotlessCompile.
type compileResult struct {
	Success bool            `json:"success"`
	CSS     string          `json:"css"`
	Map     json.RawMessage `json:"map,omitempty"`
	Imports []string        `json:"imports"`
	Errors  []string        `json:"errors,omitempty"`
}

// compiler serializes access to one engine.
type compiler struct {
	mu       sync.Mutex
	engine   *engine.Engine
	recorder *logging.Recorder
}

// current is the compiler used by every exported function.
var (
	current   *compiler
	currentMu sync.RWMutex
)

func defaultCompiler() *compiler {
	currentMu.RLock()
	c := current
	currentMu.RUnlock()
	if c != nil {
		return c
	}

	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		// An empty option set cannot fail.
		current, _ = newCompilerFromJSON("")
	}
	return current
}

func newCompilerFromJSON(optionsJSON string) (*compiler, error) {
	var opts compilerOptions
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Parse([]byte(opts.Config))
	if err != nil {
		return nil, err
	}
	plugins, err := cfg.Configurators(plugin.Default())
	if err != nil {
		return nil, err
	}

	fsys := fstest.MapFS{}
	for name, content := range opts.Files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}

	rec := &logging.Recorder{}
	return &compiler{
		engine: engine.New(&css.Parser{FS: fsys},
			engine.WithConfig(cfg.EngineConfig()),
			engine.WithPlugins(plugins...),
			engine.WithLogger(rec),
		),
		recorder: rec,
	}, nil
}

func (c *compiler) compile(source, fileName string, withMap bool) (*compileResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		out    string
		err    error
		mapBuf bytes.Buffer
	)
	if withMap {
		out, err = c.engine.TransformToCSSWithSourceMap(source, fileName, &mapBuf)
	} else {
		out, err = c.engine.TransformToCSS(source, fileName)
	}
	if err != nil {
		return nil, err
	}

	res := &compileResult{
		Success: c.engine.LastTransformationSuccessful(),
		CSS:     out,
		Imports: c.engine.Imports(),
		Errors:  c.recorder.Errors(),
	}
	c.recorder.Drain()
	if withMap && res.Success {
		res.Map = json.RawMessage(mapBuf.Bytes())
	}
	return res, nil
}

// configure replaces the compiler with one built from an options JSON object.
// JS: DotlessConfigure(optionsJSON) -> {success} or {error}
func configure(this js.Value, args []js.Value) interface{} {
	optionsJSON := ""
	if len(args) > 0 {
		optionsJSON = args[0].String()
	}

	c, err := newCompilerFromJSON(optionsJSON)
	if err != nil {
		return map[string]interface{}{"error": "failed to configure compiler: " + err.Error()}
	}

	currentMu.Lock()
	current = c
	currentMu.Unlock()
	return map[string]interface{}{"success": true}
}

// compile compiles one source.
// JS: DotlessCompile(source, fileName, withMap) -> JSON result or {error}
func compile(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "source and fileName arguments required"}
	}
	withMap := len(args) > 2 && args[2].Truthy()

	res, err := defaultCompiler().compile(args[0].String(), args[1].String(), withMap)
	if err != nil {
		return map[string]interface{}{"error": "compile failed: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal result: " + err.Error()}
	}
	return string(jsonBytes)
}

// imports returns the import ledger.
// JS: DotlessImports() -> JSON array or {error}
func imports(this js.Value, args []js.Value) interface{} {
	c := defaultCompiler()
	c.mu.Lock()
	list := c.engine.Imports()
	c.mu.Unlock()

	jsonBytes, err := json.Marshal(list)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal imports: " + err.Error()}
	}
	return string(jsonBytes)
}

// resetImports clears the import ledger.
// JS: DotlessResetImports()
func resetImports(this js.Value, args []js.Value) interface{} {
	c := defaultCompiler()
	c.mu.Lock()
	c.engine.ResetImports()
	c.mu.Unlock()
	return map[string]interface{}{"success": true}
}

// listPlugins returns the registered plugin names.
// JS: DotlessPlugins() -> JSON array
func listPlugins(this js.Value, args []js.Value) interface{} {
	jsonBytes, err := json.Marshal(plugin.Default().Names())
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal plugins: " + err.Error()}
	}
	return string(jsonBytes)
}

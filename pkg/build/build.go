// Package build compiles every style sheet below a directory.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/store"
	"github.com/corelgott/dotless/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Config controls a build.
type Config struct {
	// Root is the directory to build. Imports cannot leave it.
	Root string
	// Extensions selects source files. Default is ".less".
	Extensions []string
	// IncludeHidden also builds dot files and descends into dot directories.
	IncludeHidden bool
	// OutputDir receives the compiled files, mirroring the source layout.
	// Relative paths are taken from Root. Empty writes next to each source.
	OutputDir string
	// Workers is the number of parallel compilers. Default is runtime.NumCPU().
	Workers int
	// SourceMap also writes <name>.css.map next to each output.
	SourceMap bool
	// Incremental skips sources whose content and imports are unchanged
	// since the build recorded in the store.
	Incremental bool

	Engine  env.Config
	Plugins []env.Configurator
	Logger  logging.Logger
}

// Status is the outcome for one source file.
type Status int

const (
	Compiled Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Compiled:
		return "compiled"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome for one source file.
type Result struct {
	Path   string // relative to the root, slash separated
	Output string // relative to the root, slash separated
	Status Status
	Err    error
}

// Report lists every source file of a build, ordered by path.
type Report struct {
	Results []Result
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Err joins the errors of failed results.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Path, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Builder compiles a directory tree.
type Builder struct {
	config Config
	store  store.Store
	fsys   fs.FS
	now    func() time.Time
}

// New creates a builder. st may be nil when Incremental is off.
func New(config Config, st store.Store) *Builder {
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".less"}
	}
	if config.Workers < 1 {
		config.Workers = runtime.NumCPU()
	}
	if config.Logger == nil {
		config.Logger = logging.NoopLogger{}
	}
	return &Builder{
		config: config,
		store:  st,
		fsys:   os.DirFS(config.Root),
		now:    time.Now,
	}
}

// Run builds every eligible file. Compilation failures are reported per file;
// the returned error is reserved for walk, write and store failures.
// Phase 1: walk the tree and collect sources (sequential).
// Phase 2: compile in parallel, one engine per worker.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	if b.config.Incremental && b.store == nil {
		return nil, fmt.Errorf("incremental build requires a store")
	}

	sources, err := b.collect(ctx)
	if err != nil {
		return nil, err
	}
	b.config.Logger.Debug("found %d source files under %s", len(sources), b.config.Root)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(sources))
	)
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan string, b.config.Workers*2)

	g.Go(func() error {
		defer close(pathsCh)
		for _, s := range sources {
			select {
			case pathsCh <- s:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < b.config.Workers; i++ {
		g.Go(func() error {
			w := b.newWorker()
			for rel := range pathsCh {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := w.build(rel)
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return &Report{Results: results}, nil
}

// collect returns the sources below the root as slash separated relative paths.
func (b *Builder) collect(ctx context.Context) ([]string, error) {
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(b.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}
	outDir := b.outputRoot()

	var sources []string
	err := filepath.WalkDir(b.config.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(b.config.Root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if !b.config.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if b.config.OutputDir != "" && filepath.Clean(p) == outDir {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !b.config.IncludeHidden && isHidden(d.Name()) {
			return nil
		}
		if isPartial(d.Name()) || !b.selected(d.Name()) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}

		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (b *Builder) selected(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".css" {
		return false
	}
	for _, e := range b.config.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func (b *Builder) outputRoot() string {
	if b.config.OutputDir == "" {
		return filepath.Clean(b.config.Root)
	}
	if filepath.IsAbs(b.config.OutputDir) {
		return filepath.Clean(b.config.OutputDir)
	}
	return filepath.Join(b.config.Root, b.config.OutputDir)
}

// outputPath returns the compiled file for rel, relative to the root when the
// output directory is inside it.
func (b *Builder) outputPath(rel string) (abs, display string) {
	name := strings.TrimSuffix(rel, path.Ext(rel)) + ".css"
	abs = filepath.Join(b.outputRoot(), filepath.FromSlash(name))
	if r, err := filepath.Rel(b.config.Root, abs); err == nil && !strings.HasPrefix(r, "..") {
		return abs, filepath.ToSlash(r)
	}
	return abs, filepath.ToSlash(abs)
}

// worker owns one engine. Engines are not safe for concurrent use.
type worker struct {
	b        *Builder
	engine   *engine.Engine
	recorder *logging.Recorder
}

func (b *Builder) newWorker() *worker {
	rec := &logging.Recorder{}
	return &worker{
		b: b,
		engine: engine.New(&css.Parser{FS: b.fsys},
			engine.WithConfig(b.config.Engine),
			engine.WithPlugins(b.config.Plugins...),
			engine.WithLogger(rec),
		),
		recorder: rec,
	}
}

func (w *worker) build(rel string) (Result, error) {
	b := w.b
	outAbs, outRel := b.outputPath(rel)
	res := Result{Path: rel, Output: outRel}

	src, err := fs.ReadFile(b.fsys, rel)
	if err != nil {
		return res, fmt.Errorf("failed to read file %s: %w", rel, err)
	}

	if b.config.Incremental {
		upToDate, err := w.upToDate(rel, src, outAbs)
		if err != nil {
			return res, err
		}
		if upToDate {
			b.config.Logger.Debug("%s is up to date", rel)
			res.Status = Skipped
			return res, nil
		}
	}

	w.engine.ResetImports()
	w.recorder.Drain()

	var (
		out    string
		mapBuf bytes.Buffer
	)
	if b.config.SourceMap {
		out, err = w.engine.TransformToCSSWithSourceMap(string(src), rel, &mapBuf)
	} else {
		out, err = w.engine.TransformToCSS(string(src), rel)
	}
	if err == nil && !w.engine.LastTransformationSuccessful() {
		err = w.recorder.Err()
		if err == nil {
			err = errors.New("compilation failed")
		}
	}
	if err != nil {
		b.config.Logger.Error("%s: %v", rel, err)
		res.Status = Failed
		res.Err = err
		return res, nil
	}

	if err := w.write(outAbs, out, mapBuf.Bytes()); err != nil {
		return res, err
	}
	b.config.Logger.Info("compiled %s -> %s", rel, outRel)

	if b.store != nil {
		imports := w.engine.Imports()
		err := b.store.RecordBuild(&store.BuildRecord{
			Path:      rel,
			ContentID: contentID(b.fsys, src, imports),
			Imports:   imports,
			Output:    outRel,
			BuiltAt:   b.now(),
		})
		if err != nil {
			return res, fmt.Errorf("recording build of %s: %w", rel, err)
		}
	}

	res.Status = Compiled
	return res, nil
}

func (w *worker) upToDate(rel string, src []byte, outAbs string) (bool, error) {
	last, err := w.b.store.LastBuild(rel)
	if err != nil {
		return false, fmt.Errorf("looking up last build of %s: %w", rel, err)
	}
	if last == nil {
		return false, nil
	}
	if _, err := os.Stat(outAbs); err != nil {
		return false, nil
	}
	return contentID(w.b.fsys, src, last.Imports) == last.ContentID, nil
}

func (w *worker) write(outAbs, out string, sourceMap []byte) error {
	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if w.b.config.SourceMap {
		mapName := filepath.Base(outAbs) + ".map"
		if err := os.WriteFile(outAbs+".map", sourceMap, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outAbs+".map", err)
		}
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "/*# sourceMappingURL=" + mapName + " */\n"
	}
	if err := os.WriteFile(outAbs, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outAbs, err)
	}
	return nil
}

// contentID covers a source and the current content of the files it imports.
// A missing import contributes its name only.
func contentID(fsys fs.FS, src []byte, imports []string) types.ContentID {
	parts := [][]byte{src}
	for _, imp := range imports {
		parts = append(parts, []byte(imp))
		if data, err := fs.ReadFile(fsys, imp); err == nil {
			parts = append(parts, data)
		}
	}
	return types.ComputeContentID(parts...)
}

// isHidden checks if a filename is hidden (starts with .).
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isPartial reports files meant only to be imported, like _mixins.less.
func isPartial(name string) bool {
	return strings.HasPrefix(name, "_")
}

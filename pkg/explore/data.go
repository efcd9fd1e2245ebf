package explore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/types"
)

// fragmentRow is one mapping with the text of both lines it connects.
type fragmentRow struct {
	types.Fragment
	GeneratedText string
	SourceText    string // empty when the source could not be read
}

// exploreData holds a compiled file and its mappings.
type exploreData struct {
	file      string
	css       string
	sources   []string // distinct source files, sorted
	fragments []*fragmentRow
}

// loadData compiles fileName from fsys with map mode on and pairs every
// fragment with its generated and source lines.
func loadData(fsys fs.FS, fileName string, cfg env.Config, plugins ...env.Configurator) (*exploreData, error) {
	src, err := fs.ReadFile(fsys, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}

	rec := &logging.Recorder{}
	ev := env.New(cfg)
	eng := engine.New(&css.Parser{FS: fsys},
		engine.WithEnv(ev),
		engine.WithPlugins(plugins...),
		engine.WithLogger(rec),
	)

	out, err := eng.TransformToCSSWithSourceMap(string(src), fileName, io.Discard)
	if err != nil {
		return nil, err
	}
	if !eng.LastTransformationSuccessful() {
		return nil, errors.New(strings.Join(rec.Errors(), "; "))
	}

	generated := types.NewLineIndex(out)
	sourceLines := make(map[string]*types.LineIndex)
	data := &exploreData{file: fileName, css: out}

	for _, f := range ev.SourceMap().Fragments() {
		idx, seen := sourceLines[f.SourceFile]
		if !seen {
			if b, err := fs.ReadFile(fsys, f.SourceFile); err == nil {
				idx = types.NewLineIndex(string(b))
			}
			sourceLines[f.SourceFile] = idx
			data.sources = append(data.sources, f.SourceFile)
		}

		row := &fragmentRow{
			Fragment:      f,
			GeneratedText: generated.Line(f.GeneratedLine + 1),
		}
		if idx != nil {
			row.SourceText = idx.Line(f.SourceLine)
		}
		data.fragments = append(data.fragments, row)
	}
	sort.Strings(data.sources)

	return data, nil
}

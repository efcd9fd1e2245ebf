package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/corelgott/dotless/pkg/types"
)

// Version is the source map revision produced by Generator.
const Version = 3

// document is the serialized form of a revision 3 source map.
type document struct {
	Version    int      `json:"version"`
	File       string   `json:"file,omitempty"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

// Generator accumulates fragments for one output file and serializes them as
// a revision 3 source map. It is the map accumulator of an environment.
type Generator struct {
	file       string
	sourceRoot string
	fragments  []types.Fragment
}

// NewGenerator creates an empty generator for the named output file.
func NewGenerator(file string) *Generator {
	return &Generator{file: file}
}

// File returns the output file name recorded in the map.
func (g *Generator) File() string {
	return g.file
}

// SetSourceRoot sets the optional sourceRoot field.
func (g *Generator) SetSourceRoot(root string) {
	g.sourceRoot = root
}

// AddFragment implements FragmentSink.
func (g *Generator) AddFragment(f types.Fragment) {
	g.fragments = append(g.fragments, f)
}

// Fragments returns a copy of the accumulated fragments in arrival order.
func (g *Generator) Fragments() []types.Fragment {
	out := make([]types.Fragment, len(g.fragments))
	copy(out, g.fragments)
	return out
}

// Len returns the number of accumulated fragments.
func (g *Generator) Len() int {
	return len(g.fragments)
}

// Generate serializes the accumulated fragments.
//
// Source lines arrive 1-based and are stored zero-based as the format
// requires; source columns are stored as reported.
func (g *Generator) Generate() (string, error) {
	doc := document{
		Version:    Version,
		File:       g.file,
		SourceRoot: g.sourceRoot,
		Sources:    []string{},
		Names:      []string{},
	}

	frags := g.Fragments()
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Generated().Before(frags[j].Generated())
	})

	sourceIndex := make(map[string]int)
	var (
		buf        []byte
		line       int
		prevColumn int
		prevSource int
		prevLine   int
		prevSrcCol int
		first      = true
	)
	for _, f := range frags {
		if f.GeneratedLine < 0 || f.GeneratedColumn < 0 {
			return "", fmt.Errorf("fragment has negative generated position %d:%d", f.GeneratedLine, f.GeneratedColumn)
		}
		for line < f.GeneratedLine {
			buf = append(buf, ';')
			line++
			prevColumn = 0
			first = true
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false

		idx, ok := sourceIndex[f.SourceFile]
		if !ok {
			idx = len(doc.Sources)
			sourceIndex[f.SourceFile] = idx
			doc.Sources = append(doc.Sources, f.SourceFile)
		}
		srcLine := f.SourceLine - 1
		if srcLine < 0 {
			srcLine = 0
		}

		buf = appendVLQ(buf, f.GeneratedColumn-prevColumn)
		buf = appendVLQ(buf, idx-prevSource)
		buf = appendVLQ(buf, srcLine-prevLine)
		buf = appendVLQ(buf, f.SourceColumn-prevSrcCol)

		prevColumn = f.GeneratedColumn
		prevSource = idx
		prevLine = srcLine
		prevSrcCol = f.SourceColumn
	}
	doc.Mappings = string(buf)

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling source map: %w", err)
	}
	return string(data), nil
}

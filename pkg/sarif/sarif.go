// Package sarif writes build diagnostics as SARIF 2.1.0 logs.
package sarif

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/corelgott/dotless/pkg/build"
	"github.com/corelgott/dotless/pkg/parser"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "dotless"
)

// Rule IDs reported by dotless.
const (
	RuleParseError   = "dotless/parse-error"
	RuleCompileError = "dotless/compile-error"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes a kind of diagnostic.
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result is one diagnostic.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is the start of the offending input. Lines and columns are 1-based.
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: toolVersion,
						Rules: []Rule{
							{
								ID:               RuleParseError,
								Name:             "ParseError",
								ShortDescription: ShortDescription{Text: "The style sheet could not be parsed"},
							},
							{
								ID:               RuleCompileError,
								Name:             "CompileError",
								ShortDescription: ShortDescription{Text: "The style sheet could not be compiled"},
							},
						},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// FromBuild converts the failed results of a build rooted at root into a
// report.
func FromBuild(report *build.Report, root, toolVersion string) *Report {
	r := NewReport(toolVersion)
	for _, res := range report.Results {
		if res.Status == build.Failed && res.Err != nil {
			r.AddFailure(root, res.Path, res.Err)
		}
	}
	return r
}

// AddFailure adds one result per error joined in err, which was returned for
// the source at path. Paths are slash separated and relative to root. Parse
// errors are reported against the file they name, which may be an import.
func (r *Report) AddFailure(root, path string, err error) {
	for _, e := range flatten(err) {
		var perr *parser.ParseError
		if !errors.As(e, &perr) {
			r.add(RuleCompileError, e.Error(), filepath.Join(root, filepath.FromSlash(path)), nil)
			continue
		}

		file := path
		if perr.File != "" {
			file = perr.File
		}
		var region *Region
		if perr.Line > 0 {
			region = &Region{StartLine: perr.Line, StartColumn: perr.Column}
		}
		r.add(RuleParseError, perr.Message, filepath.Join(root, filepath.FromSlash(file)), region)
	}
}

func (r *Report) add(ruleID, msg, filePath string, region *Region) {
	r.Runs[0].Results = append(r.Runs[0].Results, Result{
		RuleID:  ruleID,
		Level:   "error",
		Message: Message{Text: msg},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: formatFileURI(filePath)},
					Region:           region,
				},
			},
		},
	})
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// flatten expands errors built with errors.Join.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}

package sarif

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/corelgott/dotless/pkg/build"
	"github.com/corelgott/dotless/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	report := NewReport("1.2.3")

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	assert.Len(t, report.Runs, 1)
	assert.Equal(t, ToolName, report.Runs[0].Tool.Driver.Name)
	assert.Equal(t, "1.2.3", report.Runs[0].Tool.Driver.Version)
	assert.Len(t, report.Runs[0].Tool.Driver.Rules, 2)
	assert.Empty(t, report.Runs[0].Results)
}

func TestAddFailure_ParseError(t *testing.T) {
	report := NewReport("dev")

	report.AddFailure("/src", "site.less", parser.Errorf("site.less", 3, 7, "unclosed block"))

	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, RuleParseError, result.RuleID)
	assert.Equal(t, "error", result.Level)
	assert.Equal(t, "unclosed block", result.Message.Text)

	location := result.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///src/site.less", location.ArtifactLocation.URI)
	require.NotNil(t, location.Region)
	assert.Equal(t, 3, location.Region.StartLine)
	assert.Equal(t, 7, location.Region.StartColumn)
}

func TestAddFailure_ErrorInImport(t *testing.T) {
	report := NewReport("dev")

	report.AddFailure("styles", "site.less", parser.Errorf("lib/_mixins.less", 2, 1, `unexpected "}"`))

	location := report.Runs[0].Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "styles/lib/_mixins.less", location.ArtifactLocation.URI)
}

func TestAddFailure_JoinedAndPlainErrors(t *testing.T) {
	report := NewReport("dev")

	err := errors.Join(
		parser.Errorf("a.less", 1, 1, "first"),
		errors.New("disk full"),
	)
	report.AddFailure("root", "a.less", err)

	results := report.Runs[0].Results
	require.Len(t, results, 2)
	assert.Equal(t, RuleParseError, results[0].RuleID)
	assert.Equal(t, RuleCompileError, results[1].RuleID)
	assert.Equal(t, "disk full", results[1].Message.Text)
	assert.Nil(t, results[1].Locations[0].PhysicalLocation.Region)
}

func TestFromBuild(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.less"), []byte(".a { x: y; }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.less"), []byte(".a {\n"), 0o644))

	br, err := build.New(build.Config{Root: root, Workers: 1}, nil).Run(context.Background())
	require.NoError(t, err)

	report := FromBuild(br, root, "dev")
	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, RuleParseError, result.RuleID)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(root, "bad.less")), result.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 1, result.Locations[0].PhysicalLocation.Region.StartLine)
}

func TestToJSON(t *testing.T) {
	report := NewReport("dev")
	report.AddFailure("/x", "a.less", parser.Errorf("a.less", 1, 2, "boom"))

	jsonBytes, err := report.ToJSON()
	require.NoError(t, err)

	// Verify it's valid JSON
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBytes, &parsed))
	assert.Equal(t, SchemaURI, parsed["$schema"])
	assert.Equal(t, Version, parsed["version"])
}

func TestRelativePathConversion(t *testing.T) {
	assert.Equal(t, "file:///absolute/path/file.less", formatFileURI("/absolute/path/file.less"))
	assert.Equal(t, "relative/path/file.less", formatFileURI("relative/path/file.less"))
}

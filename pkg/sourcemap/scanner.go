package sourcemap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corelgott/dotless/pkg/types"
	"github.com/dlclark/regexp2"
)

// markerOpening is the part of a marker that user text must never contain.
const markerOpening = `/*@source:`

// markerPrefix is the literal every marker starts with.
const markerPrefix = markerOpening + `"`

// MarkerPattern matches one inline position marker:
//
//	/*@source:"<file>"[<line>:<column>]*/
//
// The coordinate group is deliberately loose so that a marker carrying
// broken coordinates is reported instead of leaking into the output.
const MarkerPattern = `/\*@source:"([^"\r\n]*)"\[([^\]\r\n]*)\]\*/`

var markerRegexp = compileMarkerRegexp()

func compileMarkerRegexp() *regexp2.Regexp {
	re := regexp2.MustCompile(MarkerPattern, regexp2.None)
	// Set timeout to prevent catastrophic backtracking
	re.MatchTimeout = 5 * time.Second
	return re
}

// FragmentSink receives fragments in scan order. The sink takes ownership of
// every fragment it is handed.
type FragmentSink interface {
	AddFragment(f types.Fragment)
}

// FragmentSinkFunc adapts a plain function to FragmentSink.
type FragmentSinkFunc func(f types.Fragment)

// AddFragment calls fn(f).
func (fn FragmentSinkFunc) AddFragment(f types.Fragment) {
	fn(f)
}

// File names are percent-encoded inside markers so that any name survives
// the marker grammar.
var (
	fileEncoder = strings.NewReplacer("%", "%25", `"`, "%22", "\n", "%0A", "\r", "%0D")
	fileDecoder = strings.NewReplacer("%25", "%", "%22", `"`, "%0A", "\n", "%0D", "\r")
)

var markerDefuser = strings.NewReplacer(markerOpening, `/*\@source:`)

// Marker renders the marker for a source location. Renderers use it so that
// emission and scanning share one grammar.
func Marker(file string, line, column int) string {
	return markerPrefix + fileEncoder.Replace(file) + `"[` +
		strconv.Itoa(line) + ":" + strconv.Itoa(column) + "]*/"
}

// Defuse rewrites text a renderer copies from its input so it can never be
// read as a marker. The result has the same meaning in CSS: inside a comment
// the text is inert, inside a string "\@" is an escaped "@".
func Defuse(text string) string {
	if !strings.Contains(text, markerOpening) {
		return text
	}
	return markerDefuser.Replace(text)
}

// MarkerError reports a marker whose coordinates could not be read. Markers
// are emitted by the renderer, never by users, so this always points at a
// renderer bug.
type MarkerError struct {
	Offset int    // rune offset of the marker in the scanned text
	Marker string // the marker text
	Err    error
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("malformed source marker %q at offset %d: %v", e.Marker, e.Offset, e.Err)
}

func (e *MarkerError) Unwrap() error {
	return e.Err
}

// Strip removes every marker from text and reports one fragment per marker to
// sink, left to right. All other characters are copied unchanged.
//
// The generated position of a marker is measured in the output, i.e. with all
// earlier markers already removed: line is the number of newlines before it,
// column the number of runes since the last newline. Scanning resumes after
// the consumed marker, so removed text can never combine with its
// surroundings into a new match.
func Strip(text string, sink FragmentSink) (string, error) {
	if !strings.Contains(text, markerPrefix) {
		return text, nil
	}
	if sink == nil {
		sink = FragmentSinkFunc(func(types.Fragment) {})
	}

	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	var cur cursor
	next := 0

	m, err := markerRegexp.FindRunesMatch(runes)
	for ; m != nil; m, err = markerRegexp.FindNextMatch(m) {
		span := runes[next:m.Index]
		cur.advance(span)
		out.WriteString(string(span))

		frag, ferr := fragmentFromMatch(m, cur)
		if ferr != nil {
			return "", ferr
		}
		sink.AddFragment(frag)

		next = m.Index + m.Length
	}
	if err != nil {
		return "", fmt.Errorf("scanning for source markers: %w", err)
	}

	out.WriteString(string(runes[next:]))
	return out.String(), nil
}

// Extract is Strip with the fragments collected into a slice.
func Extract(text string) (string, []types.Fragment, error) {
	var frags []types.Fragment
	out, err := Strip(text, FragmentSinkFunc(func(f types.Fragment) {
		frags = append(frags, f)
	}))
	if err != nil {
		return "", nil, err
	}
	return out, frags, nil
}

// cursor tracks the zero-based position reached in the output.
type cursor struct {
	line   int
	column int
}

func (c *cursor) advance(span []rune) {
	for _, r := range span {
		if r == '\n' {
			c.line++
			c.column = 0
			continue
		}
		c.column++
	}
}

func fragmentFromMatch(m *regexp2.Match, at cursor) (types.Fragment, error) {
	fail := func(err error) (types.Fragment, error) {
		return types.Fragment{}, &MarkerError{Offset: m.Index, Marker: m.String(), Err: err}
	}

	coords := m.GroupByNumber(2).String()
	lineText, columnText, ok := strings.Cut(coords, ":")
	if !ok {
		return fail(fmt.Errorf("expected <line>:<column>, got %q", coords))
	}
	line, err := strconv.Atoi(lineText)
	if err != nil {
		return fail(fmt.Errorf("source line: %w", err))
	}
	column, err := strconv.Atoi(columnText)
	if err != nil {
		return fail(fmt.Errorf("source column: %w", err))
	}

	return types.Fragment{
		GeneratedLine:   at.line,
		GeneratedColumn: at.column,
		SourceFile:      fileDecoder.Replace(m.GroupByNumber(1).String()),
		SourceLine:      line,
		SourceColumn:    column,
	}, nil
}
